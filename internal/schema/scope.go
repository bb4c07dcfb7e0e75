package schema

import (
	"errors"
	"fmt"
)

var ErrUnknownScope = errors.New("unknown parameter scope")

// Scope is the configuration layer a parameter value was set at.
// Only the layers that can be synchronized are representable.
type Scope string

const (
	ScopeDatabase Scope = "database"
	ScopeUser     Scope = "user"
)

var scopes = []Scope{ScopeDatabase, ScopeUser}

// ParseScope maps a pg_settings source value to a Scope. Any other
// origin (session, default, configuration file, ...) is rejected.
func ParseScope(s string) (Scope, error) {
	for _, scope := range scopes {
		if string(scope) == s {
			return scope, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

func (s Scope) Valid() bool {
	_, err := ParseScope(string(s))
	return err == nil
}

func (s Scope) String() string {
	return string(s)
}
