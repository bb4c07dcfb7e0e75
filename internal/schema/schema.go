package schema

import (
	"fmt"
	"path"
)

// Parameter is a single runtime configuration setting of a database.
type Parameter struct {
	Name         string
	Value        string
	DatabaseName string
	Scope        Scope
	Synchronize  bool
}

// Key identifies a parameter within one database. Names repeat across
// scopes, so the scope is part of the key.
func (p Parameter) Key() string {
	return string(p.Scope) + "/" + p.Name
}

// Fragment is what a single reader produces. It is merged into a Schema
// once every reader in a pass has succeeded.
type Fragment struct {
	Parameters []Parameter
}

// Schema is the parameter snapshot of one database.
//
// A Schema is not safe for concurrent mutation. Readers never touch it
// directly; the orchestrator merges their fragments sequentially.
type Schema struct {
	Name       string
	Parameters []Parameter
}

// Merge appends the parameters of every fragment after the existing ones,
// preserving fragment order. Existing entries are never modified.
func (s *Schema) Merge(fragments ...Fragment) {
	for _, f := range fragments {
		s.Parameters = append(s.Parameters, f.Parameters...)
	}
}

// Exclude marks every parameter whose name matches one of the glob
// patterns as not synchronized and returns how many were marked. A
// malformed pattern fails the whole call before anything is marked.
func (s *Schema) Exclude(patterns []string) (int, error) {
	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return 0, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	marked := 0
	for i := range s.Parameters {
		p := &s.Parameters[i]
		if !p.Synchronize {
			continue
		}
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, p.Name); ok {
				p.Synchronize = false
				marked++
				break
			}
		}
	}
	return marked, nil
}

func (s *Schema) Lookup(scope Scope, name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Scope == scope && p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

func (s *Schema) ObjectCount() int {
	return len(s.Parameters)
}

// Lint reports entries that are accepted but will not behave as written.
// A user-level value overrides the database-level one for the same name, so
// the database entry never shows up as in effect.
func (s *Schema) Lint() []string {
	var warnings []string

	for _, p := range s.Parameters {
		if p.Scope == ScopeDatabase {
			if _, ok := s.Lookup(ScopeUser, p.Name); ok {
				warnings = append(warnings, fmt.Sprintf("parameter %s is set at both database and user level; the user value takes effect", p.Name))
			}
		}

		if p.Value == "" {
			warnings = append(warnings, fmt.Sprintf("parameter %s (%s) has an empty value", p.Name, p.Scope))
		}
	}

	return warnings
}
