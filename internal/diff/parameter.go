package diff

import (
	"fmt"
	"strings"

	"github.com/terminally-online/paramsync/internal/schema"
)

type ParameterChange struct {
	ChangeType   ChangeType
	Parameter    schema.Parameter
	OldParameter *schema.Parameter
}

func (c *ParameterChange) SQL() string {
	switch c.ChangeType {
	case SetParameter, AlterParameter:
		return setParameterSQL(c.Parameter)
	case ResetParameter:
		return resetParameterSQL(c.Parameter)
	}
	return ""
}

func (c *ParameterChange) DownSQL() string {
	switch c.ChangeType {
	case SetParameter:
		return resetParameterSQL(c.Parameter)
	case AlterParameter, ResetParameter:
		if c.OldParameter != nil {
			return setParameterSQL(*c.OldParameter)
		}
		return fmt.Sprintf("-- IRREVERSIBLE: previous value of %s is unknown", c.Parameter.Name)
	}
	return ""
}

func (c *ParameterChange) Type() ChangeType {
	return c.ChangeType
}

func (c *ParameterChange) ObjectName() string {
	return c.Parameter.Name
}

func (c *ParameterChange) IsReversible() bool {
	if c.ChangeType == SetParameter {
		return true
	}
	return c.OldParameter != nil
}

func compareParameters(current, desired []schema.Parameter) []Change {
	var changes []Change

	currentMap := make(map[string]schema.Parameter)
	for _, p := range current {
		currentMap[p.Key()] = p
	}

	desiredMap := make(map[string]schema.Parameter)
	for _, p := range desired {
		desiredMap[p.Key()] = p
	}

	seen := make(map[string]bool)
	for _, p := range desired {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		p = desiredMap[key]
		if !p.Synchronize {
			continue
		}

		old, exists := currentMap[key]
		if !exists {
			changes = append(changes, &ParameterChange{
				ChangeType: SetParameter,
				Parameter:  p,
			})
			continue
		}
		if !old.Synchronize || old.Value == p.Value {
			continue
		}

		changes = append(changes, &ParameterChange{
			ChangeType:   AlterParameter,
			Parameter:    p,
			OldParameter: &old,
		})
	}

	for _, p := range current {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		p = currentMap[key]
		if !p.Synchronize {
			continue
		}

		old := p
		changes = append(changes, &ParameterChange{
			ChangeType:   ResetParameter,
			Parameter:    p,
			OldParameter: &old,
		})
	}

	return changes
}

func setParameterSQL(p schema.Parameter) string {
	return fmt.Sprintf("%s SET %s = %s;", alterTarget(p), parameterName(p.Name), parameterValue(p.Name, p.Value))
}

func resetParameterSQL(p schema.Parameter) string {
	return fmt.Sprintf("%s RESET %s;", alterTarget(p), parameterName(p.Name))
}

func alterTarget(p schema.Parameter) string {
	if p.Scope == schema.ScopeUser {
		return "ALTER ROLE CURRENT_USER"
	}
	return fmt.Sprintf("ALTER DATABASE %s", quoteIdent(p.DatabaseName))
}

// parameterName leaves GUC names, including dotted extension settings,
// bare. They are case-insensitive so mixed case needs no quoting.
func parameterName(name string) string {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '.' || r >= '0' && r <= '9'):
		default:
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		}
	}
	if name == "" {
		return `""`
	}
	return name
}

// listParameters are the settings that take a list of values. Every other
// setting takes exactly one value, commas included.
var listParameters = map[string]bool{
	"datestyle":                 true,
	"search_path":               true,
	"temp_tablespaces":          true,
	"session_preload_libraries": true,
	"local_preload_libraries":   true,
	"shared_preload_libraries":  true,
	"log_destination":           true,
	"unix_socket_directories":   true,
	"listen_addresses":          true,
	"debug_io_direct":           true,
}

func isListParameter(name string) bool {
	return listParameters[strings.ToLower(name)]
}

// parameterValue renders value as the argument of SET. List settings get
// one literal per element; the server re-quotes elements on storage.
func parameterValue(name, value string) string {
	if !isListParameter(name) {
		return quoteLiteral(value)
	}

	elements := splitList(value)
	quoted := make([]string, len(elements))
	for i, e := range elements {
		quoted[i] = quoteLiteral(e)
	}
	return strings.Join(quoted, ", ")
}

// splitList splits a list setting as pg_settings reports it, such as
// `"$user", public`, into its unquoted elements.
func splitList(value string) []string {
	var (
		elements []string
		current  strings.Builder
		inQuotes bool
	)

	flush := func() {
		e := strings.TrimSpace(current.String())
		if len(e) >= 2 && e[0] == '"' && e[len(e)-1] == '"' {
			e = strings.ReplaceAll(e[1:len(e)-1], `""`, `"`)
		}
		elements = append(elements, e)
		current.Reset()
	}

	for _, r := range value {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return elements
}
