package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a desired-state parameters file for the named database.
func LoadFile(path, databaseName string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	s, err := Parse(data, databaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a desired-state document of the form
//
//	database:
//	  work_mem: 64MB
//	user:
//	  statement_timeout: "30000"
//
// Entries keep the order they appear in the document.
func Parse(data []byte, databaseName string) (*Schema, error) {
	if databaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	s := &Schema{Name: databaseName}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return s, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of scopes", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, body := root.Content[i], root.Content[i+1]

		scope, err := ParseScope(key.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}

		params, err := parseScope(body, scope, databaseName)
		if err != nil {
			return nil, err
		}
		s.Parameters = append(s.Parameters, params...)
	}

	return s, nil
}

func parseScope(node *yaml.Node, scope Scope, databaseName string) ([]Parameter, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping of parameter names to values", node.Line, scope)
	}

	var params []Parameter
	seen := make(map[string]int)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i], node.Content[i+1]

		if prev, ok := seen[name.Value]; ok {
			return nil, fmt.Errorf("line %d: %s parameter %s already defined on line %d", name.Line, scope, name.Value, prev)
		}
		seen[name.Value] = name.Line

		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: value of %s must be a scalar", value.Line, name.Value)
		}

		params = append(params, Parameter{
			Name:         name.Value,
			Value:        value.Value,
			DatabaseName: databaseName,
			Scope:        scope,
			Synchronize:  true,
		})
	}

	return params, nil
}

// ToYAML renders the schema in the format accepted by Parse.
func (s *Schema) ToYAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, scope := range scopes {
		body := &yaml.Node{Kind: yaml.MappingNode}
		for _, p := range s.Parameters {
			if p.Scope != scope {
				continue
			}
			body.Content = append(body.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Value},
			)
		}
		if len(body.Content) == 0 {
			continue
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(scope)},
			body,
		)
	}

	if len(root.Content) == 0 {
		return []byte("{}\n"), nil
	}

	return yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}
