package catalog

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// DecodeYAML decodes a YAML document into maps, lists and scalars the way
// yaml.Unmarshal into an any would, except that size columns keep their
// scalar text. A plain 0603 would otherwise become the octal integer 387.
func DecodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return yamlValue(root.Content[0], "")
}

// ReadYAMLSection returns the mapping stored under key in a YAML file, or nil
// when the file has no such mapping.
func ReadYAMLSection(path, key string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	top, ok := doc.(map[string]any)
	if !ok {
		return nil, nil
	}
	section, _ := top[key].(map[string]any)
	return section, nil
}

func yamlValue(n *yaml.Node, key string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], key)
	case yaml.AliasNode:
		return yamlValue(n.Alias, key)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			v, err := yamlValue(n.Content[i+1], name)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(item, "")
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	if tag := n.ShortTag(); columns[foldHeader(key)] == "size" && (tag == "!!int" || tag == "!!float") {
		return n.Value, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
