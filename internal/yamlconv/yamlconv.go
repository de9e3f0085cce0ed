// Package yamlconv bridges YAML documents and mnode trees, using
// github.com/geofffranks/yaml for both directions. It exists so the
// CLI can accept/emit YAML as an alternative to schema-2 text, the way
// a merge tool accepts either its native format or YAML on each input.
package yamlconv

import (
	"fmt"

	"github.com/geofffranks/yaml"

	"github.com/n2a-go/mstore/pkg/mnode"
)

// Unmarshal parses YAML data and merges it into root's children,
// replacing any value root already held at each touched path.
func Unmarshal(data []byte, root mnode.Node) error {
	var decoded interface{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("yamlconv: %w", err)
	}
	assign(root, decoded)
	return nil
}

func assign(node mnode.Node, value interface{}) {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		for key, child := range v {
			assign(node.SetChild(fmt.Sprint(key), nil), child)
		}
	case map[string]interface{}:
		for key, child := range v {
			assign(node.SetChild(key, nil), child)
		}
	case []interface{}:
		for i, child := range v {
			assign(node.SetChild(fmt.Sprint(i), nil), child)
		}
	case nil:
		node.SetValue(nil)
	default:
		s := fmt.Sprint(v)
		node.SetValue(&s)
	}
}

// Marshal renders node's children as a YAML document: each node
// becomes a string-keyed map entry, with its own value (if defined)
// stored under the empty key, matching how M trees conventionally
// fold a "node body" and "node children" into one YAML mapping.
func Marshal(node mnode.Node) ([]byte, error) {
	return yaml.Marshal(toYAML(node))
}

func toYAML(node mnode.Node) interface{} {
	children := node.Children()
	if len(children) == 0 {
		if node.IsDefined() {
			return node.GetValue()
		}
		return nil
	}
	out := map[string]interface{}{}
	if node.IsDefined() {
		out[""] = node.GetValue()
	}
	for _, c := range children {
		out[c.Key()] = toYAML(c)
	}
	return out
}

// MarshalValue renders an arbitrary decoded value (e.g. the result of
// applying a go-patch operation set) back to YAML bytes, without
// going through an mnode tree.
func MarshalValue(value interface{}) ([]byte, error) {
	return yaml.Marshal(value)
}

// UnmarshalValue decodes YAML data into out, without going through an
// mnode tree. Used for go-patch definition files, which describe
// operations rather than tree content.
func UnmarshalValue(data []byte, out interface{}) error {
	return yaml.Unmarshal(data, out)
}
