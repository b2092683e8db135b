package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Roles accepts either a single scalar or a sequence in YAML and always
// decodes into a plain list, so nothing past the loader branches on shape.
type Roles []string

func (r *Roles) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*r = Roles{}
			return nil
		}
		*r = Roles{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		out := make(Roles, 0, len(list))
		for _, s := range list {
			out = append(out, strings.TrimSpace(s))
		}
		*r = out
		return nil
	default:
		return fmt.Errorf("line %d: roles must be a string or a list of strings", value.Line)
	}
}
