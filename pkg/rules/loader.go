package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/boxwind/pkg/convert"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// LoadError describes a problem in a rule file.
type LoadError struct {
	File    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// LoadFiles loads every rule file. All files are read even when some fail;
// the returned error combines every failure. A tag defined twice across the
// files is an error.
func LoadFiles(paths ...string) ([]*convert.RuleTable, error) {
	var (
		tables []*convert.RuleTable
		errs   error
	)
	seen := make(map[string]string)

	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, t := range loaded {
			if prev, dup := seen[t.Name()]; dup {
				errs = multierr.Append(errs, &LoadError{
					File:    path,
					Message: fmt.Sprintf("tag %s already defined in %s", t.Name(), prev),
				})
				continue
			}
			seen[t.Name()] = path
			tables = append(tables, t)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return tables, nil
}

// LoadFile reads and parses one rule file.
func LoadFile(path string) ([]*convert.RuleTable, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: rule files are named by the user
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return Parse(path, data)
}

// Parse decodes rule tables from YAML. A file may hold several documents,
// one table each:
//
//	tag: Stack
//	base_classes: [flex]
//	rules:
//	  spacing: gap
//	  container:
//	    class: flex
//	  direction:
//	    starlark: "lambda name, value, arbitrary: 'flex-' + value if value else ''"
//
// Rules keep their file order.
func Parse(filename string, data []byte) ([]*convert.RuleTable, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var tables []*convert.RuleTable
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{File: filename, Message: err.Error()}
		}
		if len(doc.Content) == 0 {
			continue
		}
		t, err := parseTable(filename, doc.Content[0])
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func parseTable(filename string, n *yaml.Node) (*convert.RuleTable, error) {
	fail := func(at *yaml.Node, format string, args ...any) error {
		return &LoadError{File: filename, Line: at.Line, Message: fmt.Sprintf(format, args...)}
	}
	if n.Kind != yaml.MappingNode {
		return nil, fail(n, "expected a mapping with tag and rules")
	}

	var (
		tag   string
		base  []string
		rules []convert.Rule
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "tag":
			if val.Kind != yaml.ScalarNode || val.Value == "" {
				return nil, fail(val, "tag must be a non-empty string")
			}
			tag = val.Value
		case "base_classes":
			switch val.Kind {
			case yaml.ScalarNode:
				base = strings.Fields(val.Value)
			case yaml.SequenceNode:
				for _, item := range val.Content {
					if item.Kind != yaml.ScalarNode {
						return nil, fail(item, "base_classes entries must be strings")
					}
					base = append(base, item.Value)
				}
			default:
				return nil, fail(val, "base_classes must be a list of strings")
			}
		case "rules":
			if val.Kind != yaml.MappingNode {
				return nil, fail(val, "rules must be a mapping of attribute to transform")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				r, err := parseRule(filename, val.Content[j], val.Content[j+1])
				if err != nil {
					return nil, err
				}
				rules = append(rules, r)
			}
		default:
			return nil, fail(key, "unknown key %q", key.Value)
		}
	}

	if tag == "" {
		return nil, fail(n, "missing tag")
	}
	t, err := convert.NewRuleTable(tag, base, rules...)
	if err != nil {
		return nil, &LoadError{File: filename, Line: n.Line, Message: err.Error()}
	}
	return t, nil
}

func parseRule(filename string, key, val *yaml.Node) (convert.Rule, error) {
	fail := func(at *yaml.Node, format string, args ...any) error {
		return &LoadError{File: filename, Line: at.Line, Message: fmt.Sprintf(format, args...)}
	}
	attr := key.Value

	switch val.Kind {
	case yaml.ScalarNode:
		if val.Value == "" {
			return convert.Rule{}, fail(val, "rule %s: empty prefix", attr)
		}
		return convert.R(attr, val.Value), nil
	case yaml.MappingNode:
		if len(val.Content) != 2 {
			return convert.Rule{}, fail(val, "rule %s: expected exactly one of prefix, class or starlark", attr)
		}
		kind, body := val.Content[0].Value, val.Content[1]
		if body.Kind != yaml.ScalarNode {
			return convert.Rule{}, fail(body, "rule %s: %s must be a string", attr, kind)
		}
		switch kind {
		case "prefix":
			return convert.R(attr, body.Value), nil
		case "class":
			return convert.F(attr, Const(body.Value)), nil
		case "starlark":
			s, err := compileScript(fmt.Sprintf("%s:%s", filename, attr), body.Value)
			if err != nil {
				return convert.Rule{}, fail(body, "rule %s: %v", attr, err)
			}
			return convert.Rule{Attr: attr, Transform: convert.FallibleFunc(s.call)}, nil
		default:
			return convert.Rule{}, fail(val.Content[0], "rule %s: unknown transform kind %q", attr, kind)
		}
	default:
		return convert.Rule{}, fail(val, "rule %s: expected a prefix string or a mapping", attr)
	}
}
