package convert

import "strings"

// Prop is one resolved attribute.
type Prop struct {
	Name string
	// Class is the class token, or for complex props a ready expression
	// fragment such as `isMobile ? 'p-2' : 'p-4'`.
	Class          string
	IsComplexClass bool
}

// Resolve turns a matched attribute into a Prop using transform.
func Resolve(attr Attribute, transform Transform) (Prop, error) {
	r := resolver{name: attr.Name, transform: transform}
	prop := Prop{Name: attr.Name}

	var err error
	switch attr.Value.Kind {
	case Conditional:
		prop.IsComplexClass = true
		prop.Class, err = r.conditional(attr.Value)
	default:
		prop.Class, err = r.plain(attr.Value)
	}
	if err != nil {
		return Prop{}, &TransformError{Attr: attr.Name, Err: err}
	}
	return prop, nil
}

type resolver struct {
	name      string
	transform Transform
}

func (r resolver) run(value string) (string, error) {
	return r.transform.apply(r.name, value, IsArbitraryValue(value))
}

// plain resolves every non-conditional shape.
func (r resolver) plain(v Value) (string, error) {
	switch v.Kind {
	case Absent:
		return r.transform.apply(r.name, "", false)
	case ObjectLiteral:
		parts := make([]string, 0, len(v.Entries))
		for _, e := range v.Entries {
			tok, err := r.run(e.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, e.Key+":"+tok)
		}
		return strings.Join(parts, " "), nil
	default:
		return r.run(v.Text)
	}
}

// conditional renders `cond ? a : b`, quoting terminal branches and inlining
// nested ternaries on either side.
func (r resolver) conditional(v Value) (string, error) {
	then, err := r.branch(v.Then)
	if err != nil {
		return "", err
	}
	els, err := r.branch(v.Else)
	if err != nil {
		return "", err
	}
	return v.Condition + " ? " + then + " : " + els, nil
}

func (r resolver) branch(v *Value) (string, error) {
	if v == nil {
		return quoteSingle(""), nil
	}
	if v.Kind == Conditional {
		return r.conditional(*v)
	}
	tok, err := r.plain(*v)
	if err != nil {
		return "", err
	}
	return quoteSingle(tok), nil
}

var (
	singleQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	doubleQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
)

// quoteSingle renders s as a single-quoted JS string literal.
func quoteSingle(s string) string {
	return "'" + singleQuoter.Replace(s) + "'"
}

// quoteDouble renders s as a double-quoted JS string literal.
func quoteDouble(s string) string {
	return `"` + doubleQuoter.Replace(s) + `"`
}
