package jsx

import (
	"regexp"
	"strings"
)

var (
	importPattern     = regexp.MustCompile(`(?m)^[ \t]*import\s+(type\s+)?([\w$\s,{}*]+?)\s*from\s*(['"])([^'"\n]+)['"][ \t]*;?`)
	sideEffectPattern = regexp.MustCompile(`(?m)^[ \t]*import\s*(['"])([^'"\n]+)['"][ \t]*;?`)
	directivePattern  = regexp.MustCompile(`^(?:\s*(['"])use [\w-]+['"][ \t]*;?)+`)
)

// ImportDecl is one top-level import declaration.
type ImportDecl struct {
	Module    string
	Default   string
	Namespace string
	// Named holds the specifiers between the braces as written.
	Named    []string
	TypeOnly bool
	Quote    byte

	Span Span
	// clause, braceOpen and braceClose locate the parts AddImport edits.
	clause     Span
	braceOpen  int
	braceClose int
	defaultEnd int
}

// HasName reports whether the declaration binds name locally, either as the
// default, the namespace or a named specifier.
func (d ImportDecl) HasName(name string) bool {
	if d.Default == name || d.Namespace == name {
		return true
	}
	for _, spec := range d.Named {
		if localName(spec) == name {
			return true
		}
	}
	return false
}

// ImportedNames returns the exported names of the named specifiers.
func (d ImportDecl) ImportedNames() []string {
	names := make([]string, 0, len(d.Named))
	for _, spec := range d.Named {
		spec = strings.TrimPrefix(spec, "type ")
		if i := strings.Index(spec, " as "); i >= 0 {
			spec = spec[:i]
		}
		names = append(names, strings.TrimSpace(spec))
	}
	return names
}

func localName(spec string) string {
	spec = strings.TrimPrefix(spec, "type ")
	if i := strings.Index(spec, " as "); i >= 0 {
		return strings.TrimSpace(spec[i+4:])
	}
	return strings.TrimSpace(spec)
}

// Imports returns the import declarations of src in source order.
// Side-effect imports are included with no bindings.
func Imports(src string) []ImportDecl {
	var decls []ImportDecl
	for _, m := range importPattern.FindAllStringSubmatchIndex(src, -1) {
		d := ImportDecl{
			Module:     src[m[8]:m[9]],
			TypeOnly:   m[2] >= 0,
			Quote:      src[m[6]],
			Span:       Span{Start: m[0], End: m[1]},
			clause:     Span{Start: m[4], End: m[5]},
			braceOpen:  -1,
			braceClose: -1,
			defaultEnd: -1,
		}
		parseClause(src, &d)
		decls = append(decls, d)
	}

	for _, m := range sideEffectPattern.FindAllStringSubmatchIndex(src, -1) {
		decls = append(decls, ImportDecl{
			Module:     src[m[4]:m[5]],
			Quote:      src[m[2]],
			Span:       Span{Start: m[0], End: m[1]},
			braceOpen:  -1,
			braceClose: -1,
			defaultEnd: -1,
		})
	}

	sortDecls(decls)
	return decls
}

func sortDecls(decls []ImportDecl) {
	for i := 1; i < len(decls); i++ {
		for j := i; j > 0 && decls[j].Span.Start < decls[j-1].Span.Start; j-- {
			decls[j], decls[j-1] = decls[j-1], decls[j]
		}
	}
}

func parseClause(src string, d *ImportDecl) {
	clause := src[d.clause.Start:d.clause.End]

	head := clause
	if open := strings.IndexByte(clause, '{'); open >= 0 {
		end := strings.LastIndexByte(clause, '}')
		if end < open {
			end = len(clause)
		}
		d.braceOpen = d.clause.Start + open
		d.braceClose = d.clause.Start + end
		for _, spec := range strings.Split(clause[open+1:end], ",") {
			if spec = strings.Join(strings.Fields(spec), " "); spec != "" {
				d.Named = append(d.Named, spec)
			}
		}
		head = clause[:open]
	}

	for _, part := range strings.Split(head, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "*"):
			fields := strings.Fields(strings.TrimPrefix(part, "*"))
			if len(fields) == 2 && fields[0] == "as" {
				d.Namespace = fields[1]
			}
		case isIdentifier(part):
			d.Default = part
			d.defaultEnd = d.clause.Start + strings.Index(clause, part) + len(part)
		}
	}
}

// AddImport ensures src imports name from module, as the default import
// when isDefault is set and as a named import otherwise. Existing
// declarations for the module are extended before a new one is added. It
// returns src unchanged when the binding already exists, and an
// *ImportConflictError when the name is bound from another module or the
// module already has a different default import.
func AddImport(src, module, name string, isDefault bool) (string, error) {
	decls := Imports(src)

	var target *ImportDecl
	for i := range decls {
		d := &decls[i]
		if d.Module != module && d.HasName(name) {
			return "", &ImportConflictError{Module: module, Name: name, Existing: name + " from " + d.Module}
		}
		if d.Module != module || d.TypeOnly {
			continue
		}
		if d.HasName(name) && (!isDefault || d.Default == name) {
			return src, nil
		}
		if isDefault && d.Default != "" {
			return "", &ImportConflictError{Module: module, Name: name, Existing: "default " + d.Default}
		}
		if target == nil && d.Namespace == "" && d.clause.Len() > 0 {
			target = d
		}
	}

	if target != nil {
		switch {
		case isDefault:
			return insert(src, target.clause.Start, name+", "), nil
		case target.braceOpen >= 0:
			return addNamed(src, target, name), nil
		case target.defaultEnd >= 0:
			return insert(src, target.defaultEnd, ", { "+name+" }"), nil
		}
	}

	quote := byte('"')
	if len(decls) > 0 {
		quote = decls[0].Quote
	}
	decl := "import " + name + " from " + string(quote) + module + string(quote) + ";"
	if !isDefault {
		decl = "import { " + name + " } from " + string(quote) + module + string(quote) + ";"
	}

	if len(decls) > 0 {
		return insert(src, decls[len(decls)-1].Span.End, "\n"+decl), nil
	}
	if loc := directivePattern.FindStringIndex(src); loc != nil {
		return insert(src, loc[1], "\n\n"+decl), nil
	}
	return decl + "\n\n" + src, nil
}

func addNamed(src string, d *ImportDecl, name string) string {
	k := d.braceClose - 1
	for k > d.braceOpen && isSpace(src[k]) {
		k--
	}
	switch {
	case k == d.braceOpen:
		return src[:d.braceOpen+1] + " " + name + " " + src[d.braceClose:]
	case src[k] == ',':
		return insert(src, k+1, " "+name)
	default:
		return insert(src, k+1, ", "+name)
	}
}

func insert(src string, at int, text string) string {
	return src[:at] + text + src[at:]
}

// RemoveUnusedImports drops named import specifiers whose local name is in
// names and no longer appears in src outside the import declarations. A
// declaration left without bindings is removed with its line. It returns
// the new source and the names removed, in source order.
func RemoveUnusedImports(src string, names []string) (string, []string) {
	decls := Imports(src)
	if len(decls) == 0 || len(names) == 0 {
		return src, nil
	}

	body := []byte(src)
	for _, d := range decls {
		for i := d.Span.Start; i < d.Span.End; i++ {
			body[i] = ' '
		}
	}
	unused := make(map[string]bool)
	for _, name := range names {
		if !identUsed(string(body), name) {
			unused[name] = true
		}
	}
	if len(unused) == 0 {
		return src, nil
	}

	var removed []string
	var edits []Edit
	for _, d := range decls {
		if d.TypeOnly || d.braceOpen < 0 {
			continue
		}
		var kept []string
		for _, spec := range d.Named {
			if strings.HasPrefix(spec, "type ") || !unused[localName(spec)] {
				kept = append(kept, spec)
				continue
			}
			removed = append(removed, localName(spec))
		}
		if len(kept) == len(d.Named) {
			continue
		}
		switch {
		case len(kept) == 0 && d.Default == "":
			end := d.Span.End
			if end < len(src) && src[end] == '\n' {
				end++
			}
			edits = append(edits, Edit{Span: Span{Start: d.Span.Start, End: end}})
		case len(kept) == 0:
			edits = append(edits, Edit{Span: Span{Start: d.defaultEnd, End: d.braceClose + 1}})
		default:
			edits = append(edits, Edit{Span: Span{Start: d.braceOpen, End: d.braceClose + 1}, Text: namedClause(src[d.braceOpen:d.braceClose], kept)})
		}
	}
	if len(edits) == 0 {
		return src, nil
	}
	out, err := Apply(src, edits)
	if err != nil {
		return src, nil
	}
	return out, removed
}

// namedClause renders specifiers in braces, keeping the layout of the
// original clause when it spans several lines.
func namedClause(orig string, specs []string) string {
	nl := strings.IndexByte(orig, '\n')
	if nl < 0 {
		return "{ " + strings.Join(specs, ", ") + " }"
	}
	rest := orig[nl+1:]
	indent := rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
	var b strings.Builder
	b.WriteString("{\n")
	for _, spec := range specs {
		b.WriteString(indent + spec + ",\n")
	}
	b.WriteString("}")
	return b.String()
}

// identUsed reports whether name occurs in src as a whole identifier.
// Occurrences in strings and comments count, which only keeps an import
// that could have been removed.
func identUsed(src, name string) bool {
	for from := 0; ; {
		i := strings.Index(src[from:], name)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(name)
		if (i == 0 || !isIdentPart(src[i-1])) && (end == len(src) || !isIdentPart(src[end])) {
			return true
		}
		from = i + 1
	}
}
