package callgraph

import "strings"

// Name is the result of transforming a raw profiler function name.
type Name struct {
	Identity string // key used to merge nodes
	Label    string // text shown in the diagram
}

// Namer applies the name rules of one build and memoizes the results.
type Namer struct {
	stripParams    bool
	hideParams     bool
	hideNamespaces bool
	cache          map[string]Name
}

// NewNamer creates a namer for the name flags of cfg.
func NewNamer(cfg StyleConfig) *Namer {
	return &Namer{
		stripParams:    cfg.StripParams,
		hideParams:     cfg.HideParams,
		hideNamespaces: cfg.HideNamespaces,
		cache:          make(map[string]Name),
	}
}

// Resolve maps a raw function name to its identity and label.
func (n *Namer) Resolve(raw string) Name {
	if name, ok := n.cache[raw]; ok {
		return name
	}

	base, params := splitParams(raw)

	identity := raw
	if n.stripParams {
		identity = base
	}

	label := base
	if n.hideNamespaces {
		label = stripNamespace(base)
	}
	if !n.stripParams && !n.hideParams {
		label += params
	}

	name := Name{Identity: identity, Label: label}
	n.cache[raw] = name
	return name
}

// splitParams splits "ns::f(int, char*) const" into "ns::f" and
// "(int, char*) const". Names without a trailing parameter list are returned
// unchanged with empty params.
func splitParams(name string) (base, params string) {
	end := strings.LastIndexByte(name, ')')
	if end < 0 || !onlyQualifiers(name[end+1:]) {
		return name, ""
	}

	depth := 0
	for i := end; i >= 0; i-- {
		switch name[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				base = strings.TrimRight(name[:i], " ")
				if base == "" || strings.HasSuffix(base, "operator") {
					return name, ""
				}
				return base, name[i:]
			}
		}
	}
	return name, ""
}

func onlyQualifiers(s string) bool {
	for _, f := range strings.Fields(s) {
		switch f {
		case "const", "volatile", "&", "&&", "noexcept":
		default:
			return false
		}
	}
	return true
}

// stripNamespace drops everything up to the last top-level "::", leaving
// template arguments and operator symbols alone.
func stripNamespace(base string) string {
	limit := len(base)
	if i := strings.LastIndex(base, "operator"); i >= 0 {
		limit = i
	}

	depth := 0
	cut := -1
	for i := 0; i < limit; i++ {
		switch base[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < limit && base[i+1] == ':' {
				cut = i + 2
				i++
			}
		}
	}
	if cut < 0 {
		return base
	}
	return base[cut:]
}
