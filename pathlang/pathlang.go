// Package pathlang tokenizes the protobuf path mini-language used by
// protobuf_extract and the proto-table column specs:
//
//	path := "$" step*
//	step := "." ident ("[" int "]")?
//	ident := [^.\[]+
//	int   := -?[0-9]+
//
// A bare "$" is a legal path denoting the root message itself. The parser
// consumes the entire input or fails; there is no partial-parse result.
package pathlang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/protosql"
)

// Step is one segment of a parsed path: a field name, and, if the field is
// repeated, a signed index into it.
type Step struct {
	Name     string
	Index    int
	HasIndex bool
}

// Indexed reports whether the step carries an explicit "[i]" suffix.
func (s Step) Indexed() bool { return s.HasIndex }

// String renders the step back to its source form, e.g. ".phones[-1]".
func (s Step) String() string {
	if s.HasIndex {
		return fmt.Sprintf(".%s[%d]", s.Name, s.Index)
	}
	return "." + s.Name
}

// Path is a parsed path: an ordered list of steps after the leading "$".
// A Path with zero Steps denotes the root message.
type Path struct {
	Steps []Step
	raw   string
}

// String returns the original path text.
func (p Path) String() string { return p.raw }

// IsRoot reports whether the path is the bare "$" root selector.
func (p Path) IsRoot() bool { return len(p.Steps) == 0 }

// Parse tokenizes path into a Path, or returns protosql.ErrInvalidPath
// (wrapped in a *protosql.PathError) if it does not match the grammar.
func Parse(path string) (Path, error) {
	if !strings.HasPrefix(path, "$") {
		return Path{}, protosql.NewPathError(path, protosql.ErrInvalidPath)
	}
	rest := path[1:]
	var steps []Step
	for len(rest) > 0 {
		if rest[0] != '.' {
			return Path{}, protosql.NewPathError(path, protosql.ErrInvalidPath)
		}
		rest = rest[1:]

		end := strings.IndexAny(rest, ".[")
		var name string
		switch end {
		case -1:
			name = rest
			rest = ""
		default:
			name = rest[:end]
			rest = rest[end:]
		}
		if name == "" {
			return Path{}, protosql.NewPathError(path, protosql.ErrInvalidPath)
		}

		step := Step{Name: name}
		if len(rest) > 0 && rest[0] == '[' {
			closeIdx := strings.IndexByte(rest, ']')
			if closeIdx < 0 {
				return Path{}, protosql.NewPathError(path, protosql.ErrInvalidPath)
			}
			idxText := rest[1:closeIdx]
			idx, err := strconv.Atoi(idxText)
			if err != nil || idxText == "" || idxText[0] == '+' {
				return Path{}, protosql.NewPathError(path, protosql.ErrInvalidPath)
			}
			step.Index = idx
			step.HasIndex = true
			rest = rest[closeIdx+1:]
		}
		steps = append(steps, step)
	}
	return Path{Steps: steps, raw: path}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time-known constant paths.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}
