// Package webhook lets scripts handle requests that arrive under /hooks.
package webhook

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Handler is a script callback bound to a method and path pattern
type Handler struct {
	Method string // "*" matches any method
	Path   string
	Fn     *lua.LFunction
}

// MatchResult contains a matched handler and extracted path parameters
type MatchResult struct {
	Handler    *Handler
	PathParams map[string]string
}

// MatchPath matches a path pattern against an actual path.
// Pattern: "/hooks/light/{name}/toggle"
// Path: "/hooks/light/bedroom/toggle"
// Returns extracted params {"name": "bedroom"} and true if matched.
func MatchPath(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, patternPart := range patternParts {
		pathPart := pathParts[i]

		if len(patternPart) > 2 && patternPart[0] == '{' && patternPart[len(patternPart)-1] == '}' {
			params[patternPart[1:len(patternPart)-1]] = pathPart
		} else if patternPart != pathPart {
			return nil, false
		}
	}

	return params, true
}
