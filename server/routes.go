package server

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invstream/component"
)

// systemPaths are registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{"/healthz": true, "/livez": true, "/readyz": true, "/info": true}

var methodRank = map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}

func rankMethod(m string) int {
	if r, ok := methodRank[m]; ok {
		return r
	}
	return len(methodRank)
}

// Routes lists API routes before system ones, each group by path then
// method. System handlers carry a " (system)" suffix.
func (s *Server) Routes() []component.Route {
	infos := s.engine.Routes()
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		sa, sb := systemPaths[a.Path], systemPaths[b.Path]
		if sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		return cmp.Or(strings.Compare(a.Path, b.Path), cmp.Compare(rankMethod(a.Method), rankMethod(b.Method)))
	})

	out := make([]component.Route, len(infos))
	for i, ri := range infos {
		h := formatHandlerName(ri.Handler)
		if systemPaths[ri.Path] {
			h += " (system)"
		}
		out[i] = component.Route{Method: ri.Method, Path: ri.Path, Handler: h}
	}
	return out
}

// formatHandlerName turns Gin's handler symbol into a short label:
//
//	"github.com/kbukum/invstream/simulator.(*API).publish-fm" -> "API.publish"
//	"github.com/kbukum/invstream/server/endpoint.Health.func1" -> "health"
func formatHandlerName(symbol string) string {
	name := strings.TrimSuffix(symbol, "-fm")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	// Closures are named after the nearest enclosing function.
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
		if !strings.HasPrefix(parts[len(parts)-1], "func") {
			return strings.ToLower(parts[len(parts)-1])
		}
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
