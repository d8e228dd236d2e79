package server

import (
	"sort"

	"github.com/gofiber/fiber/v2"
)

// RouteInfo describes one registered HTTP route.
type RouteInfo struct {
	Method string   `yaml:"method" json:"method"`
	Path   string   `yaml:"path" json:"path"`
	Params []string `yaml:"params,omitempty" json:"params,omitempty"`
}

// RouteTable returns the routes app serves, sorted by path then method.
// HEAD routes fiber adds for every GET are left out.
func RouteTable(app *fiber.App) []RouteInfo {
	var out []RouteInfo
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead {
			continue
		}
		out = append(out, RouteInfo{Method: r.Method, Path: r.Path, Params: r.Params})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
