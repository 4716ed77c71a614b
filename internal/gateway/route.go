package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// Route is one entry of the gateway's declarative route table:
// requests whose path has Prefix are proxied to Upstream, with
// StripPrefix characters removed from the forwarded path.
type Route struct {
	Prefix      string
	Upstream    *url.URL
	StripPrefix bool
}

// NewProxy builds a single handler that dispatches to the first
// matching route, longest prefix first. The standard library's
// httputil.ReverseProxy is used directly — no pack dependency offers
// a director with materially different semantics for this use case.
func NewProxy(routes []Route) http.Handler {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	sortRoutesByPrefixLength(sorted)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, route := range sorted {
			if strings.HasPrefix(r.URL.Path, route.Prefix) {
				proxyTo(route, w, r)
				return
			}
		}
		http.NotFound(w, r)
	})
}

func proxyTo(route Route, w http.ResponseWriter, r *http.Request) {
	proxy := httputil.NewSingleHostReverseProxy(route.Upstream)
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		if route.StripPrefix {
			req.URL.Path = strings.TrimPrefix(req.URL.Path, route.Prefix)
			if !strings.HasPrefix(req.URL.Path, "/") {
				req.URL.Path = "/" + req.URL.Path
			}
		}
	}
	proxy.ServeHTTP(w, r)
}

func sortRoutesByPrefixLength(routes []Route) {
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && len(routes[j].Prefix) > len(routes[j-1].Prefix); j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
}
