package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ldp-wms/tenant-core/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxy_StripsPrefixAndRoutesByLongestMatch(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	proxy := gateway.NewProxy([]gateway.Route{
		{Prefix: "/api", Upstream: upstreamURL, StripPrefix: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stock-levels", nil)
	rr := httptest.NewRecorder()
	proxy.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/stock-levels", gotPath)
}

func TestNewProxy_NoMatch_Returns404(t *testing.T) {
	upstreamURL, err := url.Parse("http://127.0.0.1:1")
	require.NoError(t, err)

	proxy := gateway.NewProxy([]gateway.Route{
		{Prefix: "/api", Upstream: upstreamURL, StripPrefix: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/unmatched", nil)
	rr := httptest.NewRecorder()
	proxy.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewProxy_PrefersLongestPrefix(t *testing.T) {
	var hitSpecific bool
	specific := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitSpecific = true
		w.WriteHeader(http.StatusOK)
	}))
	defer specific.Close()

	general := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("general upstream should not be hit when a more specific route matches")
	}))
	defer general.Close()

	specificURL, err := url.Parse(specific.URL)
	require.NoError(t, err)
	generalURL, err := url.Parse(general.URL)
	require.NoError(t, err)

	proxy := gateway.NewProxy([]gateway.Route{
		{Prefix: "/api", Upstream: generalURL, StripPrefix: true},
		{Prefix: "/api/stock-levels", Upstream: specificURL, StripPrefix: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stock-levels", nil)
	rr := httptest.NewRecorder()
	proxy.ServeHTTP(rr, req)

	assert.True(t, hitSpecific)
}
