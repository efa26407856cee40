package endpoint

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ConfiguredURLWins(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	r := New(Options{ConfiguredURL: " https://x.test/ ", DiscoveryURL: srv.URL})
	got := r.Resolve(context.Background(), PageContext{Protocol: "http:", Hostname: "menu.local"})

	assert.Equal(t, "https://x.test", got)
	assert.True(t, r.Configured())
	assert.Zero(t, atomic.LoadInt32(&calls), "configured url must skip discovery")
}

func TestResolve_ConfiguredURLStripsEveryTrailingSlash(t *testing.T) {
	r := New(Options{ConfiguredURL: "http://api.test:4000///"})
	assert.Equal(t, "http://api.test:4000", r.Resolve(context.Background(), PageContext{}))
}

func TestResolve_DiscoveredIP(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	r := New(Options{DiscoveryURL: srv.URL, HTTPClient: srv.Client()})

	assert.Equal(t, "https://203.0.113.7:3000", r.Resolve(context.Background(), PageContext{Protocol: "https:"}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolve_CustomPort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"198.51.100.1"}`))
	}))
	defer srv.Close()

	r := New(Options{DiscoveryURL: srv.URL, Port: "8081"})
	assert.Equal(t, "http://198.51.100.1:8081", r.Resolve(context.Background(), PageContext{Protocol: "http"}))
}

func TestResolve_DiscoveryFailureFallsBackToHostname(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := New(Options{DiscoveryURL: srv.URL})
	got := r.Resolve(context.Background(), PageContext{Protocol: "http:", Hostname: "menu.local"})

	assert.Equal(t, "http://menu.local:3000", got)
}

func TestResolve_MalformedResponseFallsBack(t *testing.T) {
	cases := map[string]string{
		"not json":   `<html>`,
		"missing ip": `{"address":"1.2.3.4"}`,
		"bad ip":     `{"ip":"not-an-ip"}`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			r := New(Options{DiscoveryURL: srv.URL})
			assert.Equal(t, "https://kiosk:3000", r.Resolve(context.Background(), PageContext{Protocol: "https:", Hostname: "kiosk"}))
		})
	}
}

func TestResolve_UnreachableDiscoveryUsesLocalhost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := New(Options{DiscoveryURL: url})
	assert.Equal(t, "http://localhost:3000", r.Resolve(context.Background(), PageContext{}))
}

func TestPageContextFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://menu.local:8080/menu", nil)
	pc := PageContextFromRequest(req)
	require.Equal(t, "http", pc.Protocol)
	require.Equal(t, "menu.local", pc.Hostname)

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", PageContextFromRequest(req).Protocol)

	req = httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("X-Forwarded-Proto", "https, http")
	req.Header.Set("X-Forwarded-Host", "cafe.example.com:443")
	pc = PageContextFromRequest(req)
	assert.Equal(t, PageContext{Protocol: "https", Hostname: "cafe.example.com"}, pc)
}
