// Package endpoint works out the base URL used to reach the menu backend.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPort         = "3000"
	DefaultDiscoveryURL = "https://api.ipify.org?format=json"
	defaultHostname     = "localhost"
)

// PageContext describes how the caller itself was reached.
type PageContext struct {
	Protocol string
	Hostname string
}

// Options configure a Resolver.
type Options struct {
	ConfiguredURL string
	Port          string
	DiscoveryURL  string
	HTTPClient    *http.Client
	Logger        logrus.FieldLogger
}

// Resolver produces a normalized base URL without a trailing slash.
type Resolver struct {
	configured   string
	port         string
	discoveryURL string
	client       *http.Client
	logger       logrus.FieldLogger
}

func New(opts Options) *Resolver {
	port := strings.TrimSpace(opts.Port)
	if port == "" {
		port = DefaultPort
	}
	discovery := strings.TrimSpace(opts.DiscoveryURL)
	if discovery == "" {
		discovery = DefaultDiscoveryURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Resolver{
		configured:   strings.TrimSpace(opts.ConfiguredURL),
		port:         port,
		discoveryURL: discovery,
		client:       client,
		logger:       logger,
	}
}

// Resolve never fails: a configured URL wins, then the public IP reported
// by the discovery service, then the page hostname.
func (r *Resolver) Resolve(ctx context.Context, page PageContext) string {
	if r.configured != "" {
		return strings.TrimRight(r.configured, "/")
	}

	protocol := inferProtocol(page.Protocol)
	ip, err := r.discoverIP(ctx)
	if err != nil {
		hostname := strings.TrimSpace(page.Hostname)
		if hostname == "" {
			hostname = defaultHostname
		}
		r.logger.WithError(err).WithField("hostname", hostname).Warn("public ip discovery failed, falling back to page hostname")
		return join(protocol, hostname, r.port)
	}
	return join(protocol, ip, r.port)
}

// Configured reports whether an explicit base URL short-circuits discovery.
func (r *Resolver) Configured() bool {
	return r.configured != ""
}

type ipEcho struct {
	IP string `json:"ip"`
}

func (r *Resolver) discoverIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("build discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call discovery service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("discovery service status %d", resp.StatusCode)
	}

	var body ipEcho
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode discovery response: %w", err)
	}
	ip := net.ParseIP(strings.TrimSpace(body.IP))
	if ip == nil {
		return "", fmt.Errorf("discovery returned invalid ip %q", body.IP)
	}
	if ip.To4() == nil {
		return "[" + ip.String() + "]", nil
	}
	return ip.String(), nil
}

func inferProtocol(pageProtocol string) string {
	if strings.Contains(strings.ToLower(pageProtocol), "https") {
		return "https"
	}
	return "http"
}

func join(protocol, host, port string) string {
	return protocol + "://" + host + ":" + port
}

// PageContextFromRequest derives the page context from an incoming request,
// honouring reverse-proxy forwarding headers.
func PageContextFromRequest(req *http.Request) PageContext {
	protocol := "http"
	if req.TLS != nil {
		protocol = "https"
	}
	if fwd := req.Header.Get("X-Forwarded-Proto"); fwd != "" {
		protocol = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	host := req.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = req.Host
	}
	host = strings.TrimSpace(strings.Split(host, ",")[0])
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	return PageContext{Protocol: protocol, Hostname: host}
}
