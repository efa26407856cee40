// Package backend talks to the external menu REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 64 << 10

// Credentials is the explicit session context attached to admin calls.
type Credentials struct {
	Token string
}

func (c Credentials) apply(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// Client is a thin JSON-over-HTTP client bound to a resolved base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logrus.FieldLogger
}

// New builds a Client. baseURL is expected without a trailing slash.
func New(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// BaseURL returns the base URL every request is built from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path string, cred *Credentials, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, cred, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, cred *Credentials, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if cred != nil {
		cred.apply(req)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).Warn("backend request failed")
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":  req.Method,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
