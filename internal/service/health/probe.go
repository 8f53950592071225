// Package health runs the periodic per-tenant site-health probes and serves
// their recorded outcomes.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Prober performs a single probe against one monitored site. The probe
// mechanics (TLS inspection, WHOIS, full uptime checks) live with the
// external monitoring provider; this interface only needs a reachable/not
// answer with a latency.
type Prober interface {
	Probe(ctx context.Context, monitorID string) (latency time.Duration, err error)
}

// HTTPProber probes a monitor by issuing a HEAD request to its URL. The
// monitor reference stored on the tenant is expected to be a URL for this
// default prober; real monitoring providers substitute their own Prober.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates an HTTPProber with the given timeout (0 means 10s).
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

// Probe issues a HEAD request and treats any 2xx/3xx response as up.
func (p *HTTPProber) Probe(ctx context.Context, monitorID string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, monitorID, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return latency, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return latency, nil
}
