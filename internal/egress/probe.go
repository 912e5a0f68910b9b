package egress

import (
	"context"
	"net/http"
	"strings"
	"time"

	"naasprov/internal/ports"
	"naasprov/internal/transport"
	"naasprov/internal/types"
)

const opProbe = "egress_probe"

// HTTPProbe asks an echo service which address the request came from. The service must answer with the
// bare address as its body.
type HTTPProbe struct {
	client *transport.Client
	url    string
}

func NewHTTPProbe(url string, doer transport.HTTPDoer, timeout time.Duration) *HTTPProbe {
	c := transport.NewClient("", doer, timeout)
	c.DefaultHeaders["Accept"] = "text/plain"
	return &HTTPProbe{client: c, url: strings.TrimSpace(url)}
}

func (p *HTTPProbe) EgressAddress(ctx context.Context) (string, error) {
	if p.url == "" {
		return "", types.Err(types.ErrConfig, nil, "%s is not set", types.KeyEgressProbeURL)
	}
	res, err := p.client.Do(ctx, transport.Request{Op: opProbe, Method: http.MethodGet, Path: p.url})
	if err != nil {
		return "", err
	}
	if err := res.StatusError(opProbe); err != nil {
		return "", err
	}
	addr := strings.TrimSpace(string(res.Body))
	if addr == "" {
		return "", types.NewUpstreamError(opProbe, res.StatusCode, nil, types.ErrNotFound)
	}
	return addr, nil
}

// Static reports a fixed address, e.g. one supplied on the command line.
type Static string

func (s Static) EgressAddress(context.Context) (string, error) {
	addr := strings.TrimSpace(string(s))
	if addr == "" {
		return "", types.Err(types.ErrConfig, nil, "empty egress address")
	}
	return addr, nil
}

var (
	_ ports.EgressProbe = (*HTTPProbe)(nil)
	_ ports.EgressProbe = Static("")
)
