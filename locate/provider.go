package locate

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/apex/log"
)

// DefaultTimeout bounds a position lookup. After it elapses the provider
// resolves to unavailable rather than hanging the pipeline.
const DefaultTimeout = 8 * time.Second

// HTTPProvider queries a position service over HTTP. The service is
// expected to answer with {"latitude": <num>, "longitude": <num>}.
type HTTPProvider struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		URL:     url,
		Timeout: DefaultTimeout,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

func (p *HTTPProvider) ResolveCurrentLocation(ctx context.Context) (Coordinate, bool) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		log.Warnf("Position lookup misconfigured: %v", err)
		return Coordinate{}, false
	}

	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("Position lookup failed, proceeding without location: %v", err)
		return Coordinate{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("Position service returned status %d, proceeding without location", resp.StatusCode)
		return Coordinate{}, false
	}

	var coord Coordinate
	if err := json.NewDecoder(resp.Body).Decode(&coord); err != nil {
		log.Warnf("Could not decode position response: %v", err)
		return Coordinate{}, false
	}
	return coord, true
}
