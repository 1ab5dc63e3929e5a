package rails

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"namedeed/internal/registry/ports"
)

// HTTPOracle reads the native/stable rate from a JSON price feed. Every
// call hits the feed; staleness handling is the feed's problem, not ours.
type HTTPOracle struct {
	url    string
	client *http.Client
}

// NewHTTPOracle builds a feed client. A nil httpClient gets a default
// with a 5 second timeout.
func NewHTTPOracle(url string, httpClient *http.Client) *HTTPOracle {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPOracle{url: url, client: httpClient}
}

type feedResponse struct {
	Answer    string    `json:"answer"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (o *HTTPOracle) LatestRate(ctx context.Context) (ports.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return ports.Rate{}, fmt.Errorf("build oracle request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return ports.Rate{}, fmt.Errorf("fetch oracle rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Rate{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return ports.Rate{}, fmt.Errorf("decode oracle response: %w", err)
	}

	answer, ok := new(big.Int).SetString(feed.Answer, 10)
	if !ok {
		return ports.Rate{}, fmt.Errorf("oracle answer %q is not a base-10 integer", feed.Answer)
	}

	return ports.Rate{Answer: answer, UpdatedAt: feed.UpdatedAt}, nil
}
