package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

const llamaProtocolsAPI = "https://api.llama.fi/protocols"

// DefiLlama fetches the protocol list from the DefiLlama API.
type DefiLlama struct {
	client  *http.Client
	baseURL string
}

// NewDefiLlama returns a feed for url, falling back to the public endpoint when url is empty.
func NewDefiLlama(url string) *DefiLlama {
	if url == "" {
		url = llamaProtocolsAPI
	}
	return &DefiLlama{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: url,
	}
}

func (d *DefiLlama) Name() string { return "defillama" }

// llamaProtocol mirrors the fields of a /protocols entry the sentinel reads.
// Numbers are pointers because the API publishes null for unknown values.
type llamaProtocol struct {
	Name     string   `json:"name"`
	Chain    string   `json:"chain"`
	TVL      *float64 `json:"tvl"`
	ListedAt *float64 `json:"listedAt"`
	URL      string   `json:"url"`
}

func (p llamaProtocol) record() monitor.RawRecord {
	r := monitor.RawRecord{Name: p.Name, Chain: p.Chain, URL: p.URL}
	if p.TVL != nil {
		r.TVL = *p.TVL
	}
	if p.ListedAt != nil {
		r.ListedAt = int64(*p.ListedAt)
	}
	return r
}

// FetchRecords makes a single GET against the protocols endpoint.
func (d *DefiLlama) FetchRecords(ctx context.Context) ([]monitor.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", monitor.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: defillama API: %w", monitor.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: defillama API status: %d", monitor.ErrFetch, resp.StatusCode)
	}

	var protocols []llamaProtocol
	if err := json.NewDecoder(resp.Body).Decode(&protocols); err != nil {
		return nil, fmt.Errorf("%w: decode defillama: %w", monitor.ErrFetch, err)
	}

	records := make([]monitor.RawRecord, 0, len(protocols))
	for _, p := range protocols {
		records = append(records, p.record())
	}
	return records, nil
}
