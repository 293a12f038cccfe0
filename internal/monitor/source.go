package monitor

import (
	"context"
	"errors"
)

// ErrFetch marks a feed failure: transport, non-2xx status or an undecodable body.
var ErrFetch = errors.New("feed fetch failed")

// Feed defines the interface a protocol-listing source must implement.
// A call makes exactly one attempt; retrying is left to the next scan.
type Feed interface {
	// Name returns a unique identifier for this feed (e.g., "defillama").
	Name() string

	// FetchRecords fetches the current list of protocol records.
	FetchRecords(ctx context.Context) ([]RawRecord, error)
}

// RawRecord is one protocol entry as published by the feed.
type RawRecord struct {
	Name     string  `json:"name"`
	Chain    string  `json:"chain"`
	TVL      float64 `json:"tvl"`
	ListedAt int64   `json:"listedAt"`
	URL      string  `json:"url"`
}
