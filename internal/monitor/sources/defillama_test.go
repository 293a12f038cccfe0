package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

func TestDefiLlamaFetchRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name":"Foo/Bar","chain":"Ethereum","tvl":10000,"listedAt":1700000000,"url":"https://foo.xyz","category":"Dexes"},
			{"name":"Nulls","chain":"Solana","tvl":null,"listedAt":null,"url":""},
			{"name":"Missing","chain":"Base"}
		]`))
	}))
	defer srv.Close()

	d := &DefiLlama{client: srv.Client(), baseURL: srv.URL}
	records, err := d.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("FetchRecords error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	want := monitor.RawRecord{Name: "Foo/Bar", Chain: "Ethereum", TVL: 10000, ListedAt: 1700000000, URL: "https://foo.xyz"}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}
	if records[1].TVL != 0 || records[1].ListedAt != 0 {
		t.Errorf("null fields = tvl %v listedAt %v, want zeros", records[1].TVL, records[1].ListedAt)
	}
	if records[2].Name != "Missing" || records[2].TVL != 0 {
		t.Errorf("records[2] = %+v", records[2])
	}
}

func TestDefiLlamaFetchRecordsErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := &DefiLlama{client: srv.Client(), baseURL: srv.URL}
			_, err := d.FetchRecords(context.Background())
			if !errors.Is(err, monitor.ErrFetch) {
				t.Errorf("err = %v, want ErrFetch", err)
			}
		})
	}
}

func TestDefiLlamaFetchRecordsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDefiLlama(url)
	_, err := d.FetchRecords(context.Background())
	if !errors.Is(err, monitor.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestNewDefiLlamaDefaultURL(t *testing.T) {
	d := NewDefiLlama("")
	if d.baseURL != llamaProtocolsAPI {
		t.Errorf("baseURL = %q, want %q", d.baseURL, llamaProtocolsAPI)
	}
	if d.Name() != "defillama" {
		t.Errorf("Name() = %q, want defillama", d.Name())
	}
}
