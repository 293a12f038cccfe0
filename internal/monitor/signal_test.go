package monitor

import (
	"testing"
	"time"
)

func TestFormatTVL(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0"},
		{999.4, "999"},
		{1000, "1000"},
		{1000.5, "1.0K"},
		{10000, "10.0K"},
		{123456, "123.5K"},
		{1000000, "1000.0K"},
		{1500000, "1.5M"},
		{123456789, "123.5M"},
	}
	for _, tt := range tests {
		if got := FormatTVL(tt.input); got != tt.want {
			t.Errorf("FormatTVL(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSignalID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Uniswap", "Uniswap"},
		{"Foo/Bar", "Foo-Bar"},
		{"a/b/c", "a-b-c"},
		{"Foo-Bar", "Foo-Bar"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SignalID(tt.name); got != tt.want {
			t.Errorf("SignalID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNewSignal(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	r := RawRecord{Name: "Foo/Bar", Chain: "ETH", TVL: 10000, ListedAt: now.Unix() - 86400, URL: "https://x"}

	got := NewSignal(r, now)
	want := Signal{
		ID:          "Foo-Bar",
		Tag:         "PROTO",
		Source:      "DEFILLAMA",
		Title:       "Foo/Bar",
		Description: "Chain: ETH • TVL: $10.0K",
		Link:        "https://x",
		Timestamp:   1_700_000_000_123,
		Query:       "Foo/Bar",
	}
	if got != want {
		t.Errorf("NewSignal = %+v, want %+v", got, want)
	}
}
