package pagination

import (
	"net/url"
	"testing"

	"github.com/agentplane/agentplane/pkg/query"
)

func testConfig() Config {
	return Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		req      PageRequest
		expected PageRequest
	}{
		{"zero values", PageRequest{}, PageRequest{Page: 1, PageSize: 20}},
		{"negative page", PageRequest{Page: -3, PageSize: 10}, PageRequest{Page: 1, PageSize: 10}},
		{"oversized page size", PageRequest{Page: 2, PageSize: 500}, PageRequest{Page: 2, PageSize: 100}},
		{"valid values untouched", PageRequest{Page: 4, PageSize: 50}, PageRequest{Page: 4, PageSize: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(testConfig())
			if tt.req.Page != tt.expected.Page || tt.req.PageSize != tt.expected.PageSize {
				t.Errorf("normalized to page=%d size=%d, expected page=%d size=%d",
					tt.req.Page, tt.req.PageSize, tt.expected.Page, tt.expected.PageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := PageRequest{Page: 3, PageSize: 25}
	if got := req.Offset(); got != 50 {
		t.Errorf("Offset() = %d, expected 50", got)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "2")
	values.Set("page_size", "30")
	values.Set("search", "demo")
	values.Set("sort", "-created_at,name")

	req := PageRequestFromQuery(values, testConfig())

	if req.Page != 2 || req.PageSize != 30 {
		t.Errorf("page=%d size=%d, expected page=2 size=30", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "demo" {
		t.Errorf("search = %v, expected demo", req.Search)
	}
	expected := []query.SortField{
		{Field: "created_at", Descending: true},
		{Field: "name"},
	}
	if len(req.Sort) != len(expected) {
		t.Fatalf("sort = %v, expected %v", req.Sort, expected)
	}
	for i := range expected {
		if req.Sort[i] != expected[i] {
			t.Errorf("sort[%d] = %v, expected %v", i, req.Sort[i], expected[i])
		}
	}
}

func TestPageRequestFromQueryDefaults(t *testing.T) {
	req := PageRequestFromQuery(url.Values{}, testConfig())

	if req.Page != 1 || req.PageSize != 20 {
		t.Errorf("page=%d size=%d, expected normalized defaults", req.Page, req.PageSize)
	}
	if req.Search != nil {
		t.Errorf("search = %v, expected nil", req.Search)
	}
	if req.Sort != nil {
		t.Errorf("sort = %v, expected nil", req.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		pageSize   int
		totalPages int
	}{
		{"exact division", 100, 20, 5},
		{"partial last page", 101, 20, 6},
		{"empty result", 0, 20, 1},
		{"single record", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewPageResult([]string{}, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.totalPages {
				t.Errorf("TotalPages = %d, expected %d", result.TotalPages, tt.totalPages)
			}
		})
	}
}

func TestNewPageResultNilData(t *testing.T) {
	result := NewPageResult[string](nil, 0, 1, 20)
	if result.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
	if len(result.Data) != 0 {
		t.Errorf("Data = %v, expected empty", result.Data)
	}
}

func TestConfigFinalize(t *testing.T) {
	var cfg Config
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
		t.Errorf("defaults = %d/%d, expected 20/100", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
}

func TestConfigFinalizeInvalid(t *testing.T) {
	cfg := Config{DefaultPageSize: 200, MaxPageSize: 100}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error when default exceeds max")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := Config{DefaultPageSize: 20, MaxPageSize: 100}
	cfg.Merge(&Config{MaxPageSize: 250})

	if cfg.DefaultPageSize != 20 {
		t.Errorf("DefaultPageSize = %d, expected 20 (unchanged)", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 250 {
		t.Errorf("MaxPageSize = %d, expected 250", cfg.MaxPageSize)
	}
}
