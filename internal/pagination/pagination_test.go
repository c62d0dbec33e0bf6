package pagination

import "testing"

func TestPageRequestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"zero values", PageRequest{}, 1, DefaultPageSize, 0},
		{"explicit page", PageRequest{Page: 3, PageSize: 10}, 3, 10, 20},
		{"negative page", PageRequest{Page: -2, PageSize: 5}, 1, 5, 0},
		{"oversized page", PageRequest{Page: 2, PageSize: 500}, 2, MaxPageSize, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, req.Page)
			}
			if req.PageSize != tt.wantPageSize {
				t.Errorf("expected page size %d, got %d", tt.wantPageSize, req.PageSize)
			}
			if req.Offset() != tt.wantOffset {
				t.Errorf("expected offset %d, got %d", tt.wantOffset, req.Offset())
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("computes total pages", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, 1, 2, 5)
		if resp.TotalPages != 3 {
			t.Errorf("expected 3 total pages, got %d", resp.TotalPages)
		}
	})

	t.Run("nil data becomes empty slice", func(t *testing.T) {
		resp := NewPageResponse[string](nil, 1, 20, 0)
		if resp.Data == nil {
			t.Fatal("expected non-nil data slice")
		}
		if resp.TotalPages != 0 {
			t.Errorf("expected 0 total pages, got %d", resp.TotalPages)
		}
	})
}
