package models

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int64
		pageSize   int64
		total      int64
		totalPages int64
		hasNext    bool
		hasPrev    bool
	}{
		{"first of many", 1, 20, 95, 5, true, false},
		{"middle page", 3, 20, 95, 5, true, true},
		{"last page", 5, 20, 95, 5, false, true},
		{"exact fit", 2, 10, 20, 2, false, true},
		{"empty set", 1, 20, 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.pageSize, tt.total)
			if p.TotalPages != tt.totalPages {
				t.Errorf("total_pages = %d, want %d", p.TotalPages, tt.totalPages)
			}
			if p.HasNext != tt.hasNext || p.HasPrev != tt.hasPrev {
				t.Errorf("has_next=%v has_prev=%v, want %v %v", p.HasNext, p.HasPrev, tt.hasNext, tt.hasPrev)
			}
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name         string
		page         int64
		pageSize     int64
		wantPage     int64
		wantPageSize int64
	}{
		{"defaults applied", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"over cap", 2, 500, 2, 100},
		{"in range", 4, 50, 4, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize := ClampPage(tt.page, tt.pageSize, 20, 100)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Errorf("got (%d, %d), want (%d, %d)", page, pageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}
