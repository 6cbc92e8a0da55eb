package paging

import (
	"errors"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		page     int
		size     int
		wantData []int
		wantPrev *int
		wantNext *int
	}{
		{"first page", 0, 2, []int{1, 2}, nil, intPtr(1)},
		{"middle page", 1, 2, []int{3, 4}, intPtr(0), intPtr(2)},
		{"last partial page", 2, 2, []int{5}, intPtr(1), nil},
		{"past the end", 3, 2, []int{}, nil, nil},
		{"negative page", -1, 2, []int{1, 2}, nil, intPtr(1)},
		{"single page", 0, 10, []int{1, 2, 3, 4, 5}, nil, nil},
		{"exact fit", 0, 5, []int{1, 2, 3, 4, 5}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Slice(items, tt.page, tt.size)
			if err != nil {
				t.Fatalf("Slice failed: %v", err)
			}
			if len(page.Data) != len(tt.wantData) {
				t.Fatalf("expected %v, got %v", tt.wantData, page.Data)
			}
			for i := range tt.wantData {
				if page.Data[i] != tt.wantData[i] {
					t.Errorf("expected %v, got %v", tt.wantData, page.Data)
					break
				}
			}
			if !sameKey(page.PrevKey, tt.wantPrev) {
				t.Errorf("expected prev %v, got %v", deref(tt.wantPrev), deref(page.PrevKey))
			}
			if !sameKey(page.NextKey, tt.wantNext) {
				t.Errorf("expected next %v, got %v", deref(tt.wantNext), deref(page.NextKey))
			}
			if page.Total != len(items) {
				t.Errorf("expected total %d, got %d", len(items), page.Total)
			}
		})
	}
}

func TestSlice_InvalidPageSize(t *testing.T) {
	_, err := Slice([]int{1}, 0, 0)
	if !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("expected ErrInvalidPageSize, got %v", err)
	}
}

func TestSlice_Empty(t *testing.T) {
	page, err := Slice([]string(nil), 0, 20)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if page.Data == nil || len(page.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", page.Data)
	}
	if page.PrevKey != nil || page.NextKey != nil {
		t.Error("expected no keys on an empty list")
	}
}

func TestRefreshKey(t *testing.T) {
	if RefreshKey(nil, 20) != nil {
		t.Error("expected nil key without anchor")
	}
	if got := RefreshKey(intPtr(0), 20); got == nil || *got != 0 {
		t.Errorf("expected key 0, got %v", deref(got))
	}
	if got := RefreshKey(intPtr(45), 20); got == nil || *got != 2 {
		t.Errorf("expected key 2, got %v", deref(got))
	}
	if got := RefreshKey(intPtr(-3), 20); got == nil || *got != 0 {
		t.Errorf("expected key 0 for negative anchor, got %v", deref(got))
	}
	if RefreshKey(intPtr(5), 0) != nil {
		t.Error("expected nil key for invalid page size")
	}
}

func sameKey(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
