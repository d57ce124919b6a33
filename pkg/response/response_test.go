package response

import "testing"

func TestListComputesTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		page := List(200, []int{}, tt.total, 1, tt.limit).Data.(Page)
		if page.TotalPages != tt.want {
			t.Fatalf("total=%d limit=%d: expected %d pages, got %d", tt.total, tt.limit, tt.want, page.TotalPages)
		}
	}
}
