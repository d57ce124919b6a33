package pagination

import "testing"

func TestFromStrings(t *testing.T) {
	tests := []struct {
		page, limit string
		want        Params
	}{
		{"", "", Params{Page: 1, Limit: 20}},
		{"3", "50", Params{Page: 3, Limit: 50}},
		{"-2", "abc", Params{Page: 1, Limit: 20}},
		{"1", "1000", Params{Page: 1, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		if got := FromStrings(tt.page, tt.limit); got != tt.want {
			t.Fatalf("FromStrings(%q, %q) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
		}
	}
	if off := (Params{Page: 3, Limit: 20}).Offset(); off != 40 {
		t.Fatalf("expected offset 40, got %d", off)
	}
}
