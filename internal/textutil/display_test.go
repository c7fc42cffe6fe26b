package textutil

import "testing"

func TestOneLine(t *testing.T) {
	got := OneLine("  first line\nsecond\r\nthird\r ")
	if got != "first line second third" {
		t.Fatalf("OneLine = %q", got)
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if w := DisplayWidth("abc"); w != 3 {
		t.Fatalf("ascii width = %d", w)
	}
	if w := DisplayWidth("视频号"); w != 6 {
		t.Fatalf("cjk width = %d", w)
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 60, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"视频号每日更新", 9, "视频号..."},
		{"视频号每日更新", 8, "视频..."},
		{"abcdef", 2, ".."},
		{"abc", 0, ""},
	}
	for _, tc := range tests {
		if got := TruncateWidth(tc.in, tc.limit); got != tc.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(" 14/12:34? "); got != "14-12-34" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
	if got := SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
	if got := SanitizeFileName("../export\x01id"); got != "-exportid" {
		t.Fatalf("traversal not neutralised: %q", got)
	}
}
