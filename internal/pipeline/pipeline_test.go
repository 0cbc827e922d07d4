// internal/pipeline/pipeline_test.go
package pipeline

import (
	"reflect"
	"testing"
)

func TestFirstReturnsFirstHit(t *testing.T) {
	calls := 0
	miss := func() (string, bool) { calls++; return "", false }
	hit := func() (string, bool) { calls++; return "value", true }
	never := func() (string, bool) { t.Fatal("attempt after a hit must not run"); return "", false }

	v, ok := First(miss, hit, never)
	if !ok || v != "value" {
		t.Fatalf("First = %q, %v; want \"value\", true", v, ok)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts invoked, got %d", calls)
	}
}

func TestFirstAllMiss(t *testing.T) {
	miss := func() (int, bool) { return 0, false }
	v, ok := First(miss, nil, miss)
	if ok || v != 0 {
		t.Fatalf("First = %d, %v; want 0, false", v, ok)
	}
}

func TestFirstNonEmptySkipsBlank(t *testing.T) {
	blank := func() (string, bool) { return "   \n", true }
	hit := func() (string, bool) { return "  Studio  Name ", true }

	v, ok := FirstNonEmpty(blank, hit)
	if !ok || v != "Studio Name" {
		t.Fatalf("FirstNonEmpty = %q, %v; want \"Studio Name\", true", v, ok)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world ", "hello world"},
		{"\t\nline\nbreaks\t", "line breaks"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := `<p>A <b>great</b> trailer</p>`
	if got := StripHTML(in); got != "A great trailer" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("Drama, Romance , drama,,Action", ",")
	want := []string{"Drama", "Romance", "Action"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
}

func TestDedup(t *testing.T) {
	got := Dedup([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedup = %v, want %v", got, want)
	}
}
