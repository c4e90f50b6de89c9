package dataset

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Hello World", "hello world"},
		{"url removed", "read this http://example.com/a?b=1 now", "read this now"},
		{"html stripped", "<p>some <b>bold</b> text</p>", "some bold text"},
		{"punctuation kept for sentences", "First. Second! Third?", "first. second! third?"},
		{"symbols dropped", "price $100 @home #tag", "price 100 home tag"},
		{"whitespace collapsed", "a\t\tb\n\nc", "a b c"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.in); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	in := "Some <b>Raw</b> TEXT with http://u.rl and  spaces."
	once := CleanText(in)
	twice := CleanText(once)
	if once != twice {
		t.Errorf("clean not idempotent: %q vs %q", once, twice)
	}
}
