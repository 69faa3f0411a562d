package normalize

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name, in, out string
	}{
		{"ascii lower", "We need this URGENTLY", "we need this urgently"},
		{"invalid bytes dropped", string([]byte{0xff, 'a', 's', 'a', 'p', 0x80}), "asap"},
		{"zero width removed", "bud\u200bget", "budget"},
		{"fullwidth", "ＢＵＤＧＥＴ", "budget"},
		{"ligature", "oﬃce", "office"},
		{"newlines collapse", "deadline\n\n next\tmonth ", "deadline next month"},
		{"control chars", "pain\x00points\x7f", "painpoints"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.out {
				t.Fatalf("Fold(%q) = %q, want %q", tt.in, got, tt.out)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"  Book   a\n demo  ", 50, "Book a demo"},
		{"Start your free trial today and save", 10, "Start your"},
		{"héllo wörld", 4, "héll"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.in, tt.n); got != tt.want {
			t.Fatalf("Excerpt(%q,%d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSanitize_FastPath(t *testing.T) {
	s := "clean\ttext\n"
	if got := Sanitize(s); got != s {
		t.Fatalf("clean input changed: %q", got)
	}
	if got := Sanitize("a\u0085b"); got != "ab" {
		t.Fatalf("C1 control kept: %q", got)
	}
}
