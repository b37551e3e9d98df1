package textutil

import "testing"

func TestSaltSetNormalizeStripsWholeWords(t *testing.T) {
	set, err := NewSaltSet([]string{"Sodium", "Hydrochloride"})
	if err != nil {
		t.Fatalf("NewSaltSet: %v", err)
	}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trailing salt", "Amoxicillin Sodium", "Amoxicillin"},
		{"case insensitive", "Amoxicillin SODIUM", "Amoxicillin"},
		{"embedded word untouched", "Sodiumchloride Complex", "Sodiumchloride Complex"},
		{"multiple salts", "Metformin Hydrochloride Sodium", "Metformin"},
		{"interior salt collapses spacing", "Ranitidine Hydrochloride Tablets", "Ranitidine Tablets"},
		{"no salts", "Paracetamol", "Paracetamol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := set.Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewSaltSetSkipsEmptyEntries(t *testing.T) {
	set, err := NewSaltSet([]string{"", "  ", "Maleate"})
	if err != nil {
		t.Fatalf("NewSaltSet: %v", err)
	}
	if got := set.Normalize("Enalapril Maleate"); got != "Enalapril" {
		t.Fatalf("Normalize = %q, want Enalapril", got)
	}
}

func TestFoldLines(t *testing.T) {
	if got := FoldLines("Line one\nLine two\r\nLine three"); got != "Line one Line two Line three" {
		t.Fatalf("FoldLines = %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  a   b\t c "); got != "a b c" {
		t.Fatalf("CollapseSpaces = %q", got)
	}
}
