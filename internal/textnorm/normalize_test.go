package textnorm

import "testing"

func TestNormalizeForMatch_FoldsCaseAndYo(t *testing.T) {
	got := NormalizeForMatch("Критерии включЁния")
	want := "критерии включения"
	if got != want {
		t.Errorf("NormalizeForMatch = %q, want %q", got, want)
	}
}

func TestNormalizeForMatch_FoldsDashesAndQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`«Цели» — задачи`, "цели задачи"},
		{"double-blind — placebo–controlled", "double blind placebo controlled"},
		{`"Informed Consent"`, "informed consent"},
		{"‘single’ and „low” quotes", "single and low quotes"},
	}
	for _, tc := range cases {
		if got := NormalizeForMatch(tc.in); got != tc.want {
			t.Errorf("NormalizeForMatch(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeForMatch_CollapsesWhitespace(t *testing.T) {
	got := NormalizeForMatch("  Study \t Objectives \n and  Endpoints  ")
	want := "study objectives and endpoints"
	if got != want {
		t.Errorf("NormalizeForMatch = %q, want %q", got, want)
	}
}

func TestNormalizeForMatch_FoldsLatinDiacriticsOnly(t *testing.T) {
	if got := NormalizeForMatch("Café protocol"); got != "cafe protocol" {
		t.Errorf("expected latin diacritic fold, got %q", got)
	}
	// Cyrillic й must survive: its combining breve is not a diacritic to fold
	if got := NormalizeForMatch("Дизайн исследования"); got != "дизайн исследования" {
		t.Errorf("expected й preserved, got %q", got)
	}
}

func TestNormalizeForRegex_PreservesPunctuation(t *testing.T) {
	got := NormalizeForRegex("Раздел 3.1: Цели (и задачи)")
	want := "раздел 3.1: цели (и задачи)"
	if got != want {
		t.Errorf("NormalizeForRegex = %q, want %q", got, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Цели исследования",
		`«Критерии — включения»`,
		"  Mixed   CASE\twith\ndashes–and„quotes”  ",
		"Café naïve façade",
		"ЁлЁ и ещё",
	}
	for _, in := range inputs {
		once := NormalizeForMatch(in)
		if twice := NormalizeForMatch(once); twice != once {
			t.Errorf("NormalizeForMatch not idempotent for %q: %q != %q", in, once, twice)
		}
		once = NormalizeForRegex(in)
		if twice := NormalizeForRegex(once); twice != once {
			t.Errorf("NormalizeForRegex not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if NormalizeForMatch("") != "" {
		t.Error("NormalizeForMatch(\"\") should be empty")
	}
	if NormalizeForRegex("") != "" {
		t.Error("NormalizeForRegex(\"\") should be empty")
	}
}
