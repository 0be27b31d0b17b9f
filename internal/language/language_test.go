package language

import "testing"

func TestLookup(t *testing.T) {
	lang, ok := Lookup("ar")
	if !ok {
		t.Fatal("expected 'ar' to be supported")
	}
	if lang.Name != "Arabic" {
		t.Errorf("expected name 'Arabic', got %q", lang.Name)
	}

	if _, ok := Lookup("zz"); ok {
		t.Error("expected 'zz' to be unsupported")
	}
}

func TestName_FallsBackToCode(t *testing.T) {
	if got := Name("nl"); got != "Dutch" {
		t.Errorf("expected 'Dutch', got %q", got)
	}
	if got := Name("zz"); got != "zz" {
		t.Errorf("expected fallback to code, got %q", got)
	}
}

func TestCodes_SortedAndNonEmpty(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("expected at least one supported language")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at index %d: %s >= %s", i, codes[i-1], codes[i])
		}
	}
}
