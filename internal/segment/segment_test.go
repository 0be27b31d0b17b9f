package segment

import (
	"reflect"
	"testing"
)

func TestExtract_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		sentences, remainder := Extract(input)
		if len(sentences) != 0 {
			t.Errorf("Extract(%q): expected no sentences, got %v", input, sentences)
		}
		if remainder != "" {
			t.Errorf("Extract(%q): expected empty remainder, got %q", input, remainder)
		}
	}
}

func TestExtract_CompletionSignal(t *testing.T) {
	for _, input := range []string{".", "!", "?", "؟", " . ", "  ؟  "} {
		sentences, remainder := Extract(input)
		if len(sentences) != 1 || sentences[0] != CompletionSignal {
			t.Errorf("Extract(%q): expected completion signal, got %v", input, sentences)
		}
		if remainder != "" {
			t.Errorf("Extract(%q): expected empty remainder, got %q", input, remainder)
		}
	}
}

func TestExtract_NoPunctuation(t *testing.T) {
	sentences, remainder := Extract("  hello   world  ")
	if len(sentences) != 0 {
		t.Errorf("expected no sentences, got %v", sentences)
	}
	if remainder != "hello world" {
		t.Errorf("expected remainder 'hello world', got %q", remainder)
	}
}

func TestExtract_SingleSentence(t *testing.T) {
	sentences, remainder := Extract("hello world.")
	if !reflect.DeepEqual(sentences, []string{"hello world."}) {
		t.Errorf("unexpected sentences: %v", sentences)
	}
	if remainder != "" {
		t.Errorf("expected empty remainder, got %q", remainder)
	}
}

func TestExtract_MultipleSentencesWithRemainder(t *testing.T) {
	sentences, remainder := Extract("First one. Second one! Trailing bit")
	want := []string{"First one.", "Second one!"}
	if !reflect.DeepEqual(sentences, want) {
		t.Errorf("expected %v, got %v", want, sentences)
	}
	if remainder != "Trailing bit" {
		t.Errorf("expected remainder 'Trailing bit', got %q", remainder)
	}
}

func TestExtract_ArabicMixedPunctuation(t *testing.T) {
	sentences, remainder := Extract("السلام عليكم. كيف حالكم؟")
	want := []string{"السلام عليكم.", "كيف حالكم؟"}
	if !reflect.DeepEqual(sentences, want) {
		t.Errorf("expected %v, got %v", want, sentences)
	}
	if remainder != "" {
		t.Errorf("expected empty remainder, got %q", remainder)
	}
}

func TestExtract_ConsecutivePunctuation(t *testing.T) {
	// Runs of terminators after a sentence contribute nothing new: there is
	// no text between them to complete.
	sentences, remainder := Extract("Wait... what?")
	want := []string{"Wait.", "what?"}
	if !reflect.DeepEqual(sentences, want) {
		t.Errorf("expected %v, got %v", want, sentences)
	}
	if remainder != "" {
		t.Errorf("expected empty remainder, got %q", remainder)
	}
}

func TestExtract_NormalisesInternalWhitespace(t *testing.T) {
	sentences, _ := Extract("hello    there   friend.")
	if len(sentences) != 1 || sentences[0] != "hello there friend." {
		t.Errorf("expected normalised sentence, got %v", sentences)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	inputs := []string{
		"مرحبا بكم.",
		"a. b! c? d",
		"؟",
		"no punctuation here",
	}
	for _, input := range inputs {
		s1, r1 := Extract(input)
		s2, r2 := Extract(input)
		if !reflect.DeepEqual(s1, s2) || r1 != r2 {
			t.Errorf("Extract(%q) not deterministic: (%v,%q) vs (%v,%q)", input, s1, r1, s2, r2)
		}
	}
}

func TestExtract_RoundTrip(t *testing.T) {
	// k well-formed sentences, no trailing fragment -> exactly k out, in order.
	sentences, remainder := Extract("One. Two! Three? Four؟")
	want := []string{"One.", "Two!", "Three?", "Four؟"}
	if !reflect.DeepEqual(sentences, want) {
		t.Errorf("expected %v, got %v", want, sentences)
	}
	if remainder != "" {
		t.Errorf("expected empty remainder, got %q", remainder)
	}
}

func TestEndsSentence(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hello.", true},
		{"hello؟ ", true},
		{"hello", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := EndsSentence(tt.text); got != tt.want {
			t.Errorf("EndsSentence(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  a \t b\n c  "); got != "a b c" {
		t.Errorf("Clean: got %q", got)
	}
}
