// Package segment extracts complete sentences from incrementally accumulated
// transcript text. It understands Latin terminators and the Arabic question
// mark, and recognises a bare terminator fragment as a completion signal for
// providers that emit punctuation as its own final-transcript event.
package segment

import "strings"

// CompletionSignal is returned as the sole element of the sentence list when
// the input consists of nothing but a single sentence terminator. It tells the
// caller to close whatever it has accumulated; the fragment itself carries no
// words.
const CompletionSignal = "\x00PUNCTUATION_COMPLETE"

// sentence-ending runes: Latin period/bang/question plus Arabic question mark
var terminators = map[rune]bool{
	'.': true,
	'!': true,
	'?': true,
	'؟': true,
}

// IsTerminator reports whether r ends a sentence.
func IsTerminator(r rune) bool {
	return terminators[r]
}

// Extract splits text into complete sentences and a trailing incomplete
// remainder. Sentences appear in input order with their terminator attached
// and internal whitespace collapsed to single spaces. Extract is pure: the
// same input always produces the same output.
//
// A trimmed input that is exactly one terminator yields
// ([CompletionSignal], "").
func Extract(text string) ([]string, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ""
	}

	if len([]rune(trimmed)) == 1 && IsTerminator([]rune(trimmed)[0]) {
		return []string{CompletionSignal}, ""
	}

	var (
		sentences []string
		building  []string
		current   strings.Builder
	)

	flushWords := func() {
		if current.Len() > 0 {
			building = append(building, strings.Fields(current.String())...)
			current.Reset()
		}
	}

	for _, r := range trimmed {
		if IsTerminator(r) {
			flushWords()
			if len(building) > 0 {
				sentences = append(sentences, strings.Join(building, " ")+string(r))
				building = building[:0]
			}
			continue
		}
		current.WriteRune(r)
	}
	flushWords()

	remainder := strings.Join(building, " ")
	return sentences, remainder
}

// EndsSentence reports whether the trimmed text ends with a terminator.
func EndsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	return IsTerminator(runes[len(runes)-1])
}

// Clean collapses all whitespace runs in text to single spaces and trims the
// ends. Used to normalise fragments before accumulation.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
