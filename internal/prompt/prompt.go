package prompt

import (
	"context"
	"strings"

	"github.com/minbarlive/translation-relay/internal/tenant"
)

// DefaultTemplate is the interpreter instruction used when a room has
// no custom prompt configured.
const DefaultTemplate = "You are an expert simultaneous interpreter. Your task is to translate from {source_lang} to {target_lang}. " +
	"Provide a direct and accurate translation of the user's input. " +
	"Do not add any additional commentary, explanations, or introductory phrases. " +
	"Be concise for real-time delivery."

// Resolver produces the system prompt for one room and language pair.
// Implementations must always return a usable prompt; lookup failures
// degrade to the default template.
type Resolver interface {
	Resolve(ctx context.Context, tc *tenant.Context, sourceLang, targetLang string) string
}

// Render substitutes {source_lang} and {target_lang} placeholders, plus
// their long-form aliases, into a prompt template. Extra variables from
// a stored template are applied the same way. Unknown placeholders are
// left in place rather than erroring.
func Render(template, sourceLang, targetLang string, variables map[string]string) string {
	pairs := []string{
		"{source_lang}", sourceLang,
		"{source_language}", sourceLang,
		"{target_lang}", targetLang,
		"{target_language}", targetLang,
	}
	for name, value := range variables {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Static is a Resolver that always renders the same template. Used as
// the fallback when no database is configured.
type Static struct {
	Template string
}

func (s Static) Resolve(ctx context.Context, tc *tenant.Context, sourceLang, targetLang string) string {
	template := s.Template
	if template == "" {
		template = DefaultTemplate
	}
	if tc != nil && tc.TranslationPrompt != "" {
		template = tc.TranslationPrompt
	}
	return Render(template, sourceLang, targetLang, nil)
}
