// Package language holds the registry of languages the relay can transcribe
// from and translate into. Codes follow the upstream STT provider's language
// identifiers.
package language

import "sort"

// Language describes one supported language.
type Language struct {
	Code string
	Name string
	Flag string
}

var registry = map[string]Language{
	"ar":  {Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	"en":  {Code: "en", Name: "English", Flag: "🇬🇧"},
	"es":  {Code: "es", Name: "Spanish", Flag: "🇪🇸"},
	"fr":  {Code: "fr", Name: "French", Flag: "🇫🇷"},
	"de":  {Code: "de", Name: "German", Flag: "🇩🇪"},
	"ja":  {Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	"nl":  {Code: "nl", Name: "Dutch", Flag: "🇳🇱"},
	"tr":  {Code: "tr", Name: "Turkish", Flag: "🇹🇷"},
	"bn":  {Code: "bn", Name: "Bengali", Flag: "🇧🇩"},
	"bg":  {Code: "bg", Name: "Bulgarian", Flag: "🇧🇬"},
	"yue": {Code: "yue", Name: "Cantonese", Flag: "🇭🇰"},
	"ca":  {Code: "ca", Name: "Catalan", Flag: "🇪🇸"},
	"hr":  {Code: "hr", Name: "Croatian", Flag: "🇭🇷"},
	"cs":  {Code: "cs", Name: "Czech", Flag: "🇨🇿"},
	"da":  {Code: "da", Name: "Danish", Flag: "🇩🇰"},
	"et":  {Code: "et", Name: "Estonian", Flag: "🇪🇪"},
	"fi":  {Code: "fi", Name: "Finnish", Flag: "🇫🇮"},
	"el":  {Code: "el", Name: "Greek", Flag: "🇬🇷"},
	"he":  {Code: "he", Name: "Hebrew", Flag: "🇮🇱"},
	"hi":  {Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	"hu":  {Code: "hu", Name: "Hungarian", Flag: "🇭🇺"},
	"id":  {Code: "id", Name: "Indonesian", Flag: "🇮🇩"},
	"ga":  {Code: "ga", Name: "Irish", Flag: "🇮🇪"},
	"it":  {Code: "it", Name: "Italian", Flag: "🇮🇹"},
	"ko":  {Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	"lv":  {Code: "lv", Name: "Latvian", Flag: "🇱🇻"},
	"lt":  {Code: "lt", Name: "Lithuanian", Flag: "🇱🇹"},
	"ms":  {Code: "ms", Name: "Malay", Flag: "🇲🇾"},
	"mt":  {Code: "mt", Name: "Maltese", Flag: "🇲🇹"},
	"cmn": {Code: "cmn", Name: "Mandarin", Flag: "🇨🇳"},
	"mr":  {Code: "mr", Name: "Marathi", Flag: "🇮🇳"},
	"mn":  {Code: "mn", Name: "Mongolian", Flag: "🇲🇳"},
	"no":  {Code: "no", Name: "Norwegian", Flag: "🇳🇴"},
	"fa":  {Code: "fa", Name: "Persian", Flag: "🇮🇷"},
	"pl":  {Code: "pl", Name: "Polish", Flag: "🇵🇱"},
	"pt":  {Code: "pt", Name: "Portuguese", Flag: "🇵🇹"},
	"ro":  {Code: "ro", Name: "Romanian", Flag: "🇷🇴"},
	"ru":  {Code: "ru", Name: "Russian", Flag: "🇷🇺"},
	"sk":  {Code: "sk", Name: "Slovakian", Flag: "🇸🇰"},
	"sl":  {Code: "sl", Name: "Slovenian", Flag: "🇸🇮"},
	"sw":  {Code: "sw", Name: "Swahili", Flag: "🇰🇪"},
	"sv":  {Code: "sv", Name: "Swedish", Flag: "🇸🇪"},
	"tl":  {Code: "tl", Name: "Tagalog", Flag: "🇵🇭"},
	"ta":  {Code: "ta", Name: "Tamil", Flag: "🇮🇳"},
	"th":  {Code: "th", Name: "Thai", Flag: "🇹🇭"},
	"uk":  {Code: "uk", Name: "Ukrainian", Flag: "🇺🇦"},
	"ur":  {Code: "ur", Name: "Urdu", Flag: "🇵🇰"},
	"vi":  {Code: "vi", Name: "Vietnamese", Flag: "🇻🇳"},
	"cy":  {Code: "cy", Name: "Welsh", Flag: "🏴󠁧󠁢󠁷󠁬󠁳󠁿"},
}

// Lookup returns the language for code and whether it is supported.
func Lookup(code string) (Language, bool) {
	lang, ok := registry[code]
	return lang, ok
}

// Name returns the display name for code, falling back to the code itself for
// unknown languages so prompts always have something usable.
func Name(code string) string {
	if lang, ok := registry[code]; ok {
		return lang.Name
	}
	return code
}

// Supported reports whether code is a known language.
func Supported(code string) bool {
	_, ok := registry[code]
	return ok
}

// Codes returns all supported language codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
