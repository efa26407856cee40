package domain

import "strings"

// Language is one of the menu locales.
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"
	LangKK Language = "kk"
)

// Languages lists the supported locales in selector order.
var Languages = []Language{LangRU, LangEN, LangKK}

// ParseLanguage maps a code such as "en" or "en-US" to a supported
// language, defaulting to Russian.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	switch Language(code) {
	case LangEN:
		return LangEN
	case LangKK:
		return LangKK
	default:
		return LangRU
	}
}

// Label is the native name shown in the language selector.
func (l Language) Label() string {
	switch l {
	case LangEN:
		return "English"
	case LangKK:
		return "Қазақша"
	default:
		return "Русский"
	}
}

// localize picks the variant for lang, falling back to Russian and then to
// the untranslated base value.
func localize(lang Language, ru, en, kk, base string) string {
	if lang == LangEN && en != "" {
		return en
	}
	if lang == LangKK && kk != "" {
		return kk
	}
	if ru != "" {
		return ru
	}
	return base
}
