// Package i18n resolves user-facing display text by language tag and key,
// with {param} interpolation.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Resolver maps a language tag and a key to localized text. Lookup falls back
// through the matcher's best supported tag, then to the default language,
// then to the key itself so a missing string is visible rather than blank.
type Resolver struct {
	matcher  language.Matcher
	tags     []language.Tag
	messages map[language.Tag]map[string]string
	fallback language.Tag
}

// NewResolver builds a resolver over the embedded catalogs. The first
// supported language is the fallback.
func NewResolver() *Resolver {
	tags := make([]language.Tag, 0, len(catalogs))
	messages := make(map[language.Tag]map[string]string, len(catalogs))
	for _, c := range catalogs {
		tags = append(tags, c.tag)
		messages[c.tag] = c.messages
	}

	return &Resolver{
		matcher:  language.NewMatcher(tags),
		tags:     tags,
		messages: messages,
		fallback: tags[0],
	}
}

// Match resolves an arbitrary language tag (for example from a preference
// cookie or an Accept-Language header) to the best supported language.
func (r *Resolver) Match(lang string) language.Tag {
	_, index := language.MatchStrings(r.matcher, lang)
	return r.tags[index]
}

// IsRTL reports whether the language renders right-to-left.
func (r *Resolver) IsRTL(lang string) bool {
	return r.Match(lang) == language.Arabic
}

// Languages lists the supported language tags.
func (r *Resolver) Languages() []string {
	out := make([]string, len(r.tags))
	for i, t := range r.tags {
		out[i] = t.String()
	}
	return out
}

// T returns the localized text for key, substituting {name} placeholders from
// params.
func (r *Resolver) T(lang, key string, params map[string]string) string {
	tag := r.Match(lang)

	text, ok := r.messages[tag][key]
	if !ok {
		text, ok = r.messages[r.fallback][key]
	}
	if !ok {
		return key
	}

	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// Catalog returns every message for the resolved language, for clients that
// load their strings in one request.
func (r *Resolver) Catalog(lang string) map[string]string {
	tag := r.Match(lang)

	out := make(map[string]string, len(r.messages[r.fallback]))
	for k, v := range r.messages[r.fallback] {
		out[k] = v
	}
	if tag != r.fallback {
		for k, v := range r.messages[tag] {
			out[k] = v
		}
	}
	return out
}
