package utils

import (
	"strings"

	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.MustParse("pa"),
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// PreferredLanguage picks "en" or "pa". An explicit ?lang= value wins over
// the Accept-Language header; anything unmatched falls back to English.
func PreferredLanguage(queryLang, acceptLanguage string) string {
	var prefs []language.Tag
	if q := strings.TrimSpace(queryLang); q != "" {
		if tag, err := language.Parse(q); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if len(prefs) == 0 && acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil {
			prefs = tags
		}
	}
	if len(prefs) == 0 {
		return "en"
	}

	_, idx, conf := languageMatcher.Match(prefs...)
	if conf == language.No {
		return "en"
	}
	base, _ := supportedLanguages[idx].Base()
	return base.String()
}
