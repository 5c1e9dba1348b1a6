package ai

import "strings"

// localeMap maps host locale codes to language names for the prompt
// instruction. Unlisted locales fall back to their two-letter code, then to
// English.
var localeMap = map[string]string{
	"en_US": "English",
	"en_GB": "English",
	"de_DE": "German",
	"de_CH": "German",
	"de_AT": "German",
	"fr_FR": "French",
	"fr_BE": "French",
	"fr_CA": "French",
	"es_ES": "Spanish",
	"es_MX": "Spanish",
	"es_AR": "Spanish",
	"it_IT": "Italian",
	"pt_PT": "Portuguese",
	"pt_BR": "Portuguese",
	"nl_NL": "Dutch",
	"nl_BE": "Dutch",
	"pl_PL": "Polish",
	"ru_RU": "Russian",
	"ja":    "Japanese",
	"zh_CN": "Chinese",
	"zh_TW": "Chinese",
	"ko_KR": "Korean",
	"ar":    "Arabic",
	"sv_SE": "Swedish",
	"da_DK": "Danish",
	"fi":    "Finnish",
	"no_NO": "Norwegian",
	"tr_TR": "Turkish",
	"cs_CZ": "Czech",
	"el":    "Greek",
	"hu_HU": "Hungarian",
	"ro_RO": "Romanian",
	"sk_SK": "Slovak",
	"uk":    "Ukrainian",
	"he_IL": "Hebrew",
	"th":    "Thai",
	"vi":    "Vietnamese",
}

var languageCodeMap = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"ru": "Russian",
	"ja": "Japanese",
	"zh": "Chinese",
	"ko": "Korean",
	"ar": "Arabic",
	"sv": "Swedish",
	"da": "Danish",
	"fi": "Finnish",
	"no": "Norwegian",
	"tr": "Turkish",
	"cs": "Czech",
	"el": "Greek",
	"hu": "Hungarian",
	"ro": "Romanian",
	"sk": "Slovak",
	"uk": "Ukrainian",
	"he": "Hebrew",
	"th": "Thai",
	"vi": "Vietnamese",
}

// languageName resolves a locale code like "de_DE" to "German".
func languageName(locale string) string {
	if name, ok := localeMap[locale]; ok {
		return name
	}
	code := strings.ToLower(locale)
	if len(code) >= 2 {
		code = code[:2]
	}
	if name, ok := languageCodeMap[code]; ok {
		return name
	}
	return "English"
}

// languageInstruction is the prompt prefix for non-English locales. English
// (and unknown locales, which default to English) gets no prefix.
func languageInstruction(locale string) string {
	name := languageName(locale)
	if name == "English" {
		return ""
	}
	return "IMPORTANT: Provide all text fields (title, description, alt_text, caption, tags) in " + name + ". "
}
