package asr

import (
	"sort"
	"strings"
)

// LanguageAuto asks the provider to detect the language itself
const LanguageAuto = "auto"

// ISO 639-1 -> ISO 639-3, the provider wants the latter
var languageCodes = map[string]string{
	"en": "eng",
	"fr": "fra",
	"de": "deu",
	"it": "ita",
	"es": "spa",
	"pt": "por",
	"pl": "pol",
	"nl": "nld",
	"ru": "rus",
	"ja": "jpn",
	"zh": "cmn",
	"ko": "kor",
	"hi": "hin",
	"ar": "ara",
	"tr": "tur",
	"sv": "swe",
	"fi": "fin",
	"da": "dan",
	"no": "nor",
	"cs": "ces",
	"hu": "hun",
	"el": "ell",
	"ro": "ron",
	"bg": "bul",
	"hr": "hrv",
	"uk": "ukr",
	"he": "heb",
	"ca": "cat",
	"sk": "slk",
	"lt": "lit",
	"et": "est",
	"lv": "lav",
	"sl": "slv",
	"cy": "cym",
	"id": "ind",
	"ms": "msa",
	"vi": "vie",
	"th": "tha",
	"bn": "ben",
	"ta": "tam",
	"te": "tel",
	"mr": "mar",
	"kn": "kan",
	"ml": "mal",
	"gu": "guj",
	"pa": "pan",
	"ur": "urd",
	"fa": "fas",
	"sw": "swh",
}

var providerCodes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(languageCodes))
	for _, v := range languageCodes {
		m[v] = struct{}{}
	}
	return m
}()

// SupportedLanguages returns the accepted language codes, "auto" first and
// the rest sorted.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageCodes)+1)
	for k := range languageCodes {
		out = append(out, k)
	}
	sort.Strings(out)
	return append([]string{LanguageAuto}, out...)
}

// ResolveLanguage turns a user or host supplied language into the code sent
// to the provider. An empty result means auto-detect and the field should be
// left out of the request.
//
// Accepted inputs: "", "auto", ISO 639-1 ("en"), with an optional region
// ("en-US", "pt_BR"), or an ISO 639-3 code the provider already knows ("eng").
func ResolveLanguage(language string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(language))
	if normalized == "" || normalized == LanguageAuto {
		return "", nil
	}

	if i := strings.IndexAny(normalized, "-_"); i > 0 {
		normalized = normalized[:i]
	}

	if code, ok := languageCodes[normalized]; ok {
		return code, nil
	}
	if _, ok := providerCodes[normalized]; ok {
		return normalized, nil
	}

	return "", &UnsupportedLanguageError{Language: language}
}
