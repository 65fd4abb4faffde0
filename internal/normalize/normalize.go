// Package normalize canonicalises free-form book metadata so that different
// spellings of the same value group together.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/librumreader/librum-core/internal/util"
)

// languageNames maps English language names, as some documents report them,
// to ISO 639-1 codes.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageNames = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "russian": "ru",
	"japanese": "ja", "chinese": "zh", "korean": "ko", "arabic": "ar",
	"hindi": "hi", "polish": "pl", "swedish": "sv", "norwegian": "no",
	"danish": "da", "finnish": "fi", "turkish": "tr", "greek": "el",
	"hebrew": "he", "czech": "cs", "hungarian": "hu", "romanian": "ro",
	"thai": "th", "vietnamese": "vi", "indonesian": "id", "malay": "ms",
	"ukrainian": "uk", "catalan": "ca", "croatian": "hr", "slovak": "sk",
	"bulgarian": "bg", "lithuanian": "lt", "latvian": "lv", "estonian": "et",
	"slovenian": "sl", "serbian": "sr", "persian": "fa", "farsi": "fa",
	"bengali": "bn", "tamil": "ta", "urdu": "ur", "welsh": "cy",
	"irish": "ga", "basque": "eu", "galician": "gl", "icelandic": "is",
	"latin": "la", "esperanto": "eo", "mandarin": "zh", "cantonese": "zh",
	"filipino": "tl", "tagalog": "tl",
}

// bibliographic maps ISO 639-2/B codes, which language.Parse does not
// accept, to ISO 639-1.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var bibliographic = map[string]string{
	"ger": "de", "fre": "fr", "dut": "nl", "chi": "zh", "cze": "cs",
	"gre": "el", "per": "fa", "rum": "ro", "slo": "sk", "alb": "sq",
	"arm": "hy", "baq": "eu", "bur": "my", "geo": "ka", "ice": "is",
	"mac": "mk", "may": "ms", "tib": "bo", "wel": "cy",
}

// LanguageCode converts various language representations to an ISO 639
// base language code. It handles:
//   - ISO 639-1 codes: "en" -> "en"
//   - ISO 639-2 codes: "eng" -> "en", "ger" -> "de"
//   - Locale tags: "en-US", "en_GB" -> "en"
//   - Language names: "English", "ENGLISH" -> "en"
//
// Returns empty string for unrecognized values.
func LanguageCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
	if s == "" {
		return ""
	}

	if code, ok := languageNames[s]; ok {
		return code
	}
	if code, ok := bibliographic[s]; ok {
		return code
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// LanguageName returns the English display name of a language, e.g.
// "deu" -> "German". Returns empty string for unrecognized values.
func LanguageName(raw string) string {
	code := LanguageCode(raw)
	if code == "" {
		return ""
	}
	return display.English.Languages().Name(language.Make(code))
}

// LanguageKey returns the key books are grouped by for a language: the ISO
// code when the value is recognized, otherwise its slug.
func LanguageKey(raw string) string {
	if code := LanguageCode(raw); code != "" {
		return code
	}
	return util.NormalizeTagSlug(raw)
}

// FormatKey returns the key books are grouped by for a document format:
// "PDF", ".pdf" and "application/pdf" all become "pdf".
func FormatKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, ".")
	switch s {
	case "epub+zip":
		s = "epub"
	case "x-mobipocket-ebook":
		s = "mobi"
	case "vnd.comicbook+zip":
		s = "cbz"
	}
	return util.NormalizeTagSlug(s)
}

// sanitizeString removes null bytes, which some document metadata carries
// as string terminators.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
