package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains ISO 639-1 language codes accepted by the
// transcription and translation backends. Not exhaustive, but it covers
// the languages both Whisper and the translator support.
var validLanguages = map[string]bool{
	"ar": true, // Arabic
	"bg": true, // Bulgarian
	"cs": true, // Czech
	"da": true, // Danish
	"de": true, // German
	"el": true, // Greek
	"en": true, // English
	"es": true, // Spanish
	"et": true, // Estonian
	"fi": true, // Finnish
	"fr": true, // French
	"hu": true, // Hungarian
	"id": true, // Indonesian
	"it": true, // Italian
	"ja": true, // Japanese
	"ko": true, // Korean
	"lt": true, // Lithuanian
	"lv": true, // Latvian
	"nl": true, // Dutch
	"no": true, // Norwegian
	"pl": true, // Polish
	"pt": true, // Portuguese
	"ro": true, // Romanian
	"ru": true, // Russian
	"sk": true, // Slovak
	"sl": true, // Slovenian
	"sv": true, // Swedish
	"tr": true, // Turkish
	"uk": true, // Ukrainian
	"zh": true, // Chinese
}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

// Validate checks if the language code is valid.
// Accepts ISO 639-1 codes (e.g., "en", "fr") and locales (e.g., "pt-BR", "zh-CN").
// Returns ErrInvalid if the base language is not recognized. The empty
// string is rejected too: dubbing needs explicit source and target
// languages.
func Validate(lang string) error {
	if lang == "" {
		return fmt.Errorf("language code is empty: %w", ErrInvalid)
	}

	if !validLanguages[BaseCode(lang)] {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			lang, ErrInvalid)
	}

	return nil
}

// BaseCode extracts the ISO 639-1 base language code from a locale.
// Whisper only accepts base codes, not regional variants.
// Examples: "pt-BR" -> "pt", "zh-CN" -> "zh", "en" -> "en"
func BaseCode(lang string) string {
	if lang == "" {
		return ""
	}
	normalized := Normalize(lang)
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}

// DisplayName returns a human-readable name for common locales.
// Falls back to the code itself for unknown locales. Used in progress
// logging so runs read "English -> Spanish" rather than "en -> es".
func DisplayName(lang string) string {
	normalized := Normalize(lang)

	displayNames := map[string]string{
		"en":    "English",
		"en-us": "American English",
		"en-gb": "British English",
		"fr":    "French",
		"es":    "Spanish",
		"es-mx": "Mexican Spanish",
		"pt":    "Portuguese",
		"pt-br": "Brazilian Portuguese",
		"pt-pt": "European Portuguese",
		"zh":    "Chinese",
		"de":    "German",
		"it":    "Italian",
		"ja":    "Japanese",
		"ko":    "Korean",
		"ru":    "Russian",
		"ar":    "Arabic",
		"nl":    "Dutch",
		"pl":    "Polish",
		"sv":    "Swedish",
		"da":    "Danish",
		"no":    "Norwegian",
		"fi":    "Finnish",
	}

	if name, ok := displayNames[normalized]; ok {
		return name
	}
	if name, ok := displayNames[BaseCode(normalized)]; ok {
		return name
	}
	return lang
}
