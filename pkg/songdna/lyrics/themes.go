package lyrics

import (
	"strings"
)

// Theme names produced by ExtractThemes.
const (
	ThemeLove    = "love"
	ThemeSadness = "sadness"
	ThemeJoy     = "joy"
)

var themeOrder = []string{ThemeLove, ThemeSadness, ThemeJoy}

var themeKeywords = map[string]map[string][]string{
	ThemeLove: {
		"en": {"love", "heart", "romance"},
		"es": {"amor", "corazón", "romance"},
		"fr": {"amour", "coeur", "romance"},
		"de": {"liebe", "herz", "romantik"},
	},
	ThemeSadness: {
		"en": {"sad", "cry", "tears"},
		"es": {"triste", "llorar", "lágrimas"},
		"fr": {"triste", "pleurer", "larmes"},
		"de": {"traurig", "weinen", "tränen"},
	},
	ThemeJoy: {
		"en": {"happy", "joy", "smile"},
		"es": {"feliz", "alegría", "sonrisa"},
		"fr": {"heureux", "joie", "sourire"},
		"de": {"glücklich", "freude", "lächeln"},
	},
}

var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "ja": "Japanese", "ko": "Korean",
	"zh": "Chinese", "hi": "Hindi", "ar": "Arabic", "ru": "Russian",
	"tr": "Turkish", "nl": "Dutch", "pl": "Polish", "vi": "Vietnamese",
	"th": "Thai", "sv": "Swedish", "da": "Danish", "fi": "Finnish",
}

// LanguageName returns the English name for an ISO 639-1 code, or the code
// itself when it is not known.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// LanguageCode resolves an ISO code or an English language name to a
// lowercase ISO code. Unknown input yields "".
func LanguageCode(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if _, ok := languageNames[lang]; ok {
		return lang
	}
	for code, name := range languageNames {
		if strings.EqualFold(name, lang) {
			return code
		}
	}
	return ""
}

// ExtractThemes returns the themes whose keywords occur in text, in the order
// love, sadness, joy. Keywords are matched as lowercase substrings. Languages
// without a keyword list use the English one.
func ExtractThemes(text, language string) []string {
	code := LanguageCode(language)
	if _, ok := themeKeywords[ThemeLove][code]; !ok {
		code = "en"
	}

	lower := strings.ToLower(text)
	themes := make([]string, 0, len(themeOrder))
	for _, theme := range themeOrder {
		for _, kw := range themeKeywords[theme][code] {
			if strings.Contains(lower, kw) {
				themes = append(themes, theme)
				break
			}
		}
	}
	return themes
}

// ThemeOverlap is |A∩B| / max(|A|,|B|) over the distinct themes of a and b.
// It is 0 when either side is empty.
func ThemeOverlap(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(setA), len(setB)))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
