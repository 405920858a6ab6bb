package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps profanity to family-friendly alternatives. Generated
// narrative rarely goes further than this, and the model is asked to stay
// in tone anyway.
var replacements = map[string]string{
	"fuck":         "fudge",
	"fucking":      "flipping",
	"shit":         "shoot",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "butt",
	"asshole":      "jerk",
	"bitch":        "jerk",
	"bastard":      "scoundrel",
	"crap":         "crud",
	"piss":         "ticked",
	"dick":         "jerk",
	"prick":        "jerk",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"motherfucker": "mother-trucker",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"shithead":     "jerk",
}

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Filter replaces profanity in generated text.
type Filter struct {
	rules []rule
}

// New compiles the word list. Longer words are matched first so compounds
// like "motherfucker" are not split by their substrings.
func New() *Filter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})

	f := &Filter{rules: make([]rule, 0, len(words))}
	for _, w := range words {
		f.rules = append(f.rules, rule{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
			replacement: replacements[w],
		})
	}
	return f
}

// FilterText returns text with every listed word replaced, keeping the
// case pattern of the original.
func (f *Filter) FilterText(text string) string {
	for _, r := range f.rules {
		text = r.pattern.ReplaceAllStringFunc(text, func(match string) string {
			return matchCase(match, r.replacement)
		})
	}
	return text
}

// FilterAll filters each string in place and returns the slice.
func (f *Filter) FilterAll(texts []string) []string {
	for i, t := range texts {
		texts[i] = f.FilterText(t)
	}
	return texts
}

// ContainsProfanity reports whether any listed word appears in text.
func (f *Filter) ContainsProfanity(text string) bool {
	for _, r := range f.rules {
		if r.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func matchCase(original, replacement string) string {
	// Casers are stateful, so each call gets its own.
	titleCaser := cases.Title(language.English)
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	case titleCaser.String(strings.ToLower(original)) == original:
		return titleCaser.String(replacement)
	}

	orig := []rune(original)
	out := []rune(replacement)
	for i := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(out[i])
		} else {
			out[i] = unicode.ToLower(out[i])
		}
	}
	return string(out)
}

// ShouldFilterContent reports whether a content rating calls for filtering.
func ShouldFilterContent(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
