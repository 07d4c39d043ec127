package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reDropSourceChars = regexp.MustCompile(`[^0-9\p{L}_-]+`)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	return strings.ToLower(s)
}

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeSourceID makes a source id safe to embed in an offer url host.
func NormalizeSourceID(source string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reDropSourceChars.ReplaceAllString(s, "") },
	}
	return p.Apply(source)
}

func NormalizeRequesterID(id string) string {
	return TrimAndNormalize(id)
}

func NormalizeBrand(brand string) string {
	return TrimAndNormalize(brand)
}
