package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minSentenceLen = 40
	maxSentenceLen = 400
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	urlRe         = regexp.MustCompile(`https?://\S+`)
	parentheticRe = regexp.MustCompile(`\s*\([^)]*\)`)
)

// splitSentences turns cleaned document text into candidate sentences.
// The boundary is strong punctuation followed by an uppercase letter,
// including accented Spanish uppercase. Fragments outside [40,400]
// characters are dropped as noise or boilerplate.
func splitSentences(text string) []string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		if j == i+1 || j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}
		if s := acceptSentence(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := acceptSentence(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func acceptSentence(s string) string {
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n < minSentenceLen || n > maxSentenceLen {
		return ""
	}
	return s
}

// normalizeSentence prepares a selected sentence for rendering: collapse
// whitespace, strip embedded URLs and parenthetical asides, capitalize.
func normalizeSentence(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = urlRe.ReplaceAllString(s, "")
	s = parentheticRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "..", ".")
	s = strings.Trim(s, ". ")
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// dedupKey reduces a sentence to its alphanumeric core for duplicate checks.
func dedupKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
