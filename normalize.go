package sprout

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize folds text into the form every matcher works on: NFKC (which
// turns full-width digits and Latin letters into ASCII and half-width katakana
// into full-width), lower case, trimmed, with runs of whitespace collapsed to a
// single space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// isWide reports whether r is an East Asian wide or full-width rune. Wide
// text has no word separators, so terms written in it match as substrings.
func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

func hasWide(s string) bool {
	for _, r := range s {
		if isWide(r) {
			return true
		}
	}
	return false
}

// containsTerm reports whether the normalized text contains term. Terms
// without wide runes must sit on word boundaries so "cat" does not match
// "category"; wide terms match anywhere.
func containsTerm(text, term string) bool {
	_, ok := indexTerm(text, term)
	return ok
}

// indexTerm is containsTerm returning the byte offset of the first match.
func indexTerm(text, term string) (int, bool) {
	if term == "" {
		return 0, false
	}
	if hasWide(term) {
		i := strings.Index(text, term)
		return i, i >= 0
	}
	from := 0
	for from <= len(text) {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return 0, false
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start, true
		}
		from = start + 1
	}
	return 0, false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

// isWordRune treats narrow letters and digits as word characters. Wide runes
// count as boundaries so "catを" still matches "cat".
func isWordRune(r rune) bool {
	return (unicode.IsLetter(r) || unicode.IsDigit(r)) && !isWide(r)
}

// Tokens splits normalized text into hint tokens. Narrow tokens shorter than
// two runes are dropped; wide runs are kept whole.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == 'ー')
	})
	out := fields[:0]
	for _, f := range fields {
		if !hasWide(f) && utf8.RuneCountInString(f) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// stripExt removes a trailing file extension, if the text looks like a
// filename.
func stripExt(name string) string {
	ext := path.Ext(name)
	if ext == "" || len(ext) > 6 || strings.ContainsAny(ext, " ") {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

var kanjiDigits = map[rune]int{
	'〇': 0, '一': 1, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// maxCount caps parsed counts; anything larger reads as maxCount.
const maxCount = 1 << 20

// parseCount parses an ASCII or kanji numeral ("12", "三", "十二", "二十").
// It returns false for anything else.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	ascii := true
	for _, r := range s {
		if r < '0' || r > '9' {
			ascii = false
			break
		}
		if n = n*10 + int(r-'0'); n > maxCount {
			n = maxCount
		}
	}
	if ascii {
		return n, true
	}

	total, cur := 0, 0
	for _, r := range s {
		if d, ok := kanjiDigits[r]; ok {
			cur = d
			continue
		}
		if r == '十' {
			if cur == 0 {
				cur = 1
			}
			total += cur * 10
			cur = 0
			continue
		}
		return 0, false
	}
	return total + cur, true
}
