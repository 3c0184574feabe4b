package contradiction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips punctuation and collapses whitespace.
// All detectors work on normalized text.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Similarity is the Jaccard index over the sets of words longer than two
// characters in a and b. It is 0 when either side has no such words.
func Similarity(a, b string) float64 {
	return jaccard(wordSet(a, nil), wordSet(b, nil))
}

func wordSet(text string, fold func(string) string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if fold != nil {
			w = fold(w)
		}
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// phrase matches a whole word or multi-word phrase in normalized text.
type phrase struct {
	text string
	re   *regexp.Regexp
}

func newPhrase(text string) phrase {
	return phrase{text: text, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(text) + `\b`)}
}

// newStemPhrase matches text and its regular inflections: "increase" also
// matches "increases", "increased" and "increasing", "permit" matches
// "permitted". Derived words such as "helpless" or "harmony" do not match.
func newStemPhrase(text string) phrase {
	return phrase{text: text, re: regexp.MustCompile(`\b` + inflections(text) + `\b`)}
}

func inflections(word string) string {
	if stem, ok := strings.CutSuffix(word, "e"); ok {
		return regexp.QuoteMeta(stem) + `(?:e|es|ed|ing|eing)`
	}
	last := regexp.QuoteMeta(word[len(word)-1:])
	return regexp.QuoteMeta(word) + `(?:s|es|ed|ing|` + last + `ed|` + last + `ing)?`
}

func (p phrase) in(text string) bool {
	return p.re.MatchString(text)
}

func (p phrase) strip(text string) string {
	return p.re.ReplaceAllString(text, " ")
}

// side reports which terms of an opposing pair text carries. A term nested
// inside its opposite ("exist" in "not exist") is masked first so it is not
// counted twice.
func side(text string, a, b phrase) (hasA, hasB bool) {
	if strings.Contains(b.text, a.text) {
		hasB = b.in(text)
		hasA = a.in(b.strip(text))
		return hasA, hasB
	}
	if strings.Contains(a.text, b.text) {
		hasA = a.in(text)
		hasB = b.in(a.strip(text))
		return hasA, hasB
	}
	return a.in(text), b.in(text)
}

// remainder strips both terms of a pair from text, longest first.
func remainder(text string, a, b phrase) string {
	if len(a.text) < len(b.text) {
		a, b = b, a
	}
	text = b.strip(a.strip(text))
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// foldVerb drops a trailing third-person "s" so "improves" and "improve"
// compare equal when matching a negated core against its positive form.
func foldVerb(w string) string {
	if utf8.RuneCountInString(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return strings.TrimSuffix(w, "s")
	}
	return w
}
