// Package contradiction finds pairs of statements that lexically contradict
// each other. It is a pure heuristic: three detectors run in a fixed order
// (direct opposite terms, negation templates, semantic antonyms) and the
// first one that fires decides the reason and severity for a pair.
//
// DetectAll compares every unordered pair and is O(N²) in the number of
// statements. CheckAgainstExisting compares one candidate against the rest
// in O(N) and is what gates insertion of new statements.
package contradiction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Harshitk-cp/knet/internal/domain"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

const (
	// DirectThreshold is the minimum remainder similarity for opposite terms.
	DirectThreshold = 0.8
	// NegationThreshold must be exceeded by the similarity of negated cores.
	NegationThreshold = 0.8
	// SemanticThreshold must be exceeded for antonym pairs.
	SemanticThreshold = 0.7
)

// Pair is a detected contradiction. It is transient and never stored.
type Pair struct {
	Statement1 *domain.Statement `json:"statement1"`
	Statement2 *domain.Statement `json:"statement2"`
	Reason     string            `json:"reason"`
	Severity   Severity          `json:"severity"`
}

type termPair struct {
	a, b phrase
}

type negationPattern struct {
	name     string
	positive *regexp.Regexp
	negative *regexp.Regexp
}

var directOpposites = []termPair{
	{newPhrase("true"), newPhrase("false")},
	{newPhrase("always"), newPhrase("never")},
	{newPhrase("all"), newPhrase("none")},
	{newPhrase("possible"), newPhrase("impossible")},
	{newPhrase("necessary"), newPhrase("unnecessary")},
	{newPhrase("exist"), newPhrase("not exist")},
	{newPhrase("exists"), newPhrase("does not exist")},
}

var negationPatterns = []negationPattern{
	{"not", regexp.MustCompile(`^(.+)$`), regexp.MustCompile(`^not (.+)$`)},
	{"no", regexp.MustCompile(`^(.+)$`), regexp.MustCompile(`^no (.+)$`)},
	{"is/is not", regexp.MustCompile(`^(.+?) is (.+)$`), regexp.MustCompile(`^(.+?) is not (.+)$`)},
	{"are/are not", regexp.MustCompile(`^(.+?) are (.+)$`), regexp.MustCompile(`^(.+?) are not (.+)$`)},
	{"can/cannot", regexp.MustCompile(`^(.+?) can (.+)$`), regexp.MustCompile(`^(.+?) cannot (.+)$`)},
	{"will/will not", regexp.MustCompile(`^(.+?) will (.+)$`), regexp.MustCompile(`^(.+?) will not (.+)$`)},
	{"does not", regexp.MustCompile(`^(.+)$`), regexp.MustCompile(`^(.+?) (?:does|do|did) not (.+)$`)},
}

var semanticAntonyms = []termPair{
	{newStemPhrase("increase"), newStemPhrase("decrease")},
	{newStemPhrase("rise"), newStemPhrase("fall")},
	{newStemPhrase("grow"), newStemPhrase("shrink")},
	{newStemPhrase("expand"), newStemPhrase("contract")},
	{newStemPhrase("strengthen"), newStemPhrase("weaken")},
	{newStemPhrase("improve"), newStemPhrase("worsen")},
	{newStemPhrase("accelerate"), newStemPhrase("decelerate")},
	{newStemPhrase("positive"), newStemPhrase("negative")},
	{newStemPhrase("benefit"), newStemPhrase("harm")},
	{newStemPhrase("help"), newStemPhrase("hinder")},
	{newStemPhrase("support"), newStemPhrase("oppose")},
	{newStemPhrase("agree"), newStemPhrase("disagree")},
	{newStemPhrase("accept"), newStemPhrase("reject")},
	{newStemPhrase("allow"), newStemPhrase("forbid")},
	{newStemPhrase("permit"), newStemPhrase("prohibit")},
}

// Detector holds the heuristic tables. The zero value is not usable; call
// NewDetector.
type Detector struct {
	opposites []termPair
	negations []negationPattern
	antonyms  []termPair
}

func NewDetector() *Detector {
	return &Detector{
		opposites: directOpposites,
		negations: negationPatterns,
		antonyms:  semanticAntonyms,
	}
}

// Check compares two statements and returns the first detector result.
func (d *Detector) Check(s1, s2 *domain.Statement) (*Pair, bool) {
	a, b := Normalize(s1.Content), Normalize(s2.Content)

	checks := []func(a, b string) (string, Severity, bool){
		d.directOpposite,
		d.negation,
		d.semanticAntonym,
	}
	for _, check := range checks {
		if reason, sev, ok := check(a, b); ok {
			return &Pair{Statement1: s1, Statement2: s2, Reason: reason, Severity: sev}, true
		}
	}
	return nil, false
}

// DetectAll checks every unordered pair once.
func (d *Detector) DetectAll(stmts []*domain.Statement) []Pair {
	var out []Pair
	for i := 0; i < len(stmts); i++ {
		for j := i + 1; j < len(stmts); j++ {
			if p, ok := d.Check(stmts[i], stmts[j]); ok {
				out = append(out, *p)
			}
		}
	}
	return out
}

// CheckAgainstExisting checks candidate against every other statement.
// A statement with the candidate's id is skipped.
func (d *Detector) CheckAgainstExisting(candidate *domain.Statement, existing []*domain.Statement) []Pair {
	var out []Pair
	for _, s := range existing {
		if s.ID == candidate.ID {
			continue
		}
		if p, ok := d.Check(candidate, s); ok {
			out = append(out, *p)
		}
	}
	return out
}

func (d *Detector) directOpposite(a, b string) (string, Severity, bool) {
	for _, tp := range d.opposites {
		if !opposed(a, b, tp) {
			continue
		}
		if Similarity(remainder(a, tp.a, tp.b), remainder(b, tp.a, tp.b)) >= DirectThreshold {
			return fmt.Sprintf("Direct contradiction: %q vs %q", tp.a.text, tp.b.text), SeverityHigh, true
		}
	}
	return "", "", false
}

func (d *Detector) negation(a, b string) (string, Severity, bool) {
	for _, np := range d.negations {
		if negated(a, b, np) || negated(b, a, np) {
			return fmt.Sprintf("Negation pattern: %s", np.name), SeverityHigh, true
		}
	}
	return "", "", false
}

func (d *Detector) semanticAntonym(a, b string) (string, Severity, bool) {
	for _, tp := range d.antonyms {
		if !opposed(a, b, tp) {
			continue
		}
		if Similarity(remainder(a, tp.a, tp.b), remainder(b, tp.a, tp.b)) > SemanticThreshold {
			return fmt.Sprintf("Semantic opposition: %q vs %q", tp.a.text, tp.b.text), SeverityMedium, true
		}
	}
	return "", "", false
}

// opposed reports whether a and b each carry exactly one, opposite, side of
// the pair.
func opposed(a, b string, tp termPair) bool {
	aHasA, aHasB := side(a, tp.a, tp.b)
	bHasA, bHasB := side(b, tp.a, tp.b)
	return (aHasA && !aHasB && bHasB && !bHasA) || (aHasB && !aHasA && bHasA && !bHasB)
}

// negated reports whether pos is a plain assertion and neg its negated form
// under np, with cores that are nearly the same proposition.
func negated(pos, neg string, np negationPattern) bool {
	if np.negative.MatchString(pos) {
		return false
	}
	pm := np.positive.FindStringSubmatch(pos)
	nm := np.negative.FindStringSubmatch(neg)
	if pm == nil || nm == nil {
		return false
	}
	return coreSimilarity(core(pm), core(nm)) > NegationThreshold
}

func core(match []string) string {
	return strings.Join(match[1:], " ")
}

func coreSimilarity(a, b string) float64 {
	return jaccard(wordSet(a, foldVerb), wordSet(b, foldVerb))
}
