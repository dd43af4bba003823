// Package roster resolves natural-language references to students and
// learning objects against the seeded record store. Matching is explicit
// and scored: normalized comparison, token overlap and edit distance,
// with a declared acceptance threshold and tie rule. A tie is never
// broken by guessing; it surfaces as an *AmbiguousError carrying the
// candidates so a human can disambiguate.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// Kind identifies which collection a reference points into.
type Kind string

const (
	KindStudent        Kind = "student"
	KindLearningObject Kind = "learning_object"
)

// Default scoring parameters. A best score below the threshold is no
// match; a runner-up within the tie margin of the best is a tie.
const (
	DefaultThreshold = 0.70
	DefaultTieMargin = 0.10
)

// ErrNoMatch reports that a reference matched nothing in the roster.
var ErrNoMatch = errors.New("roster: no match")

// Candidate is one scored roster entry considered for a reference.
type Candidate struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AmbiguousError reports a reference matching two or more roster entries
// with comparable confidence.
type AmbiguousError struct {
	Kind       Kind
	Ref        string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	labels := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		labels[i] = fmt.Sprintf("%s (%s)", c.Label, c.ID)
	}
	return fmt.Sprintf("roster: %s reference %q is ambiguous between %s",
		e.Kind, e.Ref, strings.Join(labels, ", "))
}

// Source provides the roster collections. Satisfied by *store.Store.
type Source interface {
	Students() []store.Student
	LearningObjects() []store.LearningObject
}

// Resolver scores references against the roster.
type Resolver struct {
	source    Source
	threshold float64
	tieMargin float64
	logger    *zap.Logger
}

// New creates a resolver with the default threshold and tie margin.
func New(source Source, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source:    source,
		threshold: DefaultThreshold,
		tieMargin: DefaultTieMargin,
		logger:    logger,
	}
}

// NewTuned creates a resolver with explicit threshold and tie margin.
// Non-positive values fall back to the defaults.
func NewTuned(source Source, threshold, tieMargin float64, logger *zap.Logger) *Resolver {
	r := New(source, logger)
	if threshold > 0 {
		r.threshold = threshold
	}
	if tieMargin > 0 {
		r.tieMargin = tieMargin
	}
	return r
}

// Resolve maps a reference to a canonical record ID. A reference that
// already equals an existing ID resolves to itself. Returns ErrNoMatch
// when nothing scores above the threshold and *AmbiguousError when the
// top candidates are too close to call.
func (r *Resolver) Resolve(kind Kind, ref string) (string, error) {
	candidates := r.score(kind, ref)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s %q", ErrNoMatch, kind, ref)
	}
	// Exact ID passthrough.
	for _, c := range candidates {
		if c.ID == ref {
			return c.ID, nil
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	best := candidates[0]
	if best.Score < r.threshold {
		return "", fmt.Errorf("%w: %s %q", ErrNoMatch, kind, ref)
	}

	tied := []Candidate{best}
	for _, c := range candidates[1:] {
		if best.Score-c.Score <= r.tieMargin && c.Score >= r.threshold {
			tied = append(tied, c)
		}
	}
	if len(tied) > 1 {
		r.logger.Debug("ambiguous reference",
			zap.String("kind", string(kind)),
			zap.String("ref", ref),
			zap.Int("candidates", len(tied)))
		return "", &AmbiguousError{Kind: kind, Ref: ref, Candidates: tied}
	}

	r.logger.Debug("reference resolved",
		zap.String("kind", string(kind)),
		zap.String("ref", ref),
		zap.String("id", best.ID),
		zap.Float64("score", best.Score))
	return best.ID, nil
}

func (r *Resolver) score(kind Kind, ref string) []Candidate {
	query := normalize(ref)
	if query == "" {
		return nil
	}
	var out []Candidate
	switch kind {
	case KindStudent:
		for _, s := range r.source.Students() {
			out = append(out, Candidate{
				ID:    s.ID,
				Label: s.Name,
				Score: fieldScore(query, normalize(s.Name)),
			})
		}
	case KindLearningObject:
		for _, lo := range r.source.LearningObjects() {
			score := fieldScore(query, normalize(lo.Title))
			if codeScore := fieldScore(query, normalize(lo.Code)); codeScore > score {
				score = codeScore
			}
			out = append(out, Candidate{
				ID:    lo.ID,
				Label: lo.Title,
				Score: score,
			})
		}
	}
	return out
}

// fieldScore is the best of exact match, token overlap and edit-distance
// similarity between a normalized query and a normalized field.
func fieldScore(query, field string) float64 {
	if field == "" {
		return 0
	}
	if query == field {
		return 1.0
	}

	score := tokenScore(strings.Fields(query), strings.Fields(field))
	if lev := levenshteinSimilarity(query, field); lev > score {
		score = lev
	}
	return score
}

// tokenScore blends query coverage (how much of the query appears in the
// field) with Jaccard overlap, so a short reference like a given name can
// match a full display name without a bare substring check.
func tokenScore(query, field []string) float64 {
	if len(query) == 0 || len(field) == 0 {
		return 0
	}
	fieldSet := make(map[string]bool, len(field))
	for _, tok := range field {
		fieldSet[tok] = true
	}
	shared := 0
	for _, tok := range query {
		if fieldSet[tok] {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	coverage := float64(shared) / float64(len(query))
	union := len(field)
	for _, tok := range query {
		if !fieldSet[tok] {
			union++
		}
	}
	jaccard := float64(shared) / float64(union)
	return 0.6*coverage + 0.4*jaccard
}

func levenshteinSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
