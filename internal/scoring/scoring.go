// Package scoring implements the WSJF score aggregation and workflow status
// derivation. Everything here is a pure function over an immutable snapshot of
// backlog data; persistence and presentation live elsewhere.
package scoring

import "fmt"

// Kind says which side of the WSJF ratio a section contributes to.
type Kind string

const (
	KindValue Kind = "value"
	KindCost  Kind = "cost"
)

// Mode selects how a factor's effective score is computed.
type Mode string

const (
	// ModeAbsolute uses the stored answer's score directly.
	ModeAbsolute Mode = "absolute"
	// ModeRelative derives the score from the story's rank among peers,
	// normalized into the factor's answer range.
	ModeRelative Mode = "relative"
)

// Answer is one selectable score option for a factor.
type Answer struct {
	ID          uint
	Score       int
	Description string
}

// Factor is a scored dimension within a section.
type Factor struct {
	ID          uint
	Name        string
	Description string
	Mode        Mode
	Answers     []Answer // ordered by score ascending
}

// ScoreRange returns the factor's lowest and highest answer scores,
// defaulting to 1..5 when the factor has no answers yet.
func (f Factor) ScoreRange() (min, max int) {
	if len(f.Answers) == 0 {
		return 1, 5
	}
	min, max = f.Answers[0].Score, f.Answers[0].Score
	for _, a := range f.Answers[1:] {
		if a.Score < min {
			min = a.Score
		}
		if a.Score > max {
			max = a.Score
		}
	}
	return min, max
}

// Section is a named grouping of factors on the value or cost side.
type Section struct {
	ID      uint
	Name    string
	Kind    Kind
	Factors []Factor
}

// FactorScore is one story's recorded score for one factor.
//
// Answer nil means undefined (not yet scored) — distinct from an answer whose
// score happens to be 0. Rank nil means unranked; rank 0 means "does not
// apply"; rank N > 0 is the story's position among ranked peers.
type FactorScore struct {
	FactorID uint
	Answer   *Answer
	Rank     *int
}

// Input is the snapshot Compute operates on. Sections carry the scoring
// configuration; Scores the story's rows; RankedCounts the number of stories
// with rank > 0 per relative factor (computed over whatever story set the
// caller is reporting on).
type Input struct {
	Sections     []Section
	Scores       []FactorScore
	RankedCounts map[uint]int

	// Tweaks substitutes effective scores by factor ID before averaging.
	// Read-only what-if override; stored scores are untouched.
	Tweaks map[uint]float64

	// ForceAbsolute evaluates every factor in absolute mode, reproducing
	// the classic report regardless of per-factor modes.
	ForceAbsolute bool
}

// FactorResult is one factor's contribution in the report breakdown.
type FactorResult struct {
	FactorID    uint
	Name        string
	Description string
	Mode        Mode
	Score       *float64 // nil when excluded from the average
	Rank        *int
	RankedCount int
	Answer      string // matched answer description, empty when undefined
	Tweaked     bool
}

// SectionResult holds a section's average and its per-factor breakdown.
// NoData distinguishes an empty section (average 0 because nothing was
// scoreable) from factors that genuinely average to 0.
type SectionResult struct {
	SectionID uint
	Name      string
	Kind      Kind
	Average   float64
	NoData    bool
	Factors   []FactorResult
}

// Report is the aggregated WSJF result for one story.
type Report struct {
	Sections   []SectionResult
	TotalValue float64
	TotalCost  float64

	// Result is TotalValue / TotalCost, nil when TotalCost is 0.
	Result *float64
}

// ResultOrZero collapses an undefined ratio to 0 for sorting.
func (r Report) ResultOrZero() float64 {
	if r.Result == nil {
		return 0
	}
	return *r.Result
}

// NormalizeRank maps a rank onto the factor's answer scale by linear
// interpolation. Rank 1 is always the best rank: for value factors
// (invert=false) it maps to maxScore, for cost factors (invert=true) to
// minScore. A ranked count of 1 short-circuits to the best endpoint.
func NormalizeRank(rank, rankedCount, minScore, maxScore int, invert bool) float64 {
	if rankedCount <= 1 {
		if invert {
			return float64(minScore)
		}
		return float64(maxScore)
	}
	t := float64(rank-1) / float64(rankedCount-1)
	if invert {
		return float64(minScore) + t*float64(maxScore-minScore)
	}
	return float64(maxScore) - t*float64(maxScore-minScore)
}

// HasUndefined reports whether any factor in the configuration lacks a
// defined score: relative factors need a rank (0 is defined, "does not
// apply"), absolute factors need an answer. Missing rows count as undefined.
func HasUndefined(sections []Section, scores []FactorScore) bool {
	byFactor := make(map[uint]FactorScore, len(scores))
	for _, fs := range scores {
		byFactor[fs.FactorID] = fs
	}
	for _, sec := range sections {
		for _, f := range sec.Factors {
			fs, ok := byFactor[f.ID]
			if !ok {
				return true
			}
			if f.Mode == ModeRelative {
				if fs.Rank == nil {
					return true
				}
			} else if fs.Answer == nil {
				return true
			}
		}
	}
	return false
}

// Compute aggregates a story's factor scores into section averages, value and
// cost totals, and the WSJF ratio. It is deterministic and side-effect free.
//
// A score row referencing a factor that is not in any given section is an
// integration defect and returns an error rather than being skipped.
func Compute(in Input) (Report, error) {
	known := make(map[uint]bool)
	for _, s := range in.Sections {
		for _, f := range s.Factors {
			known[f.ID] = true
		}
	}

	scores := make(map[uint]FactorScore, len(in.Scores))
	for _, fs := range in.Scores {
		if !known[fs.FactorID] {
			return Report{}, fmt.Errorf("scoring: score references unknown factor %d", fs.FactorID)
		}
		scores[fs.FactorID] = fs
	}

	var rep Report
	for _, sec := range in.Sections {
		sr := SectionResult{SectionID: sec.ID, Name: sec.Name, Kind: sec.Kind}
		var sum float64
		var n int
		for _, f := range sec.Factors {
			fr := evalFactor(in, sec.Kind, f, scores)
			if fr.Score != nil {
				sum += *fr.Score
				n++
			}
			sr.Factors = append(sr.Factors, fr)
		}
		if n > 0 {
			sr.Average = sum / float64(n)
		} else {
			sr.NoData = true
		}
		switch sec.Kind {
		case KindValue:
			rep.TotalValue += sr.Average
		case KindCost:
			rep.TotalCost += sr.Average
		}
		rep.Sections = append(rep.Sections, sr)
	}

	if rep.TotalCost > 0 {
		ratio := rep.TotalValue / rep.TotalCost
		rep.Result = &ratio
	}
	return rep, nil
}

// evalFactor computes one factor's effective score, or nil when the factor is
// excluded from its section average.
func evalFactor(in Input, kind Kind, f Factor, scores map[uint]FactorScore) FactorResult {
	fr := FactorResult{FactorID: f.ID, Name: f.Name, Description: f.Description, Mode: f.Mode}

	if tw, ok := in.Tweaks[f.ID]; ok {
		v := tw
		fr.Score = &v
		fr.Tweaked = true
		return fr
	}

	fs, ok := scores[f.ID]
	if !ok {
		// No score row at all: undefined.
		return fr
	}
	fr.Rank = fs.Rank
	if fs.Answer != nil {
		fr.Answer = fs.Answer.Description
	}

	mode := f.Mode
	if in.ForceAbsolute || mode == "" {
		mode = ModeAbsolute
	}
	fr.Mode = mode

	switch mode {
	case ModeRelative:
		if fs.Rank == nil || *fs.Rank <= 0 {
			// nil = unranked, 0 = does not apply; both excluded.
			return fr
		}
		min, max := f.ScoreRange()
		count := in.RankedCounts[f.ID]
		if count < 1 {
			count = 1
		}
		fr.RankedCount = count
		v := NormalizeRank(*fs.Rank, count, min, max, kind == KindCost)
		fr.Score = &v
	default:
		if fs.Answer == nil {
			return fr
		}
		v := float64(fs.Answer.Score)
		fr.Score = &v
	}
	return fr
}
