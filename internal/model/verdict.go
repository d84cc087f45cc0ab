package model

// Verdict is the confidence tier assigned to a message or attachment after
// matching it against the user's profile.
type Verdict string

const (
	VerdictConfirmed   Verdict = "CONFIRMED_MATCH"
	VerdictPossibility Verdict = "POSSIBILITY"
	VerdictPartial     Verdict = "PARTIAL_MATCH"
	VerdictNoMatch     Verdict = "NO_MATCH"
)

// verdictRank maps each tier to its position in the total order.
// Lower rank means a stronger match. Unknown values rank below NO_MATCH
// so they can never displace a real verdict.
var verdictRank = map[Verdict]int{
	VerdictConfirmed:   0,
	VerdictPossibility: 1,
	VerdictPartial:     2,
	VerdictNoMatch:     3,
}

// Rank returns the position of v in the tier order (lower is stronger).
func (v Verdict) Rank() int {
	r, ok := verdictRank[v]
	if !ok {
		return len(verdictRank)
	}
	return r
}

// Stronger reports whether v is a strictly stronger match than other.
func (v Verdict) Stronger(other Verdict) bool {
	return v.Rank() < other.Rank()
}

// BestVerdict returns the strongest verdict among the given values.
// Every fusion and aggregation step in the pipeline is a maximum under
// the tier order, never an additive score. An empty input yields NO_MATCH.
func BestVerdict(verdicts ...Verdict) Verdict {
	best := VerdictNoMatch
	for _, v := range verdicts {
		if v.Stronger(best) {
			best = v
		}
	}
	return best
}
