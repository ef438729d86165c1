package domain

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier fragments of a field are better)
	ScorePositionBonus = 10.0

	// Exact name match bonus
	ScoreExactNameBonus = 200.0

	// Usage weight (use count contributes to final score)
	ScoreUsageWeight = 0.1
)

// Query is parsed search input.
type Query struct {
	Raw       string   // normalized input
	Fragments []string // lowercase alphanumeric words
}

// ParseQuery splits input into fragments on anything that is not a letter or digit.
// Examples:
//   - "billing read" -> ["billing", "read"]
//   - "api://graph/.default" -> ["api", "graph", "default"]
//   - "User.Read" -> ["user", "read"]
func ParseQuery(input string) *Query {
	input = strings.TrimSpace(strings.ToLower(input))
	return &Query{Raw: input, Fragments: fragments(input)}
}

// Empty reports whether the query matches everything.
func (q *Query) Empty() bool {
	return q == nil || len(q.Fragments) == 0
}

// Candidate is a favorite with its search score.
type Candidate struct {
	Favorite     Favorite
	LexicalScore float64
	UsageScore   float64
	TotalScore   float64
}

// Score rates f against q. Every query fragment must match some field of f,
// otherwise the score is 0.
func Score(q *Query, f *Favorite) float64 {
	if q.Empty() || f == nil {
		return 0.0
	}

	name := strings.ToLower(strings.TrimSpace(f.Name))
	if name != "" && q.Raw == name {
		return ScoreExactMatch + ScoreExactNameBonus
	}

	fields := [][]string{
		fragments(f.Name),
		fragments(f.Target),
		fragments(f.AppName),
		fragments(strings.Join(f.Tags, " ")),
	}

	var total float64
	for _, qFrag := range q.Fragments {
		best := 0.0
		for _, field := range fields {
			for i, frag := range field {
				if s := scoreFragment(qFrag, frag, i); s > best {
					best = s
				}
			}
		}
		if best == 0.0 {
			return 0.0
		}
		total += best
	}
	return total
}

// Rank scores favorites against q and returns matches, best first.
// Ties keep the input order.
func Rank(q *Query, favs []Favorite) []Candidate {
	candidates := make([]Candidate, 0, len(favs))
	for i := range favs {
		lexical := Score(q, &favs[i])
		if lexical == 0.0 {
			continue
		}

		// Logarithmic so heavy use cannot outrank a better textual match.
		usage := 0.0
		if favs[i].UseCount > 0 {
			usage = math.Log10(float64(favs[i].UseCount)+1) * ScoreUsageWeight * 100
		}

		candidates = append(candidates, Candidate{
			Favorite:     favs[i],
			LexicalScore: lexical,
			UsageScore:   usage,
			TotalScore:   lexical + usage,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalScore > candidates[j].TotalScore
	})
	return candidates
}

// scoreFragment scores one query fragment against one field fragment.
func scoreFragment(queryFrag, fieldFrag string, position int) float64 {
	if queryFrag == "" || fieldFrag == "" {
		return 0.0
	}

	if queryFrag == fieldFrag {
		return ScoreExactMatch + positionBonus(position)
	}
	if strings.HasPrefix(fieldFrag, queryFrag) {
		return ScorePrefixMatch + positionBonus(position)
	}
	if idx := strings.Index(fieldFrag, queryFrag); idx >= 0 {
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(idx)/float64(len(fieldFrag)))
	}

	// Short fragments are too noisy for fuzzy matching.
	if len(queryFrag) < 3 {
		return 0.0
	}
	if sim := similarity(queryFrag, fieldFrag); sim > 0.75 {
		return ScoreFuzzyMatch * sim
	}
	return 0.0
}

func positionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// similarity is the share of runes of s1 found in s2.
func similarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	matches, total := 0, 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(total)
}

func fragments(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
