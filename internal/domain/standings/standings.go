// Package standings orders participants by score with deterministic,
// tie-aware ranks.
package standings

import "sort"

// Entry is one ranked row.
//
// Ordering: score DESC, then name ASC. Equal scores share a rank and ranks
// are consecutive (1, 1, 2, ...).
type Entry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Rank sorts entries in place and assigns ranks with ties.
func Rank(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	assignRanksWithTies(entries)
}

func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}

// Extremes returns the indexes of the highest and lowest scores. Ties put
// several indexes in a group; both groups are empty when scores is empty.
func Extremes(scores []int) (top, bottom []int) {
	if len(scores) == 0 {
		return nil, nil
	}
	hi, lo := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s > hi {
			hi = s
		}
		if s < lo {
			lo = s
		}
	}
	for i, s := range scores {
		if s == hi {
			top = append(top, i)
		}
		if s == lo {
			bottom = append(bottom, i)
		}
	}
	return top, bottom
}
