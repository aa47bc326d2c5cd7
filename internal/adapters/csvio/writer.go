package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/standings"
)

// TieRow names the row carrying tie counters in WriteResults output.
const TieRow = "(tied)"

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// WriteResults writes a run summary line followed by one row per participant,
// best first-place share first, and a final row of tie counters.
func WriteResults(w io.Writer, stats *model.AggregateStats) error {
	if _, err := fmt.Fprintf(w, "# trials=%d seed=%d tie_policy=%s\n", stats.Trials, stats.Seed, stats.TiePolicy); err != nil {
		return err
	}

	entries := make([]standings.Entry, 0, len(stats.Participants))
	for name, p := range stats.Participants {
		entries = append(entries, standings.Entry{Name: name, Score: float64(p.FirstPlace)})
	}
	standings.Rank(entries)

	cw := csv.NewWriter(w)
	rows := [][]string{{"participant", "first", "last", "first_pct", "last_pct"}}
	for _, e := range entries {
		p := stats.Participants[e.Name]
		rows = append(rows, []string{
			p.Name,
			strconv.Itoa(p.FirstPlace),
			strconv.Itoa(p.LastPlace),
			pct(p.FirstPlacePct),
			pct(p.LastPlacePct),
		})
	}
	var firstTies, lastTies float64
	if stats.Trials > 0 {
		firstTies = float64(stats.FirstPlaceTies) / float64(stats.Trials)
		lastTies = float64(stats.LastPlaceTies) / float64(stats.Trials)
	}
	rows = append(rows, []string{
		TieRow,
		strconv.Itoa(stats.FirstPlaceTies),
		strconv.Itoa(stats.LastPlaceTies),
		pct(firstTies),
		pct(lastTies),
	})
	return cw.WriteAll(rows)
}

// WriteFocal writes, for the focal participant's winning trials, how often
// each team won in each round. It writes nothing when stats has no focal data.
func WriteFocal(w io.Writer, stats *model.AggregateStats) error {
	f := stats.Focal
	if f == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# focal=%s wins=%d trials=%d\n", f.Participant, f.Wins, stats.Trials); err != nil {
		return err
	}

	teams := make([]string, 0, len(f.RoundFrequency))
	rounds := 0
	for team, freq := range f.RoundFrequency {
		teams = append(teams, team)
		rounds = max(rounds, len(freq))
	}
	sort.Strings(teams)

	header := make([]string, 0, rounds+1)
	header = append(header, "team")
	for r := 1; r <= rounds; r++ {
		header = append(header, "round_"+strconv.Itoa(r))
	}

	cw := csv.NewWriter(w)
	rows := [][]string{header}
	for _, team := range teams {
		row := make([]string, rounds+1)
		row[0] = team
		for r, v := range f.RoundFrequency[team] {
			row[r+1] = pct(v)
		}
		rows = append(rows, row)
	}
	return cw.WriteAll(rows)
}
