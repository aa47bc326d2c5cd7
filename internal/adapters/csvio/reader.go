// Package csvio reads contest inputs from CSV and writes run results back.
//
// Every input file starts with a header row, which is skipped. Blank lines
// and lines starting with '#' are ignored. Parse failures wrap
// model.ErrConfiguration and name the offending line.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/rating"
	"github.com/okian/bracketpool/internal/domain/scoring"
)

// anySlot is the picks-file token for model.AnySlot.
const anySlot = "*"

// ReadFile opens path and decodes it with read.
func ReadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// readRows calls fn for every data row. fields is the exact column count.
func readRows(r io.Reader, fields int, fn func(rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrConfiguration, err)
		}
		if header {
			header = false
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if err := fn(rec); err != nil {
			line, _ := cr.FieldPos(0)
			return fmt.Errorf("%w: line %d: %w", model.ErrConfiguration, line, err)
		}
	}
}

func atoi(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", name, s)
	}
	return v, nil
}

// ReadTeams decodes team,rating rows.
func ReadTeams(r io.Reader) ([]rating.Record, error) {
	var out []rating.Record
	err := readRows(r, 2, func(rec []string) error {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return fmt.Errorf("rating %q is not a number", rec[1])
		}
		out = append(out, rating.Record{Team: rec[0], Rating: v})
		return nil
	})
	return out, err
}

// ReadSeeds decodes round,slot,team rows.
func ReadSeeds(r io.Reader) ([]bracket.SeedRecord, error) {
	var out []bracket.SeedRecord
	err := readRows(r, 3, func(rec []string) error {
		round, err := atoi("round", rec[0])
		if err != nil {
			return err
		}
		slot, err := atoi("slot", rec[1])
		if err != nil {
			return err
		}
		out = append(out, bracket.SeedRecord{Round: round, Slot: slot, Team: rec[2]})
		return nil
	})
	return out, err
}

// ReadPicks decodes participant,round,slot,team,points rows. A slot of "*"
// accepts the team winning any matchup of the round.
func ReadPicks(r io.Reader) ([]scoring.PickRecord, error) {
	var out []scoring.PickRecord
	err := readRows(r, 5, func(rec []string) error {
		round, err := atoi("round", rec[1])
		if err != nil {
			return err
		}
		slot := model.AnySlot
		if rec[2] != anySlot {
			if slot, err = atoi("slot", rec[2]); err != nil {
				return err
			}
		}
		points, err := atoi("points", rec[4])
		if err != nil {
			return err
		}
		out = append(out, scoring.PickRecord{
			Participant: rec[0],
			Round:       round,
			Slot:        slot,
			Team:        rec[3],
			Points:      points,
		})
		return nil
	})
	return out, err
}

// ReadBasePoints decodes participant,points rows.
func ReadBasePoints(r io.Reader) ([]scoring.BaseRecord, error) {
	var out []scoring.BaseRecord
	err := readRows(r, 2, func(rec []string) error {
		points, err := atoi("points", rec[1])
		if err != nil {
			return err
		}
		out = append(out, scoring.BaseRecord{Participant: rec[0], Points: points})
		return nil
	})
	return out, err
}

// ReadForced decodes team,round,result rows where result is win, reach or lose.
func ReadForced(r io.Reader) ([]model.ForcedOutcome, error) {
	var out []model.ForcedOutcome
	err := readRows(r, 3, func(rec []string) error {
		round, err := atoi("round", rec[1])
		if err != nil {
			return err
		}
		result, err := model.ParseForcedResult(strings.ToLower(rec[2]))
		if err != nil {
			return err
		}
		out = append(out, model.ForcedOutcome{Team: rec[0], Round: round, Result: result})
		return nil
	})
	return out, err
}
