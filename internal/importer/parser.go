package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/units"
)

// ParsedSession is one workout from a history export.
type ParsedSession struct {
	Name      string
	Date      time.Time
	Duration  time.Duration
	Exercises []ParsedExercise
}

// ParsedExercise groups the sets logged for one exercise name.
type ParsedExercise struct {
	Name string
	Sets []ParsedSet
}

// ParsedSet is one logged set, weight normalized to kg.
type ParsedSet struct {
	WeightKg float64
	Reps     int
}

// Expected column order of a Strong-style CSV export.
var expectedHeader = []string{
	"Date", "Workout Name", "Duration", "Exercise Name", "Set Order", "Weight", "Weight Unit", "Reps",
}

// Parse reads a Strong-style CSV export: one row per set, grouped into
// sessions by date + workout name. Exercises keep first-appearance order;
// sets keep their set-order column. Weights are normalized to kg using the
// row's unit column, falling back to kg.
func Parse(r io.Reader) ([]ParsedSession, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], want)
		}
	}

	var sessions []ParsedSession
	index := make(map[string]int) // date|name → sessions index

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		name := strings.TrimSpace(record[1])
		exerciseName := strings.TrimSpace(record[3])
		if exerciseName == "" {
			return nil, fmt.Errorf("line %d: empty exercise name", line)
		}

		key := record[0] + "|" + name
		si, ok := index[key]
		if !ok {
			duration, err := parseDuration(record[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			si = len(sessions)
			index[key] = si
			sessions = append(sessions, ParsedSession{Name: name, Date: date, Duration: duration})
		}

		set, err := parseSet(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := &sessions[si]
		ei := -1
		for i := range s.Exercises {
			if s.Exercises[i].Name == exerciseName {
				ei = i
				break
			}
		}
		if ei < 0 {
			ei = len(s.Exercises)
			s.Exercises = append(s.Exercises, ParsedExercise{Name: exerciseName})
		}
		s.Exercises[ei].Sets = append(s.Exercises[ei].Sets, set)
	}

	return sessions, nil
}

func parseSet(record []string) (ParsedSet, error) {
	weightStr := strings.TrimSpace(record[5])
	if weightStr == "" {
		weightStr = "0"
	}
	fallback := units.ParseWeightUnit(record[6])
	weight, unit, err := units.ParseWeight(weightStr, fallback)
	if err != nil {
		return ParsedSet{}, fmt.Errorf("bad weight: %w", err)
	}

	reps, err := strconv.Atoi(strings.TrimSpace(record[7]))
	if err != nil || reps < 0 {
		return ParsedSet{}, fmt.Errorf("bad rep count %q", record[7])
	}

	return ParsedSet{WeightKg: units.StoreWeight(weight, unit), Reps: reps}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// parseDuration accepts "1h 2m", "45m", "1:02:00" or a bare minute count.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) == 3 {
			h, err1 := strconv.Atoi(parts[0])
			m, err2 := strconv.Atoi(parts[1])
			sec, err3 := strconv.Atoi(parts[2])
			if err1 == nil && err2 == nil && err3 == nil {
				return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
			}
		}
		return 0, fmt.Errorf("bad duration %q", s)
	}
	if d, err := time.ParseDuration(strings.ReplaceAll(s, " ", "")); err == nil {
		return d, nil
	}
	if mins, err := strconv.Atoi(s); err == nil {
		return time.Duration(mins) * time.Minute, nil
	}
	return 0, fmt.Errorf("bad duration %q", s)
}
