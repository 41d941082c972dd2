package importer

import (
	"math"
	"strings"
	"testing"
	"time"
)

const sampleExport = `Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Weight Unit,Reps
2026-03-01 07:30:00,Push Day,1:05:00,Bench Press,1,100,kg,8
2026-03-01 07:30:00,Push Day,1:05:00,Bench Press,2,100,kg,6
2026-03-01 07:30:00,Push Day,1:05:00,Overhead Press,1,60,kg,5
2026-03-03 18:00:00,Pull Day,45m,Deadlift,1,315,lbs,5
2026-03-03 18:00:00,Pull Day,45m,Deadlift,2,315,lbs,3
`

// TestParseGroupsSessionsAndExercises verifies rows group into sessions by
// date+name, exercises keep first-seen order, and sets stay in order.
func TestParseGroupsSessionsAndExercises(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	push := sessions[0]
	if push.Name != "Push Day" {
		t.Errorf("name = %q", push.Name)
	}
	if push.Duration != 65*time.Minute {
		t.Errorf("duration = %v, want 1h5m", push.Duration)
	}
	if len(push.Exercises) != 2 {
		t.Fatalf("push exercises = %d, want 2", len(push.Exercises))
	}
	if push.Exercises[0].Name != "Bench Press" || push.Exercises[1].Name != "Overhead Press" {
		t.Errorf("exercise order = %q, %q", push.Exercises[0].Name, push.Exercises[1].Name)
	}
	if n := len(push.Exercises[0].Sets); n != 2 {
		t.Fatalf("bench sets = %d, want 2", n)
	}
	if got := push.Exercises[0].Sets[1]; got.WeightKg != 100 || got.Reps != 6 {
		t.Errorf("bench set 2 = %+v", got)
	}
}

// TestParseNormalizesPounds verifies lbs weights are stored as kg.
func TestParseNormalizesPounds(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatal(err)
	}
	pull := sessions[1]
	got := pull.Exercises[0].Sets[0].WeightKg
	// 315 lbs ≈ 142.88 kg.
	if math.Abs(got-142.88) > 0.01 {
		t.Errorf("deadlift weight = %v kg, want ~142.88", got)
	}
}

// TestParseRejectsBadHeader verifies column validation.
func TestParseRejectsBadHeader(t *testing.T) {
	input := "When,What,How Long,Move,Order,Weight,Unit,Reps\n"
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("bad header accepted")
	}
}

// TestParseRejectsBadRows covers malformed dates, reps and weights.
func TestParseRejectsBadRows(t *testing.T) {
	header := "Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Weight Unit,Reps\n"
	tests := []struct {
		name string
		row  string
	}{
		{"bad date", "yesterday,W,30m,Squat,1,100,kg,5"},
		{"bad reps", "2026-03-01,W,30m,Squat,1,100,kg,five"},
		{"negative reps", "2026-03-01,W,30m,Squat,1,100,kg,-2"},
		{"bad weight", "2026-03-01,W,30m,Squat,1,heavy,kg,5"},
		{"empty exercise", "2026-03-01,W,30m,,1,100,kg,5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(header + tt.row + "\n")); err == nil {
				t.Errorf("row %q accepted", tt.row)
			}
		})
	}
}

// TestParseEmptyWeightDefaultsToZero verifies bodyweight rows parse as 0 kg.
func TestParseEmptyWeightDefaultsToZero(t *testing.T) {
	input := "Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Weight Unit,Reps\n" +
		"2026-03-01,Calisthenics,30m,Pull Up,1,,kg,12\n"
	sessions, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	set := sessions[0].Exercises[0].Sets[0]
	if set.WeightKg != 0 || set.Reps != 12 {
		t.Errorf("set = %+v, want 0 kg / 12 reps", set)
	}
}
