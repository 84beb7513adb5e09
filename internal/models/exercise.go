package models

import (
	"fmt"
	"strings"
)

// ExerciseType is one entry of the exercise catalogue. Rest is the zero value.
type ExerciseType uint8

const (
	Rest ExerciseType = iota
	Cardio
	ResistanceUpper
	ResistanceLower
	ResistanceFull
	Flexibility
)

// NumExerciseTypes is the size of the exercise catalogue including Rest.
const NumExerciseTypes = 6

var exerciseTypeNames = [NumExerciseTypes]string{
	"rest", "cardio", "resistance_upper", "resistance_lower", "resistance_full", "flexibility",
}

func (t ExerciseType) String() string {
	if int(t) < len(exerciseTypeNames) {
		return exerciseTypeNames[t]
	}
	return fmt.Sprintf("exercise_type(%d)", t)
}

// IsResistance reports whether t is one of the resistance variants.
func (t ExerciseType) IsResistance() bool {
	return t == ResistanceUpper || t == ResistanceLower || t == ResistanceFull
}

// ParseExerciseType parses the catalogue name of an exercise type.
func ParseExerciseType(s string) (ExerciseType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range exerciseTypeNames {
		if s == name {
			return ExerciseType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown exercise type %q", s)
}

func (t ExerciseType) MarshalText() ([]byte, error) {
	if int(t) >= NumExerciseTypes {
		return nil, fmt.Errorf("invalid exercise type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *ExerciseType) UnmarshalText(b []byte) error {
	parsed, err := ParseExerciseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ExerciseSet is a bitset over ExerciseType.
type ExerciseSet uint8

// NewExerciseSet builds a set from the given types.
func NewExerciseSet(types ...ExerciseType) ExerciseSet {
	var s ExerciseSet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

func (s ExerciseSet) Has(t ExerciseType) bool { return s&(1<<t) != 0 }

func (s ExerciseSet) With(t ExerciseType) ExerciseSet { return s | 1<<t }

// Types lists the members in catalogue order.
func (s ExerciseSet) Types() []ExerciseType {
	out := []ExerciseType{}
	for t := ExerciseType(0); t < NumExerciseTypes; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Intensity is the effort level of a session.
type Intensity uint8

const (
	Low Intensity = iota
	Moderate
	High
)

// NumIntensities is the size of the intensity domain.
const NumIntensities = 3

var intensityNames = [NumIntensities]string{"low", "moderate", "high"}

func (i Intensity) String() string {
	if int(i) < len(intensityNames) {
		return intensityNames[i]
	}
	return fmt.Sprintf("intensity(%d)", i)
}

// ParseIntensity parses "low", "moderate" or "high".
func ParseIntensity(s string) (Intensity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range intensityNames {
		if s == name {
			return Intensity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown intensity %q", s)
}

func (i Intensity) MarshalText() ([]byte, error) {
	if int(i) >= NumIntensities {
		return nil, fmt.Errorf("invalid intensity %d", i)
	}
	return []byte(i.String()), nil
}

func (i *Intensity) UnmarshalText(b []byte) error {
	parsed, err := ParseIntensity(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// SessionDurations is the ordered duration domain in minutes.
var SessionDurations = [...]int{15, 30, 45, 60, 75, 90}

// NumDurations is the size of the duration domain.
const NumDurations = len(SessionDurations)

// DurationIndex returns the position of minutes in SessionDurations.
func DurationIndex(minutes int) (int, bool) {
	for i, d := range SessionDurations {
		if d == minutes {
			return i, true
		}
	}
	return 0, false
}

// Weekday is a day of the week with Monday as day zero.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
var weekdayLong = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if int(d) < len(weekdayNames) {
		return weekdayNames[d]
	}
	return fmt.Sprintf("weekday(%d)", d)
}

// Long returns the capitalized full name, e.g. "Monday".
func (d Weekday) Long() string {
	if int(d) >= len(weekdayLong) {
		return d.String()
	}
	s := weekdayLong[d]
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseWeekday accepts short ("mon") and long ("monday") names, any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := range weekdayNames {
		if s == weekdayNames[i] || s == weekdayLong[i] {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if d > Sunday {
		return nil, fmt.Errorf("invalid weekday %d", d)
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeekdaySet is a bitset over Weekday.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << d
	}
	return s
}

func (s WeekdaySet) Has(d Weekday) bool { return s&(1<<d) != 0 }

// Len returns the number of days in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days lists the members from Monday to Sunday.
func (s WeekdaySet) Days() []Weekday {
	out := []Weekday{}
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}
