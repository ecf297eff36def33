package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/runclub/backend/internal/models"
)

// RunFields are the raw create-run inputs, as submitted.
type RunFields struct {
	Title           string     `json:"title" form:"title"`
	Description     string     `json:"description" form:"description"`
	Location        string     `json:"location" form:"location"`
	Date            string     `json:"date" form:"date"`
	Time            string     `json:"time" form:"time"`
	Distance        string     `json:"distance" form:"distance"`
	Pace            string     `json:"pace" form:"pace"`
	MaxParticipants LimitInput `json:"maxParticipants" form:"maxParticipants"`
}

// LimitInput is a participant limit as submitted. JSON clients may send a
// number or a string; forms always send a string.
type LimitInput string

func (l *LimitInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*l = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = LimitInput(s)
	default:
		*l = LimitInput(raw)
	}
	return nil
}

// RunValues is the echo of RunFields sent back with a failed submission.
// MaxParticipants keeps the submitted text so an invalid entry can be
// corrected in place.
type RunValues struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Distance        string `json:"distance"`
	Pace            string `json:"pace"`
	MaxParticipants string `json:"maxParticipants"`
}

// Echo returns the values in the shape forms expect. An empty limit echoes
// the default.
func (f *RunFields) Echo() RunValues {
	limit := strings.TrimSpace(string(f.MaxParticipants))
	if limit == "" {
		limit = strconv.Itoa(models.DefaultParticipants)
	}
	return RunValues{
		Title:           f.Title,
		Description:     f.Description,
		Location:        f.Location,
		Date:            f.Date,
		Time:            f.Time,
		Distance:        f.Distance,
		Pace:            f.Pace,
		MaxParticipants: limit,
	}
}

// ParticipantLimit parses MaxParticipants. An empty value means the default.
func (f *RunFields) ParticipantLimit() (int, bool) {
	raw := strings.TrimSpace(string(f.MaxParticipants))
	if raw == "" {
		return models.DefaultParticipants, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRunStart combines a run's date and time strings into one instant.
func ParseRunStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	clock = strings.TrimSpace(clock)
	layout := models.RunDateLayout + "T" + models.RunTimeLayout
	// Accept HH:MM:SS as browsers sometimes send seconds.
	if strings.Count(clock, ":") == 2 {
		layout += ":05"
	}
	return time.ParseInLocation(layout, strings.TrimSpace(date)+"T"+clock, loc)
}

// ValidateCreateRun checks every create-run rule and returns all violations
// in a stable order. It has no side effects.
func ValidateCreateRun(f *RunFields, now time.Time, loc *time.Location) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Title is required"})
	}
	if strings.TrimSpace(f.Location) == "" {
		errs = append(errs, FieldError{Field: "location", Message: "Location is required"})
	}

	date := strings.TrimSpace(f.Date)
	clock := strings.TrimSpace(f.Time)
	if date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "Date is required"})
	}
	if clock == "" {
		errs = append(errs, FieldError{Field: "time", Message: "Time is required"})
	}
	if date != "" && clock != "" {
		startsAt, err := ParseRunStart(date, clock, loc)
		switch {
		case err != nil:
			errs = append(errs, FieldError{Field: "date", Message: "Date and time are invalid"})
		case !startsAt.After(now):
			errs = append(errs, FieldError{Field: "date", Message: "Date and time must be in the future"})
		}
	}

	n, ok := f.ParticipantLimit()
	if !ok || n < models.MinParticipants || n > models.MaxParticipants {
		errs = append(errs, FieldError{Field: "maxParticipants", Message: "Participants must be between 1 and 50"})
	}

	return errs
}
