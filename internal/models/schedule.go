package models

import (
	"fmt"
	"strings"
	"time"
)

// Day is one of the seven weekly buckets of the schedule, Saturday first.
type Day string

// Week days in schedule order.
const (
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
)

// Week lists the day buckets in their fixed order.
var Week = [7]Day{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

var dayByName = map[string]Day{
	"saturday":  Saturday,
	"sunday":    Sunday,
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
}

// ParseDay maps a day name to its bucket, case-insensitively.
func ParseDay(name string) (Day, error) {
	day, ok := dayByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown day %q", name)
	}
	return day, nil
}

// NormalizeTimeOfDay validates a wall-clock time-of-day value and returns it
// in HH:MM:SS form. Accepted inputs are HH:MM and HH:MM:SS. The normalized
// form compares correctly as a plain string.
func NormalizeTimeOfDay(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time of day %q", value)
}

// Session places a course into a classroom for a time interval on one day of
// the weekly grid. Times carry no date or timezone.
type Session struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Day         Day       `db:"day" json:"day"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Overlaps applies the inclusive three-way interval test: the new interval
// collides when its start or end falls within the existing one, or when it
// fully contains it.
func (s Session) Overlaps(start, end string) bool {
	if s.StartTime <= start && start <= s.EndTime {
		return true
	}
	if s.StartTime <= end && end <= s.EndTime {
		return true
	}
	return start <= s.StartTime && s.EndTime <= end
}

// SessionDetail enriches Session with course and classroom summaries.
type SessionDetail struct {
	Session
	CourseName     string `db:"course_name" json:"course_name"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	ClassroomName  string `db:"classroom_name" json:"classroom_name"`
	Capacity       int    `db:"capacity" json:"capacity"`
}

// DaySchedule is one ordered bucket of the weekly view.
type DaySchedule struct {
	Day      Day             `json:"day"`
	Sessions []SessionDetail `json:"sessions"`
}

// WeekSchedule is the full weekly view, Saturday through Friday.
type WeekSchedule struct {
	Days []DaySchedule `json:"days"`
}

// SlotConflictError is returned when a session collides with an existing one
// in the same classroom and day bucket.
type SlotConflictError struct {
	Existing SessionDetail `json:"existing"`
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("slot taken by session %s (%s %s-%s)", e.Existing.ID, e.Existing.Day, e.Existing.StartTime, e.Existing.EndTime)
}
