package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/robfig/cron/v3"
)

// Any matches every value of a recurrence field.
const Any = "*"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Rule is a five field recurrence rule evaluated in Location.
type Rule struct {
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
	Location   *time.Location
}

// Expression renders the rule as a standard cron expression.
func (r Rule) Expression() string {
	return strings.Join([]string{r.Minute, r.Hour, r.DayOfMonth, r.Month, r.DayOfWeek}, " ")
}

// Timezone returns the name of the rule's location.
func (r Rule) Timezone() string {
	if r.Location == nil {
		return time.UTC.String()
	}
	return r.Location.String()
}

func (r Rule) String() string {
	return fmt.Sprintf("CRON_TZ=%s %s", r.Timezone(), r.Expression())
}

// Next returns the first fire time strictly after t.
func (r Rule) Next(t time.Time) (time.Time, error) {
	sched, err := parser.Parse(r.String())
	if err != nil {
		return time.Time{}, errors.Wrapf(common.ErrInvalidSchedule, "parse %q: %v", r.String(), err)
	}
	next := sched.Next(t)
	if next.IsZero() {
		return time.Time{}, errors.Wrapf(common.ErrInvalidSchedule, "rule %q never fires", r.String())
	}
	return next, nil
}

// ParseRule rebuilds a Rule from a stored expression and timezone name.
func ParseRule(expr, tz string) (Rule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Rule{}, errors.Wrapf(common.ErrInvalidSchedule, "expected 5 fields, got %d in %q", len(fields), expr)
	}
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Rule{}, errors.Wrapf(common.ErrInvalidSchedule, "timezone %q: %v", tz, err)
		}
		loc = l
	}
	r := Rule{
		Minute:     fields[0],
		Hour:       fields[1],
		DayOfMonth: fields[2],
		Month:      fields[3],
		DayOfWeek:  fields[4],
		Location:   loc,
	}
	if _, err := parser.Parse(r.String()); err != nil {
		return Rule{}, errors.Wrapf(common.ErrInvalidSchedule, "parse %q: %v", expr, err)
	}
	return r, nil
}

// RuleFor derives the recurrence rule of a frequency from the minute, hour,
// day and month of the reference instant, read in loc.
func RuleFor(freq config.Frequency, ref time.Time, loc *time.Location) (Rule, error) {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)

	minute := fmt.Sprint(ref.Minute())
	hour := fmt.Sprint(ref.Hour())
	day := fmt.Sprint(ref.Day())
	month := fmt.Sprint(int(ref.Month()))
	weekday := fmt.Sprint(int(ref.Weekday()))

	r := Rule{Minute: Any, Hour: Any, DayOfMonth: Any, Month: Any, DayOfWeek: Any, Location: loc}
	switch freq {
	case config.FrequencyHourly:
		r.Minute = minute
	case config.FrequencyDaily:
		r.Minute, r.Hour = minute, hour
	case config.FrequencyWeekly:
		r.Minute, r.Hour, r.DayOfWeek = minute, hour, weekday
	case config.FrequencyMonthly:
		r.Minute, r.Hour, r.DayOfMonth = minute, hour, day
	case config.FrequencyYearly:
		r.Minute, r.Hour, r.DayOfMonth, r.Month = minute, hour, day, month
	default:
		return Rule{}, errors.Wrapf(common.ErrInvalidSchedule, "unsupported frequency %q", freq)
	}
	return r, nil
}
