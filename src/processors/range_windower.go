package processors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/portfoliotracker/src/models"
)

// ErrInvalidRange is returned for an unknown range token.
var ErrInvalidRange = errors.New("invalid range token")

// MaxSamplePoints bounds every window, "now" included.
const MaxSamplePoints = 7

// Range tokens.
const (
	Range7D  = "7d"
	Range1M  = "1m"
	Range3M  = "3m"
	RangeYTD = "ytd"
	RangeAll = "all"
)

// ValidRanges lists the accepted range tokens.
var ValidRanges = []string{Range7D, Range1M, Range3M, RangeYTD, RangeAll}

// ParseRange normalizes a range token. Empty means 1m.
func ParseRange(token string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return Range1M, nil
	}
	for _, r := range ValidRanges {
		if t == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidRange, token, strings.Join(ValidRanges, ", "))
}

// BuildWindow turns a range token into a sample-date sequence ending at now.
// earliest is the oldest ledger edit and is only used by the "all" range;
// a zero earliest means the ledger is empty.
func BuildWindow(token string, now, earliest time.Time) (models.Window, error) {
	r, err := ParseRange(token)
	if err != nil {
		return models.Window{}, err
	}

	var (
		start   time.Time
		cadence models.Cadence
	)
	switch r {
	case Range7D:
		// Seven daily points, today included.
		start, cadence = now.AddDate(0, 0, -(MaxSamplePoints-1)), models.CadenceDaily
	case Range1M:
		start, cadence = now.AddDate(0, -1, 0), models.CadenceDaily
	case Range3M:
		start, cadence = now.AddDate(0, -3, 0), models.CadenceWeekly
	case RangeYTD:
		start, cadence = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), models.CadenceWeekly
	case RangeAll:
		start, cadence = now, models.CadenceMonthly
		if !earliest.IsZero() && earliest.Before(now) {
			start = earliest
		}
	}
	return newWindow(r, start, now, cadence), nil
}

// DailyWindow samples the last days days at daily cadence, bounded like every window.
func DailyWindow(days int, now time.Time) models.Window {
	return newWindow(fmt.Sprintf("%dd", days), now.AddDate(0, 0, -days), now, models.CadenceDaily)
}

// newWindow steps back from now in multiples of one cadence unit, never
// before start. The stride is the fewest units that keep the window within
// MaxSamplePoints, so every gap is the same number of units.
func newWindow(r string, start, now time.Time, cadence models.Cadence) models.Window {
	units := 0
	for !step(now, cadence, -(units + 1)).Before(start) {
		units++
	}
	stride := 1
	if units > MaxSamplePoints-1 {
		stride = (units + MaxSamplePoints - 2) / (MaxSamplePoints - 1)
	}
	count := units / stride
	if count > MaxSamplePoints-1 {
		count = MaxSamplePoints - 1
	}

	samples := make([]time.Time, 0, count+1)
	for k := count; k > 0; k-- {
		samples = append(samples, step(now, cadence, -k*stride))
	}
	samples = append(samples, now)
	return models.Window{
		Range:   r,
		Start:   samples[0],
		Cadence: cadence,
		Stride:  stride,
		Samples: samples,
	}
}

// step moves n cadence units from t. Months clamp to the last day so the
// 31st never spills into the next month.
func step(t time.Time, cadence models.Cadence, n int) time.Time {
	switch cadence {
	case models.CadenceWeekly:
		return t.AddDate(0, 0, 7*n)
	case models.CadenceMonthly:
		first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		lastDay := first.AddDate(0, 1, -1).Day()
		day := t.Day()
		if day > lastDay {
			day = lastDay
		}
		return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	default:
		return t.AddDate(0, 0, n)
	}
}
