package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RebaseMode selects how historical points relate to the live total.
type RebaseMode int

const (
	// RebaseRatio scales every historical point by live / last historical point.
	RebaseRatio RebaseMode = iota
	// RebaseNone returns raw historical valuations. The final point is still the live total.
	RebaseNone
)

func (m RebaseMode) String() string {
	if m == RebaseNone {
		return "raw"
	}
	return "rebased"
}

// Cadence is the spacing between sample dates.
type Cadence int

const (
	CadenceDaily Cadence = iota
	CadenceWeekly
	CadenceMonthly
)

func (c Cadence) String() string {
	switch c {
	case CadenceWeekly:
		return "weekly"
	case CadenceMonthly:
		return "monthly"
	default:
		return "daily"
	}
}

// Window is a concrete sample-date sequence, oldest first. The last sample is "now".
// Consecutive samples are exactly Stride cadence units apart.
type Window struct {
	Range   string
	Start   time.Time
	Cadence Cadence
	Stride  int
	Samples []time.Time
}

// MovementPoint is one sample of a reconstructed series.
type MovementPoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

// MovementResult is a reconstructed, optionally rebased, value series.
type MovementResult struct {
	Range         string
	Mode          RebaseMode
	CurrentValue  decimal.Decimal
	PreviousValue decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Since         time.Time
	Points        []MovementPoint
}

// HistoryResult is the overall series plus one series per account type.
type HistoryResult struct {
	Overall    []MovementPoint
	PerAccount map[string][]MovementPoint
}
