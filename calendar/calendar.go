// Package calendar answers whether the exchange is open for futures
// trading: session hours, intraday clearing windows, weekends and fixed
// holidays, all evaluated in Moscow time.
package calendar

import (
	"fmt"
	"time"
)

// moscow is MSK (UTC+3), which has no daylight saving.
var moscow = time.FixedZone("MSK", 3*60*60)

type window struct {
	startHour, startMin int
	endHour, endMin     int
}

// monthDay is a fixed-date holiday.
type monthDay struct {
	month time.Month
	day   int
}

var holidays = []monthDay{
	{time.January, 1}, {time.January, 2}, {time.January, 3}, {time.January, 4},
	{time.January, 5}, {time.January, 6}, {time.January, 7}, {time.January, 8},
	{time.February, 23},
	{time.March, 8},
	{time.May, 1},
	{time.May, 9},
	{time.June, 12},
	{time.November, 4},
}

// Calendar implements the trading-calendar collaborator for the ledger.
type Calendar struct {
	// Now is the clock used when no explicit time is given; tests
	// override it.
	Now func() time.Time

	clearingWindows []window
	minPositionSize int64
}

// New returns a calendar with the MOEX futures session: 10:00-23:50 MSK
// with clearing breaks 14:00-14:05 and 18:45-19:00.
func New() *Calendar {
	return &Calendar{
		Now: time.Now,
		clearingWindows: []window{
			{14, 0, 14, 5},
			{18, 45, 19, 0},
		},
		minPositionSize: 1,
	}
}

const (
	sessionStartHour = 10
	sessionStartMin  = 0
	sessionEndHour   = 23
	sessionEndMin    = 50
)

// CanTrade reports whether trading is allowed right now, with a reason
// when it is not.
func (c *Calendar) CanTrade() (bool, string) {
	return c.CanTradeAt(c.Now())
}

// CanTradeAt checks both the trading day and the session clock for t.
func (c *Calendar) CanTradeAt(t time.Time) (bool, string) {
	t = t.In(moscow)

	if ok, reason := c.isTradingDay(t); !ok {
		return false, reason
	}
	return c.isTradingHours(t)
}

func (c *Calendar) isTradingDay(t time.Time) (bool, string) {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false, "weekend (Saturday/Sunday)"
	}
	for _, h := range holidays {
		if t.Month() == h.month && t.Day() == h.day {
			return false, "exchange holiday"
		}
	}
	return true, ""
}

func (c *Calendar) isTradingHours(t time.Time) (bool, string) {
	mins := t.Hour()*60 + t.Minute()
	start := sessionStartHour*60 + sessionStartMin
	end := sessionEndHour*60 + sessionEndMin

	if mins < start {
		return false, fmt.Sprintf("session not open yet, opens at %02d:%02d MSK", sessionStartHour, sessionStartMin)
	}
	if mins > end {
		return false, fmt.Sprintf("session closed, ended at %02d:%02d MSK", sessionEndHour, sessionEndMin)
	}

	for _, w := range c.clearingWindows {
		ws := w.startHour*60 + w.startMin
		we := w.endHour*60 + w.endMin
		if mins >= ws && mins <= we {
			return false, fmt.Sprintf("clearing break, trading resumes at %02d:%02d MSK", w.endHour, w.endMin)
		}
	}

	return true, ""
}

// ValidatePositionSize checks the whole-lot minimum. A zero target always
// passes: closing is never blocked.
func (c *Calendar) ValidatePositionSize(lots int64) (bool, string) {
	abs := lots
	if abs < 0 {
		abs = -abs
	}
	if abs == 0 {
		return true, ""
	}
	if abs < c.minPositionSize {
		return false, fmt.Sprintf("minimum position size is %d lot(s)", c.minPositionSize)
	}
	return true, ""
}

// SessionState labels where the clock sits relative to the session.
type SessionState string

const (
	StateBeforeOpen SessionState = "before_open"
	StateTrading    SessionState = "trading"
	StateClearing   SessionState = "clearing"
	StateAfterClose SessionState = "after_close"
	StateClosedDay  SessionState = "closed_day"
)

// StatusInfo describes the current trading status for dashboards.
type StatusInfo struct {
	CanTrade       bool
	Reason         string
	State          SessionState
	TimeUntilEvent time.Duration
	NextEvent      string
}

// Status reports the session state and the time until the next open,
// close or clearing end.
func (c *Calendar) Status() StatusInfo {
	t := c.Now().In(moscow)
	canTrade, reason := c.CanTradeAt(t)

	info := StatusInfo{CanTrade: canTrade, Reason: reason}

	if ok, _ := c.isTradingDay(t); !ok {
		info.State = StateClosedDay
		info.NextEvent = "next trading day"
		return info
	}

	mins := t.Hour()*60 + t.Minute()
	start := sessionStartHour*60 + sessionStartMin
	end := sessionEndHour*60 + sessionEndMin

	switch {
	case mins < start:
		info.State = StateBeforeOpen
		open := time.Date(t.Year(), t.Month(), t.Day(), sessionStartHour, sessionStartMin, 0, 0, moscow)
		info.TimeUntilEvent = open.Sub(t)
		info.NextEvent = "open"
	case mins > end:
		info.State = StateAfterClose
		open := time.Date(t.Year(), t.Month(), t.Day(), sessionStartHour, sessionStartMin, 0, 0, moscow).AddDate(0, 0, 1)
		info.TimeUntilEvent = open.Sub(t)
		info.NextEvent = "open"
	default:
		info.State = StateTrading
		closeAt := time.Date(t.Year(), t.Month(), t.Day(), sessionEndHour, sessionEndMin, 0, 0, moscow)
		info.TimeUntilEvent = closeAt.Sub(t)
		info.NextEvent = "close"

		for _, w := range c.clearingWindows {
			ws := w.startHour*60 + w.startMin
			we := w.endHour*60 + w.endMin
			if mins >= ws && mins <= we {
				info.State = StateClearing
				clearEnd := time.Date(t.Year(), t.Month(), t.Day(), w.endHour, w.endMin, 0, 0, moscow)
				info.TimeUntilEvent = clearEnd.Sub(t)
				info.NextEvent = "clearing end"
				break
			}
		}
	}

	return info
}
