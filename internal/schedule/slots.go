// Package schedule owns the bookable-slot rules for meeting requests:
// which days are open, the 09:00-17:00 business window, the 15-minute
// grid, and which slots are already taken.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	startHour = 9
	endHour   = 17
	interval  = 15 // minutes
)

// Slot is one bookable interval on a given day.
type Slot struct {
	ID     string `json:"id"`   // YYYY-MM-DD-HH:MM
	Date   string `json:"date"` // YYYY-MM-DD
	Time   string `json:"time"` // HH:MM
	Booked bool   `json:"booked"`
}

// Calendar answers availability questions for the meetings form.
type Calendar struct {
	availableDates map[string]bool
	bookedSlots    map[string]bool
}

// NewCalendar builds a calendar from configured open dates
// (YYYY-MM-DD) and booked slot ids (YYYY-MM-DD-HH:MM). An empty date
// list means every day is open.
func NewCalendar(dates, booked []string) *Calendar {
	c := &Calendar{
		availableDates: make(map[string]bool, len(dates)),
		bookedSlots:    make(map[string]bool, len(booked)),
	}
	for _, d := range dates {
		if d = strings.TrimSpace(d); d != "" {
			c.availableDates[d] = true
		}
	}
	for _, s := range booked {
		if s = strings.TrimSpace(s); s != "" {
			c.bookedSlots[s] = true
		}
	}
	return c
}

// SlotsFor lists all slots for one day with availability flags.
// The day must be open on the calendar.
func (c *Calendar) SlotsFor(date string) ([]Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	if len(c.availableDates) > 0 && !c.availableDates[date] {
		return nil, fmt.Errorf("no availability on %s", date)
	}

	var slots []Slot
	for hour := startHour; hour < endHour; hour++ {
		for minute := 0; minute < 60; minute += interval {
			timeStr := fmt.Sprintf("%02d:%02d", hour, minute)
			id := date + "-" + timeStr
			slots = append(slots, Slot{
				ID:     id,
				Date:   date,
				Time:   timeStr,
				Booked: c.bookedSlots[id],
			})
		}
	}
	return slots, nil
}

// Validate checks that a submitted slot id is well-formed, lands on
// the booking grid inside business hours, is on an open day, and is
// not already taken.
func (c *Calendar) Validate(slotID string) error {
	t, err := time.ParseInLocation("2006-01-02-15:04", slotID, time.Local)
	if err != nil {
		return fmt.Errorf("invalid time slot %q", slotID)
	}
	if t.Hour() < startHour || t.Hour() >= endHour {
		return fmt.Errorf("time slot %s is outside business hours", slotID)
	}
	if t.Minute()%interval != 0 {
		return fmt.Errorf("time slot %s is not on a %d-minute boundary", slotID, interval)
	}
	if len(c.availableDates) > 0 && !c.availableDates[slotID[:10]] {
		return fmt.Errorf("no availability on %s", slotID[:10])
	}
	if c.bookedSlots[slotID] {
		return fmt.Errorf("time slot %s is already booked", slotID)
	}
	return nil
}
