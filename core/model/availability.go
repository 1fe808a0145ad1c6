package model

import "time"

// DayAvailability is the bookable state of a partner for one date.
type DayAvailability struct {
	Date        time.Time `json:"date"`
	FreeHours   float64   `json:"free_hours"`
	BookedHours float64   `json:"booked_hours"`
}

// AvailabilitySnapshot captures a partner's availability over a request
// window. Snapshots are read-only inputs and must be re-read after every
// assignment commit; they are never cached across optimization runs.
type AvailabilitySnapshot struct {
	PartnerID string            `json:"partner_id"`
	Window    TimeWindow        `json:"window"`
	Days      []DayAvailability `json:"days"`
}

// FreeHours sums the bookable hours across the snapshot window.
func (s AvailabilitySnapshot) FreeHours() float64 {
	var total float64
	for _, d := range s.Days {
		if d.FreeHours > 0 {
			total += d.FreeHours
		}
	}
	return total
}

// BookedHours sums the hours already committed across the window.
func (s AvailabilitySnapshot) BookedHours() float64 {
	var total float64
	for _, d := range s.Days {
		total += d.BookedHours
	}
	return total
}
