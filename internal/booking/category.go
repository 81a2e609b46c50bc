package booking

import "github.com/iliyamo/bus-seat-booking/internal/model"

// Category identifies a restricted seat class.  Restricted seats are
// modelled as a tagged variant with a predicate over passenger
// attributes rather than hardcoding gender, so further classes (e.g.
// senior-citizen rows) only need a new rule entry.
type Category uint8

const (
	CategoryStandard Category = iota
	CategoryWomenOnly
)

// CategoryRule couples a restricted category with the predicate a
// passenger must satisfy to occupy a seat of that category.
type CategoryRule struct {
	Category Category
	Name     string
	Allows   func(Passenger) bool
}

// categoryRules holds the predicate for every restricted category.
// Standard seats have no entry and accept any passenger.  An unset
// gender fails the women-only predicate, so an incomplete passenger can
// never slip through a restricted seat.
var categoryRules = map[Category]CategoryRule{
	CategoryWomenOnly: {
		Category: CategoryWomenOnly,
		Name:     "women-only",
		Allows:   func(p Passenger) bool { return p.Gender == GenderFemale },
	},
}

// seatCategory maps a seat row onto its category tag.
func seatCategory(s model.Seat) Category {
	if s.IsWomenOnly {
		return CategoryWomenOnly
	}
	return CategoryStandard
}
