package booking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

func validGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

func validMeal(m string) bool {
	return m == MealNone || m == MealVeg || m == MealNonVeg
}

// validateRequest performs structural validation only: field presence,
// formats and matching counts.  It runs before the engine opens a
// transaction, so a request rejected here never touches the database.
// Returns nil when the request is well-formed.
func validateRequest(req Request) *InvalidRequestError {
	var fields []string

	if req.TripID == 0 {
		fields = append(fields, "trip_id")
	}
	if len(req.SeatIDs) == 0 {
		fields = append(fields, "seat_ids")
	} else {
		seen := make(map[uint64]struct{}, len(req.SeatIDs))
		for _, id := range req.SeatIDs {
			if id == 0 {
				fields = append(fields, "seat_ids")
				break
			}
			if _, dup := seen[id]; dup {
				fields = append(fields, "seat_ids")
				break
			}
			seen[id] = struct{}{}
		}
	}
	if len(req.Passengers) != len(req.SeatIDs) {
		fields = append(fields, "passengers")
	}
	for i, p := range req.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			fields = append(fields, fmt.Sprintf("passengers[%d].name", i))
		}
		if p.Age < 1 || p.Age > 120 {
			fields = append(fields, fmt.Sprintf("passengers[%d].age", i))
		}
		if !validGender(p.Gender) {
			fields = append(fields, fmt.Sprintf("passengers[%d].gender", i))
		}
		if !validMeal(p.Meal) {
			fields = append(fields, fmt.Sprintf("passengers[%d].meal", i))
		}
	}
	if !emailPattern.MatchString(req.Contact.Email) {
		fields = append(fields, "contact.email")
	}
	if !phonePattern.MatchString(req.Contact.Phone) {
		fields = append(fields, "contact.phone")
	}

	if len(fields) > 0 {
		return &InvalidRequestError{Fields: fields}
	}
	return nil
}

// checkEligibility enforces the category predicate for every restricted
// seat.  seats must already be sequenced to match the passenger list
// (passenger i occupies seats[i]).  The check is read-only and runs
// before the claim flips any status.
func checkEligibility(seats []model.Seat, passengers []Passenger) *EligibilityError {
	var violated []uint32
	for i, s := range seats {
		rule, restricted := categoryRules[seatCategory(s)]
		if !restricted {
			continue
		}
		if !rule.Allows(passengers[i]) {
			violated = append(violated, s.SeatNumber)
		}
	}
	if len(violated) > 0 {
		return &EligibilityError{SeatNumbers: violated}
	}
	return nil
}
