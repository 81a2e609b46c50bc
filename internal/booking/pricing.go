package booking

// MealSurcharge is the flat per-passenger charge for any meal
// preference other than NONE, in whole currency units.
const MealSurcharge = 100

// Quote computes the total charge for a seat set: one fare per
// passenger plus the meal surcharge for every passenger who selected a
// meal.  It is a pure function with no I/O; the engine calls it exactly
// once per transaction so quote and charge can never diverge.
func Quote(pricePerSeat uint32, passengers []Passenger) uint32 {
	total := uint32(len(passengers)) * pricePerSeat
	for _, p := range passengers {
		if p.Meal != MealNone {
			total += MealSurcharge
		}
	}
	return total
}
