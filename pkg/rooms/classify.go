package rooms

import "math"

// Classification thresholds, in square meters and meters.
const (
	hallwayMinAspect  = 3.0
	hallwayMaxWidth   = 2.0
	bathroomMaxArea   = 6.0
	bathroomMaxAspect = 1.5
	storageMaxArea    = 4.0
	kitchenMaxArea    = 10.0
	bedroomMaxArea    = 20.0
)

// Classify guesses a room's type from its floor area and proportions.
// unitsPerMeter converts plan units to meters. The result is a default
// for the user to override, not a judgement.
func Classify(r *Room, unitsPerMeter float64) RoomType {
	if r == nil || r.Area <= 0 {
		return TypeUndefined
	}
	if unitsPerMeter <= 0 {
		unitsPerMeter = 1
	}
	area := r.Area / (unitsPerMeter * unitsPerMeter)
	size := r.Size()
	width := math.Min(size.X, size.Y) / unitsPerMeter
	aspect := r.AspectRatio()

	switch {
	case aspect >= hallwayMinAspect && width <= hallwayMaxWidth:
		return TypeHallway
	case area < bathroomMaxArea && aspect <= bathroomMaxAspect:
		return TypeBathroom
	case area < storageMaxArea:
		return TypeStorage
	case area < kitchenMaxArea:
		return TypeKitchen
	case area < bedroomMaxArea:
		return TypeBedroom
	default:
		return TypeLiving
	}
}

// ClassifyRooms assigns a type to every room, but only when none of them
// has one yet; a single user-assigned type leaves the whole set alone.
// It reports whether it changed anything.
func ClassifyRooms(rooms []*Room, unitsPerMeter float64) bool {
	for _, r := range rooms {
		if r.Type != TypeUndefined {
			return false
		}
	}
	for _, r := range rooms {
		r.Type = Classify(r, unitsPerMeter)
	}
	return len(rooms) > 0
}
