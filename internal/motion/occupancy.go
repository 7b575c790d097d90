package motion

// State is the occupancy classification of a single frame.
type State int

const (
	// Unoccupied means no qualifying region was found.
	Unoccupied State = iota
	// Occupied means at least one region passed the area filter.
	Occupied
)

// String returns the human-readable state.
func (s State) String() string {
	switch s {
	case Occupied:
		return "Occupied"
	case Unoccupied:
		return "Unoccupied"
	default:
		return "Unknown"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify returns Occupied if any region survived filtering.
func Classify(regions []Region) State {
	if len(regions) > 0 {
		return Occupied
	}
	return Unoccupied
}
