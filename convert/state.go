package convert

// State is a stage of a conversion.
type State int

const (
	Idle State = iota
	LoadingMapping
	Substituting
	InsertingImages
	Serializing
	Done
	Failed
)

var stateNames = [...]string{
	Idle:            "idle",
	LoadingMapping:  "loading_mapping",
	Substituting:    "substituting",
	InsertingImages: "inserting_images",
	Serializing:     "serializing",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Observer is called on every state transition.
type Observer func(from, to State)
