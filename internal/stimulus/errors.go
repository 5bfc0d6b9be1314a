package stimulus

import "fmt"

// DuplicateIDError is returned when registering an id twice.
type DuplicateIDError struct {
	ID ID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate stimulus id %q", e.ID)
}

// UnknownStimulusError is returned when looking up an id that was never registered.
type UnknownStimulusError struct {
	ID ID
}

func (e *UnknownStimulusError) Error() string {
	return fmt.Sprintf("unknown stimulus id %q", e.ID)
}
