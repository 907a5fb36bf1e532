package shutter

// Cue is the audible feedback played when a photo is taken.
// It represents an abstract "shutter sound", regardless of how it's
// produced (GPIO buzzer, audio output, nothing at all).
type Cue interface {
	// Play emits a single shutter cue.
	Play() error
}

// Silent is a Cue that does nothing. Used when no feedback hardware
// is present, and in tests.
type Silent struct{}

func (Silent) Play() error { return nil }
