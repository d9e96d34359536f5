package tts

import "fmt"

// KeyRing holds the API key rotation pool for synthesis. The active index
// is sticky: it only moves forward when a key is exhausted, and the
// position survives restarts via the progress marker.
type KeyRing struct {
	keys  []string
	index int
}

// NewKeyRing creates a rotation pool. At least one key is required.
func NewKeyRing(keys []string) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	return &KeyRing{keys: keys}, nil
}

// Len returns the number of keys in the pool
func (r *KeyRing) Len() int {
	return len(r.keys)
}

// Index returns the active key position
func (r *KeyRing) Index() int {
	return r.index
}

// SetIndex restores the active position, ignoring out-of-range values
func (r *KeyRing) SetIndex(index int) {
	if index >= 0 && index < len(r.keys) {
		r.index = index
	}
}

// Current returns the active key
func (r *KeyRing) Current() string {
	return r.keys[r.index]
}

// Advance moves to the next key and reports whether one was available.
// The pool does not wrap: once the last key is reached, Advance returns
// false and the caller treats the pool as exhausted.
func (r *KeyRing) Advance() bool {
	if r.index+1 >= len(r.keys) {
		return false
	}
	r.index++
	return true
}
