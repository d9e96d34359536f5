package models

import "time"

// SynthesisProgress is the resume marker persisted after each successfully
// synthesized chunk. NextChunk is the index of the first chunk that still
// needs synthesis; KeyIndex is the credential that last succeeded so a
// resumed run does not fall back to the first key.
type SynthesisProgress struct {
	Slug      string    `json:"slug"`
	NextChunk int       `json:"next_chunk"`
	KeyIndex  int       `json:"key_index"`
	Chunks    int       `json:"chunks"`
	UpdatedAt time.Time `json:"updated_at"`
}
