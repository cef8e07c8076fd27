package core

import (
	"encoding/binary"
	"fmt"
)

// Register file geometry. A word is one 32-byte burst of 16-bit scalars.
const (
	UnitsPerWord = 16
	WordBytes    = 2 * UnitsPerWord
	GRFSlots     = 8
	SRFSlots     = 8
	DRFSlots     = 8
	ScratchSize  = 8

	// ColumnsPerRow is the column count used by address-aligned slot
	// selection.
	ColumnsPerRow = 32
)

// Word is a vector of 16 scalars.
type Word [UnitsPerWord]uint16

// Load fills the word from a little-endian burst. Missing bytes read as zero.
func (w *Word) Load(burst []byte) {
	for i := range w {
		if 2*i+1 < len(burst) {
			w[i] = binary.LittleEndian.Uint16(burst[2*i:])
		} else {
			w[i] = 0
		}
	}
}

// Bytes returns the little-endian burst of the word.
func (w Word) Bytes() []byte {
	b := make([]byte, WordBytes)
	for i, v := range w {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}

	return b
}

// RegisterFile holds the data registers of a compute unit.
type RegisterFile struct {
	GRFA [GRFSlots]Word
	GRFB [GRFSlots]Word
	SRFA [SRFSlots]uint16
	SRFM [SRFSlots]uint16
	DRF  [DRFSlots]Word

	// Bank is the staging buffer bound to BANK operands.
	Bank Word
}

// SetGRF loads a burst into GRF_A for columns 0..7 and GRF_B for 8..15.
func (r *RegisterFile) SetGRF(column int, burst []byte) error {
	switch {
	case column >= 0 && column < GRFSlots:
		r.GRFA[column].Load(burst)
	case column >= GRFSlots && column < 2*GRFSlots:
		r.GRFB[column-GRFSlots].Load(burst)
	default:
		return fmt.Errorf("no GRF slot for column %d", column)
	}

	return nil
}

// SetSRF loads the first half of a burst into SRF_A and the second half into
// SRF_M.
func (r *RegisterFile) SetSRF(burst []byte) {
	var w Word
	w.Load(burst)

	copy(r.SRFA[:], w[:SRFSlots])
	copy(r.SRFM[:], w[SRFSlots:])
}

// SetDRF loads a burst into DRF[column mod 8].
func (r *RegisterFile) SetDRF(column int, burst []byte) {
	r.DRF[column%DRFSlots].Load(burst)
}

// GRFAScalar reads GRF_A as one flat array of 128 scalars.
func (r *RegisterFile) GRFAScalar(i int) uint16 {
	return r.GRFA[i/UnitsPerWord][i%UnitsPerWord]
}

// SetGRFAScalar writes GRF_A as one flat array of 128 scalars.
func (r *RegisterFile) SetGRFAScalar(i int, v uint16) {
	r.GRFA[i/UnitsPerWord][i%UnitsPerWord] = v
}

// Reset zeroes every register.
func (r *RegisterFile) Reset() {
	*r = RegisterFile{}
}
