// Package codec implements the dense 3-bit-per-tile byte encoding used for
// map storage and transfer. Tile i occupies the 3 bits at absolute bit offset
// i*3, counted MSB-first from byte 0; a tile may straddle two bytes. Unused
// trailing bits in the final byte are zero.
package codec

import (
	"fmt"

	"github.com/Leowly/TickTock-Tribe/internal/core"
)

// ErrSizeMismatch reports a packed buffer whose length does not match the
// expected packed size for the requested tile count.
var ErrSizeMismatch = fmt.Errorf("codec: packed buffer size mismatch")

const tileBits = 3

// PackedLen returns the packed byte length for n tiles: ceil(n*3/8).
func PackedLen(n int) int {
	if n <= 0 {
		return 0
	}
	return (n*tileBits + 7) / 8
}

// Pack encodes the tile array into a fresh packed buffer. Values outside 0..7
// are masked to their low 3 bits so they can never corrupt adjacent tiles.
func Pack(tiles []core.Tile) []byte {
	out := make([]byte, PackedLen(len(tiles)))
	for i, t := range tiles {
		v := uint8(t) & 0x07
		bit := i * tileBits
		byteIdx := bit / 8
		off := bit % 8
		if off <= 5 {
			out[byteIdx] |= v << (5 - off)
		} else {
			// Tile straddles the byte boundary.
			spill := off - 5
			out[byteIdx] |= v >> spill
			out[byteIdx+1] |= v << (8 - spill)
		}
	}
	return out
}

// Unpack decodes n tiles from a packed buffer. It fails closed when the
// buffer length does not equal PackedLen(n).
func Unpack(data []byte, n int) ([]core.Tile, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative tile count %d", ErrSizeMismatch, n)
	}
	if want := PackedLen(n); len(data) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %d tiles", ErrSizeMismatch, len(data), want, n)
	}
	tiles := make([]core.Tile, n)
	for i := 0; i < n; i++ {
		bit := i * tileBits
		byteIdx := bit / 8
		off := bit % 8
		var v uint8
		if off <= 5 {
			v = (data[byteIdx] >> (5 - off)) & 0x07
		} else {
			spill := off - 5
			v = (data[byteIdx] << spill) & 0x07
			v |= data[byteIdx+1] >> (8 - spill)
		}
		tiles[i] = core.Tile(v)
	}
	return tiles, nil
}
