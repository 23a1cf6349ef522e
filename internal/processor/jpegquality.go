package processor

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// stdLuminance is the IJG base luminance quantisation table.
var stdLuminance = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	markerDQT = 0xDB
	markerTEM = 0x01
)

var errNoQuantTable = errors.New("jpeg: no luminance quantisation table")

// estimateJPEGQuality returns the IJG quality (1–100) that produces the
// luminance table found in r.
func estimateJPEGQuality(r io.Reader) (int, error) {
	table, err := readLuminanceTable(bufio.NewReader(r))
	if err != nil {
		return 0, err
	}

	var sum, stdSum int
	for i, v := range table {
		sum += v
		stdSum += stdLuminance[i]
	}

	// Encoders scale the base table by s/100 where s = 5000/q below 50
	// and 200-2q above it.
	scale := float64(sum) * 100 / float64(stdSum)

	var q float64
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}

	return min(max(int(math.Round(q)), 1), 100), nil
}

func readLuminanceTable(r *bufio.Reader) ([64]int, error) {
	var table [64]int

	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil {
		return table, fmt.Errorf("jpeg: read header: %w", err)
	}
	if soi[0] != 0xFF || soi[1] != markerSOI {
		return table, errors.New("jpeg: missing SOI marker")
	}

	for {
		marker, err := nextMarker(r)
		if err != nil {
			return table, err
		}

		switch {
		case marker == markerSOS || marker == markerEOI:
			return table, errNoQuantTable
		case marker == markerTEM || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return table, fmt.Errorf("jpeg: read segment length: %w", err)
		}
		length := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if length < 0 {
			return table, errors.New("jpeg: invalid segment length")
		}

		segment := make([]byte, length)
		if _, err := io.ReadFull(r, segment); err != nil {
			return table, fmt.Errorf("jpeg: read segment: %w", err)
		}

		if marker != markerDQT {
			continue
		}

		if found, ok := parseDQT(segment); ok {
			return found, nil
		}
	}
}

// nextMarker skips to the next marker and returns its code.
func nextMarker(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("jpeg: read marker: %w", err)
	}
	if b != 0xFF {
		return 0, fmt.Errorf("jpeg: expected marker, got 0x%02x", b)
	}
	for b == 0xFF {
		if b, err = r.ReadByte(); err != nil {
			return 0, fmt.Errorf("jpeg: read marker: %w", err)
		}
	}
	return b, nil
}

// parseDQT returns table 0 if the segment defines it.
func parseDQT(seg []byte) ([64]int, bool) {
	var table [64]int

	for len(seg) > 0 {
		precision, id := seg[0]>>4, seg[0]&0x0F
		seg = seg[1:]

		size := 64
		if precision == 1 {
			size = 128
		}
		if len(seg) < size {
			return table, false
		}

		if id == 0 {
			for i := 0; i < 64; i++ {
				if precision == 1 {
					table[i] = int(binary.BigEndian.Uint16(seg[2*i:]))
				} else {
					table[i] = int(seg[i])
				}
			}
			return table, true
		}

		seg = seg[size:]
	}

	return table, false
}
