// Package bytesutil provides small byte-slice/array helpers
// (ToBytes32, PadTo, Trunc).
package bytesutil

// ToBytes32 copies up to 32 bytes of b into a [32]byte array.
func ToBytes32(b []byte) [32]byte {
	var a [32]byte
	copy(a[:], b)
	return a
}

// PadTo right-pads b with zero bytes until it is length n. If b is
// already >= n bytes it is returned unchanged.
func PadTo(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	padded := make([]byte, n)
	copy(padded, b)
	return padded
}

// Trunc returns at most the first 6 bytes of b, for compact logging.
func Trunc(b []byte) []byte {
	if len(b) < 6 {
		return b
	}
	return b[:6]
}
