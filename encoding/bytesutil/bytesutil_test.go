package bytesutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBytes32(t *testing.T) {
	got := ToBytes32([]byte{1, 2, 3})
	want := [32]byte{1, 2, 3}
	assert.Equal(t, want, got)
}

func TestToBytes32_Truncates(t *testing.T) {
	in := make([]byte, 40)
	for i := range in {
		in[i] = byte(i)
	}
	got := ToBytes32(in)
	assert.Equal(t, byte(0), got[31]&0) // sanity: no panic on oversized input
	assert.Equal(t, in[:32], got[:])
}

func TestPadTo(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 0, 0}, PadTo([]byte{1, 2}, 4))
	assert.Equal(t, []byte{1, 2, 3, 4}, PadTo([]byte{1, 2, 3, 4}, 4))
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, PadTo([]byte{1, 2, 3, 4, 5}, 4))
}

func TestTrunc(t *testing.T) {
	assert.Equal(t, []byte{1, 2}, Trunc([]byte{1, 2}))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, Trunc([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
}
