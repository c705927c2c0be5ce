package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlot_Add(t *testing.T) {
	assert.Equal(t, Slot(10), Slot(7).Add(3))
}

func TestSlot_SubSlot(t *testing.T) {
	tests := []struct {
		name  string
		s, o  Slot
		want  Slot
	}{
		{"normal", 10, 3, 7},
		{"underflow clamps to zero", 3, 10, 0},
		{"equal", 5, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.SubSlot(tt.o))
		})
	}
}

func TestEpoch_Sub(t *testing.T) {
	tests := []struct {
		name string
		e    Epoch
		n    uint64
		want Epoch
	}{
		{"normal", 5, 2, 3},
		{"underflow clamps to zero", 1, 2, 0},
		{"zero minus zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Sub(tt.n))
		})
	}
}

func TestEpoch_Add(t *testing.T) {
	assert.Equal(t, Epoch(7), Epoch(5).Add(2))
}
