package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-chain/statecore/config/params"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

func TestToEpoch(t *testing.T) {
	tests := []struct {
		slot primitives.Slot
		want primitives.Epoch
	}{
		{0, 0},
		{31, 0},
		{32, 1},
		{63, 1},
		{64, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToEpoch(tt.slot))
	}
}

func TestEpochStartEnd(t *testing.T) {
	assert.Equal(t, primitives.Slot(0), EpochStart(0))
	assert.Equal(t, primitives.Slot(32), EpochStart(1))
	assert.Equal(t, primitives.Slot(31), EpochEnd(0))
	assert.Equal(t, primitives.Slot(63), EpochEnd(1))
}

func TestIsEpochStart(t *testing.T) {
	assert.True(t, IsEpochStart(0))
	assert.True(t, IsEpochStart(32))
	assert.False(t, IsEpochStart(33))
}

func TestToEpoch_CustomSlotsPerEpoch(t *testing.T) {
	cfg := params.BeaconConfig()
	defer params.OverrideBeaconConfig(cfg)

	params.OverrideBeaconConfig(&params.Config{SlotsPerEpoch: 8, GenesisEpoch: 0, GCHorizonEpochs: 4})
	require.Equal(t, primitives.Epoch(1), ToEpoch(8))
	require.Equal(t, primitives.Slot(16), EpochStart(2))
}
