// Package slots implements slot/epoch arithmetic: ToEpoch, EpochStart
// and the handful of conversions the regeneration core needs.
package slots

import (
	"github.com/lodestone-chain/statecore/config/params"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// ToEpoch returns the epoch a slot falls in.
func ToEpoch(s primitives.Slot) primitives.Epoch {
	return primitives.Epoch(uint64(s) / params.BeaconConfig().SlotsPerEpoch)
}

// EpochStart returns the first slot of an epoch.
func EpochStart(e primitives.Epoch) primitives.Slot {
	return primitives.Slot(uint64(e) * params.BeaconConfig().SlotsPerEpoch)
}

// EpochEnd returns the last slot of an epoch.
func EpochEnd(e primitives.Epoch) primitives.Slot {
	return EpochStart(e.Add(1)).SubSlot(1)
}

// IsEpochStart returns true if the slot is the first slot of its epoch.
func IsEpochStart(s primitives.Slot) bool {
	return uint64(s)%params.BeaconConfig().SlotsPerEpoch == 0
}
