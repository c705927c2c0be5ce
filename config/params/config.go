// Package params holds the process-wide consensus configuration the
// state regeneration core needs: the slot/epoch arithmetic constants.
// Follows the common config/params.BeaconConfig() global-accessor
// pattern used across the consensus client codebase.
package params

import "sync"

// Config groups the constants the core reads.
type Config struct {
	SlotsPerEpoch   uint64
	GenesisEpoch    uint64
	GCHorizonEpochs uint64
}

func mainnetConfig() *Config {
	return &Config{
		SlotsPerEpoch:   32,
		GenesisEpoch:    0,
		GCHorizonEpochs: 4,
	}
}

var (
	beaconConfig   = mainnetConfig()
	beaconConfigMu sync.RWMutex
)

// BeaconConfig returns the active configuration.
func BeaconConfig() *Config {
	beaconConfigMu.RLock()
	defer beaconConfigMu.RUnlock()
	return beaconConfig
}

// OverrideBeaconConfig replaces the active configuration. Tests use
// this to exercise non-default SlotsPerEpoch/GCHorizonEpochs values.
func OverrideBeaconConfig(cfg *Config) {
	beaconConfigMu.Lock()
	defer beaconConfigMu.Unlock()
	beaconConfig = cfg
}
