package settings

import (
	"testing"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check settings object is initialised
func TestInitialiseSettings(t *testing.T) {
	tSettings := NewSettings()

	require.NotNil(t, tSettings.ChainCfgParams)
	require.NotNil(t, tSettings.Fetch.BaseURL)
	require.NotNil(t, tSettings.Fetch.StoreURL)
	assert.Equal(t, "memory", tSettings.Fetch.StoreURL.Scheme)

	assert.Equal(t, 500, tSettings.Fetch.CacheSize)
	assert.Equal(t, 0.85, tSettings.Layout.Cooloff)
	assert.Less(t, tSettings.Layout.Cooloff, 1.0)
	assert.Equal(t, 30*time.Second, tSettings.Fetch.Timeout)
	assert.True(t, tSettings.Mainnet())
}

func TestGetChainParams(t *testing.T) {
	tests := []struct {
		network string
		expect  *chaincfg.Params
	}{
		{"mainnet", &chaincfg.MainNetParams},
		{"testnet", &chaincfg.TestNetParams},
		{"regtest", &chaincfg.RegressionNetParams},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			params, err := GetChainParams(tt.network)
			require.NoError(t, err)
			assert.Equal(t, tt.expect.Name, params.Name)
		})
	}

	_, err := GetChainParams("moonnet")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestMainnet(t *testing.T) {
	s := &Settings{ChainCfgParams: &chaincfg.TestNetParams}
	assert.False(t, s.Mainnet())
}

func TestGetDurationFallback(t *testing.T) {
	assert.Equal(t, 3*time.Second, getDuration("txflow_test_missing_duration", 3*time.Second))
	assert.InDelta(t, 1.5, getFloat64("txflow_test_missing_float", 1.5), 0)
}
