// Package settings loads txflow configuration through gocore (settings.conf, settings_local.conf and environment).
package settings

import (
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/txflow/errors"
)

func NewSettings() *Settings {
	network := getString("network", "mainnet")

	params, err := GetChainParams(network)
	if err != nil {
		panic(err)
	}

	return &Settings{
		ClientName:     getString("clientName", "txflow"),
		DataFolder:     getString("dataFolder", "data"),
		LogLevel:       getString("logLevel", "INFO"),
		Network:        network,
		ChainCfgParams: params,
		Fetch: FetchSettings{
			BaseURL:      getURL("fetch_baseURL", "http://localhost:3000"),
			APIToken:     getString("fetch_apiToken", ""),
			Format:       getString("fetch_format", "json"),
			Timeout:      getDuration("fetch_timeout", 30*time.Second),
			Workers:      getInt("fetch_workers", 8),
			CacheSize:    getInt("fetch_cacheSize", 500),
			RateLimit:    getFloat64("fetch_rateLimit", 0),
			RetryCount:   getInt("fetch_retryCount", 3),
			RetryBackoff: getDuration("fetch_retryBackoff", 100*time.Millisecond),
			UnspentTTL:   getDuration("fetch_unspentTTL", time.Minute),
			StoreURL:     getURL("fetch_storeURL", "memory://"),
		},
		Layout: LayoutSettings{
			Scale:            getFloat64("layout_scale", 80),
			RepulsionRadius:  getFloat64("layout_repulsionRadius", 60),
			DT:               getFloat64("layout_dt", 0.08),
			Cooloff:          getFloat64("layout_cooloff", 0.85),
			MaxDisplacement:  getFloat64("layout_maxDisplacement", 50),
			Epsilon:          getFloat64("layout_epsilon", 0.05),
			StableIterations: getInt("layout_stableIterations", 5),
			MaxIterations:    getInt("layout_maxIterations", 2000),
			FlowStrength:     getFloat64("layout_flowStrength", 0.5),
			FlowGap:          getFloat64("layout_flowGap", 40),
			YCompress:        getFloat64("layout_yCompress", 2.0),
			Workers:          getInt("layout_workers", 4),
			Kernel:           getString("layout_kernel", "parallel"),
			SizeScale: SizeScaleSettings{
				X1: getFloat64("layout_sizeScale_x1", 1_000_000),
				Y1: getFloat64("layout_sizeScale_y1", 30),
				X2: getFloat64("layout_sizeScale_x2", 10_000_000_000_000),
				Y2: getFloat64("layout_sizeScale_y2", 500),
			},
		},
		Simulation: SimulationSettings{
			FrameInterval:      getDuration("simulation_frameInterval", 16*time.Millisecond),
			MaxFramesPerSettle: getInt("simulation_maxFramesPerSettle", 5000),
		},
		Viewer: ViewerSettings{
			HTTPListenAddress: getString("viewer_httpListenAddress", ":8090"),
			APIPrefix:         getString("viewer_apiPrefix", "/api/v1"),
			WebsocketPing:     getDuration("viewer_websocketPing", 20*time.Second),
		},
	}
}

// GetChainParams maps a network name onto its chain parameters.
func GetChainParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, errors.NewConfigurationError("unknown network %s", network)
	}
}
