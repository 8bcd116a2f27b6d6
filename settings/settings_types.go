package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type Settings struct {
	ClientName     string
	DataFolder     string
	LogLevel       string
	Network        string
	ChainCfgParams *chaincfg.Params
	Fetch          FetchSettings
	Layout         LayoutSettings
	Simulation     SimulationSettings
	Viewer         ViewerSettings
}

// Mainnet reports whether addresses should be rendered with mainnet prefixes.
func (s *Settings) Mainnet() bool {
	return s.ChainCfgParams == nil || s.ChainCfgParams.Name == chaincfg.MainNetParams.Name
}

type FetchSettings struct {
	BaseURL   *url.URL
	APIToken  string
	Format    string // json | raw
	Timeout   time.Duration
	Workers   int
	CacheSize int
	// RateLimit is the number of requests per second sent to the lookup service, 0 disables limiting.
	RateLimit    float64
	RetryCount   int
	RetryBackoff time.Duration
	UnspentTTL   time.Duration
	StoreURL     *url.URL
}

type LayoutSettings struct {
	Scale            float64
	RepulsionRadius  float64
	DT               float64
	Cooloff          float64
	MaxDisplacement  float64
	Epsilon          float64
	StableIterations int
	MaxIterations    int
	FlowStrength     float64
	FlowGap          float64
	YCompress        float64
	Workers          int
	Kernel           string // serial | parallel | buffer
	SizeScale        SizeScaleSettings
}

// SizeScaleSettings are the two (value, height) points a node's height curve passes through.
type SizeScaleSettings struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

type SimulationSettings struct {
	FrameInterval      time.Duration
	MaxFramesPerSettle int
}

type ViewerSettings struct {
	HTTPListenAddress string
	APIPrefix         string
	WebsocketPing     time.Duration
}
