package simulation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/ulogger"
)

// View is what the session last published: the graph as of a frame, and the driver state.
type View struct {
	Frame    uint64
	State    string
	Snapshot *graph.Snapshot
}

type command struct {
	fn   func(*Driver) error
	done chan error
}

// Session owns a graph, its fetch pipeline and its driver. All of them are only touched by the
// goroutine running Run, or, without Run, by the caller of the headless methods. Other goroutines
// use Do.
type Session struct {
	logger   ulogger.Logger
	settings *settings.Settings
	pipeline *txfetch.Pipeline
	driver   *Driver
	commands chan command
	latest   atomic.Pointer[View]
}

func NewSession(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, fetcher txfetch.Fetcher) (*Session, error) {
	cache, err := txfetch.NewTxCache(tSettings.Fetch.CacheSize)
	if err != nil {
		return nil, err
	}

	kernel, err := layout.NewKernel(tSettings.Layout.Kernel, tSettings.Layout.Workers)
	if err != nil {
		return nil, err
	}

	engine, err := layout.NewEngine(logger, layout.ParamsFromSettings(tSettings.Layout), kernel)
	if err != nil {
		return nil, err
	}

	pipeline := txfetch.NewPipeline(ctx, logger, tSettings, fetcher, cache)
	g := graph.New(logger, pipeline, SizeScaleFromSettings(tSettings.Layout.SizeScale))

	s := &Session{
		logger:   logger,
		settings: tSettings,
		pipeline: pipeline,
		driver:   NewDriver(logger, g, engine),
		commands: make(chan command),
	}

	s.publish()

	return s, nil
}

func SizeScaleFromSettings(ss settings.SizeScaleSettings) model.SizeScale {
	return model.SizeScale{X1: ss.X1, Y1: ss.Y1, X2: ss.X2, Y2: ss.Y2}
}

func (s *Session) Graph() *graph.Graph {
	return s.driver.graph
}

func (s *Session) Driver() *Driver {
	return s.driver
}

func (s *Session) Pipeline() *txfetch.Pipeline {
	return s.pipeline
}

// Latest returns the view published after the most recent frame. Safe to call from any goroutine.
func (s *Session) Latest() *View {
	return s.latest.Load()
}

// Close cancels every fetch and waits for the fetch workers to exit.
func (s *Session) Close() {
	s.pipeline.Close()
}

// Run ticks the driver every frame interval and runs commands sent with Do, until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	interval := s.settings.Simulation.FrameInterval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("[Session] running at %s per frame", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("[Session] stopped after %d frames", s.driver.Frames())
			return nil
		case cmd := <-s.commands:
			prometheusSimulationCommands.Inc()

			cmd.done <- cmd.fn(s.driver)

			s.publish()
		case <-ticker.C:
			if _, err := s.tick(ctx); err != nil {
				s.logger.Errorf("[Session] frame %d failed: %v", s.driver.Frames(), err)
			}
		}
	}
}

// Do runs fn on the session loop and returns its error. It blocks until Run picks the command up.
func (s *Session) Do(ctx context.Context, fn func(*Driver) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return errors.NewContextCanceledError("[Session] command not run", ctx.Err())
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return errors.NewContextCanceledError("[Session] command did not finish", ctx.Err())
	}
}

func (s *Session) tick(ctx context.Context) (TickResult, error) {
	before := s.driver.Graph().Generation()

	res, err := s.driver.Tick(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrLayoutDesync) || errors.Is(err, errors.ErrProcessing) {
			// drop the frame and start the layout over from the current positions
			_ = s.driver.Reflow(ctx)
		}

		return res, err
	}

	if res.Step != nil || s.driver.Graph().Generation() != before {
		s.publish()
	}

	return res, nil
}

func (s *Session) publish() {
	s.latest.Store(&View{
		Frame:    s.driver.Frames(),
		State:    s.driver.State(),
		Snapshot: s.driver.Graph().Snapshot(),
	})
}

// Start resets the graph to root. Headless, or inside Do.
func (s *Session) Start(root chainhash.Hash) graph.NodeID {
	return s.driver.Graph().Reset(root)
}

// RunUntilSettled ticks until every fetch has completed and the layout has converged, waiting
// for fetch results instead of spinning while the layout is idle. Headless only.
func (s *Session) RunUntilSettled(ctx context.Context, maxFrames int) (int, error) {
	for frame := 1; maxFrames <= 0 || frame <= maxFrames; frame++ {
		res, err := s.tick(ctx)
		if err != nil {
			return frame, err
		}

		if !res.Idle {
			continue
		}

		if s.pipeline.PendingCount() == 0 {
			return frame, nil
		}

		if err = s.pipeline.Await(ctx); err != nil {
			return frame, err
		}
	}

	return maxFrames, errors.NewProcessingError("[Session] not settled within %d frames", maxFrames)
}

// AwaitFetches applies fetch results until none are pending. Headless only.
func (s *Session) AwaitFetches(ctx context.Context) error {
	g := s.driver.Graph()

	for {
		g.Poll()

		if s.pipeline.PendingCount() == 0 {
			return nil
		}

		if err := s.pipeline.Await(ctx); err != nil {
			return err
		}
	}
}

// Explore expands side of the root, then of every node that appeared, depth levels deep.
// Headless only.
func (s *Session) Explore(ctx context.Context, side graph.Side, depth int) error {
	g := s.driver.Graph()

	if err := s.AwaitFetches(ctx); err != nil {
		return err
	}

	frontier := []graph.NodeID{g.Root()}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		visible := make(map[graph.NodeID]struct{}, g.Len())
		for _, n := range g.Snapshot().Nodes {
			visible[n.ID] = struct{}{}
		}

		for _, id := range frontier {
			if err := g.Expand(id, side); err != nil && !errors.Is(err, errors.ErrNotFound) {
				return err
			}
		}

		if err := s.AwaitFetches(ctx); err != nil {
			return err
		}

		frontier = frontier[:0]

		for _, n := range g.Snapshot().Nodes {
			if _, ok := visible[n.ID]; !ok {
				frontier = append(frontier, n.ID)
			}
		}

		s.logger.Debugf("[Session] explore level %d found %d nodes", level+1, len(frontier))
	}

	return nil
}
