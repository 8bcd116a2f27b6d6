package main

import (
	"context"
	"io"
	"os"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/export"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/urfave/cli/v2"
)

func explore(c *cli.Context) error {
	root, err := chainhash.NewHashFromStr(c.String("txid"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid txid %q", c.String("txid"), err)
	}

	sides, err := parseDirection(c.String("direction"))
	if err != nil {
		return err
	}

	format := c.String("format")
	if format != "ledger" {
		if _, err = export.ParseFormat(format); err != nil {
			return err
		}
	}

	tSettings := settings.NewSettings()
	logger := newLogger(tSettings)

	fetcher, closeFetcher, err := newFetcher(logger, tSettings, c.String("input"))
	if err != nil {
		return err
	}
	defer closeFetcher()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	session, err := simulation.NewSession(ctx, logger, tSettings, fetcher)
	if err != nil {
		return err
	}
	defer session.Close()

	session.Start(*root)

	for _, side := range sides {
		if err = session.Explore(ctx, side, c.Int("depth")); err != nil {
			return err
		}
	}

	var out io.Writer = c.App.Writer

	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.NewProcessingError("failed to create %s", path, err)
		}
		defer f.Close()

		out = f
	}

	if format == "ledger" {
		return export.WriteLedger(out, export.Ledger(session.Graph().Snapshot()))
	}

	// positions are only worth saving once the layout has settled
	frames, err := session.RunUntilSettled(ctx, tSettings.Simulation.MaxFramesPerSettle)
	if err != nil && !errors.Is(err, errors.ErrProcessing) {
		return err
	}

	logger.Infof("layout ran %d frames", frames)

	d := session.Driver()

	w, err := export.NewWorkspace(c.String("name"), d.Graph().Snapshot(), d.Engine().Params(), d.Graph().Scale())
	if err != nil {
		return err
	}

	return w.Encode(out, export.Format(format))
}

func parseDirection(s string) ([]graph.Side, error) {
	if s == "both" {
		return []graph.Side{graph.Input, graph.Output}, nil
	}

	side, err := graph.ParseSide(s)
	if err != nil {
		return nil, err
	}

	return []graph.Side{side}, nil
}
