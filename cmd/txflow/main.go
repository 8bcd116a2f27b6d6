// Package main is the txflow command line: explore a transaction graph headless and export it,
// or serve an interactive session over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/stores/txstore/factory"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "txflow"

// Version & commit strings injected at build with -ldflags -X...
var (
	version string
	commit  string
)

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", progname, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	inputFlag := &cli.StringFlag{
		Name:  "input",
		Usage: "JSON file of transaction detail records to explore offline instead of the lookup service",
	}

	return &cli.App{
		Name:    progname,
		Usage:   "explore the flow of value between transactions",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Commands: []*cli.Command{
			{
				Name:   "explore",
				Usage:  "expand the graph around a transaction and export it",
				Action: explore,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "txid",
						Usage:    "root transaction",
						Required: true,
					},
					inputFlag,
					&cli.IntFlag{
						Name:  "depth",
						Usage: "number of levels to expand",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "direction",
						Usage: "inputs, outputs or both",
						Value: "inputs",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "ledger, json or yaml",
						Value: "ledger",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "workspace name for json and yaml output",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "file to write, stdout when empty",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "serve an interactive session over HTTP",
				Action: serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "txid",
						Usage: "root transaction to start from",
					},
					inputFlag,
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen address, overrides viewer_httpListenAddress",
					},
				},
			},
		},
	}
}

func newLogger(tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New(progname, ulogger.WithLevel(tSettings.LogLevel))
}

// newFetcher returns the fetcher for input, or for the lookup service fronted by the configured
// store. The returned function releases what was opened.
func newFetcher(logger ulogger.Logger, tSettings *settings.Settings, input string) (txfetch.Fetcher, func(), error) {
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		fetcher, err := txfetch.NewStaticFetcherFromReader(f)
		if err != nil {
			return nil, nil, err
		}

		logger.Infof("exploring %d transactions from %s", fetcher.Len(), input)

		return fetcher, func() {}, nil
	}

	httpFetcher, err := txfetch.NewHTTPFetcher(logger, tSettings)
	if err != nil {
		return nil, nil, err
	}

	store, err := factory.New(logger, tSettings.Fetch.StoreURL, tSettings.DataFolder)
	if err != nil {
		httpFetcher.Close()
		return nil, nil, err
	}

	if store == nil {
		return httpFetcher, httpFetcher.Close, nil
	}

	closeAll := func() {
		httpFetcher.Close()

		if err := store.Close(); err != nil {
			logger.Warnf("failed to close tx store: %v", err)
		}
	}

	return txfetch.NewStoreFetcher(logger, store, httpFetcher), closeAll, nil
}
