package main

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/services/viewer"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/bsv-blockchain/txflow/util/servicemanager"
	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

func serve(c *cli.Context) error {
	tSettings := settings.NewSettings()
	if listen := c.String("listen"); listen != "" {
		tSettings.Viewer.HTTPListenAddress = listen
	}

	logger := newLogger(tSettings)

	stats := gocore.Config().Stats()
	logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	fetcher, closeFetcher, err := newFetcher(logger, tSettings, c.String("input"))
	if err != nil {
		return err
	}
	defer closeFetcher()

	sm := servicemanager.NewServiceManager(c.Context, logger)

	session, err := simulation.NewSession(sm.Ctx, logger, tSettings, fetcher)
	if err != nil {
		return err
	}

	if txid := c.String("txid"); txid != "" {
		root, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			session.Close()
			return errors.NewInvalidArgumentError("invalid txid %q", txid, err)
		}

		// the session loop is not running yet
		session.Start(*root)
	}

	if err = sm.AddService("viewer", viewer.New(logger.New("viewer"), tSettings, session)); err != nil {
		session.Close()
		return err
	}

	return sm.Wait()
}
