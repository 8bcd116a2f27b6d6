// Package factory builds a txstore.Store from its URL.
package factory

import (
	"net/url"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/stores/txstore"
	"github.com/bsv-blockchain/txflow/stores/txstore/leveldb"
	"github.com/bsv-blockchain/txflow/stores/txstore/memory"
	"github.com/bsv-blockchain/txflow/stores/txstore/sql"
	"github.com/bsv-blockchain/txflow/ulogger"
)

// New returns the store for storeURL. Supported schemes: memory, sqlite, sqlitememory, postgres, leveldb.
// A nil URL, or the scheme "null", disables persistence and returns nil.
func New(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (txstore.Store, error) {
	if storeURL == nil || storeURL.Scheme == "null" {
		return nil, nil
	}

	switch storeURL.Scheme {
	case "memory":
		return memory.New(), nil
	case "sqlite", "sqlitememory", "postgres":
		store, err := sql.New(logger, storeURL, dataFolder)
		if err != nil {
			return nil, err
		}

		return store, nil
	case "leveldb":
		store, err := leveldb.New(logger, storeURL, dataFolder)
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, errors.NewConfigurationError("unknown tx store scheme: %s", storeURL.Scheme)
	}
}
