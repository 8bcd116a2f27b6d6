package leveldb

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	jsoniter "github.com/json-iterator/go"
)

// Store keeps records in a leveldb database keyed by the raw 32 byte txid.
type Store struct {
	logger ulogger.Logger
	db     *leveldb.DB
}

// New opens (or creates) the database at the path of storeURL, relative paths are resolved against dataFolder.
func New(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*Store, error) {
	dbPath := storeURL.Host + storeURL.Path
	if dbPath == "" {
		dbPath = "txstore"
	}

	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataFolder, dbPath)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.NewStorageError("failed to create folder for %s", dbPath, err)
	}

	db, err := leveldb.OpenFile(dbPath, &opt.Options{
		Compression: opt.SnappyCompression,
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to open leveldb at %s", dbPath, err)
	}

	logger.Infof("Using leveldb tx store: %s", dbPath)

	return &Store{
		logger: logger,
		db:     db,
	}, nil
}

func (s *Store) Get(_ context.Context, hash *chainhash.Hash) (*model.Transaction, error) {
	b, err := s.db.Get(hash[:], nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.NewTxNotFoundError("tx %s not found in leveldb store", hash.String())
		}

		return nil, errors.NewStorageError("failed to read tx %s", hash.String(), err)
	}

	tx := &model.Transaction{}
	if err = jsoniter.Unmarshal(b, tx); err != nil {
		return nil, errors.NewCacheCorruptError("stored record for %s does not decode", hash.String(), err)
	}

	return tx, nil
}

func (s *Store) Set(_ context.Context, tx *model.Transaction) error {
	b, err := jsoniter.Marshal(tx)
	if err != nil {
		return errors.NewProcessingError("failed to encode tx %s", tx.TxID.String(), err)
	}

	if err = s.db.Put(tx.TxID[:], b, nil); err != nil {
		return errors.NewStorageError("failed to store tx %s", tx.TxID.String(), err)
	}

	return nil
}

func (s *Store) Delete(_ context.Context, hash *chainhash.Hash) error {
	if err := s.db.Delete(hash[:], nil); err != nil {
		return errors.NewStorageError("failed to delete tx %s", hash.String(), err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
