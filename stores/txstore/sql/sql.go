package sql

import (
	"context"
	"database/sql"
	"net/url"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/bsv-blockchain/txflow/util"
	"github.com/bsv-blockchain/txflow/util/usql"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	_ "modernc.org/sqlite"
)

var (
	prometheusTxStoreGet    prometheus.Counter
	prometheusTxStoreSet    prometheus.Counter
	prometheusTxStoreDelete prometheus.Counter
	prometheusTxStoreMiss   prometheus.Counter

	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(func() {
		prometheusTxStoreGet = promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "txflow",
				Subsystem: "txstore_sql",
				Name:      "get",
				Help:      "Number of tx get calls done to sql db",
			},
		)
		prometheusTxStoreSet = promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "txflow",
				Subsystem: "txstore_sql",
				Name:      "set",
				Help:      "Number of tx set calls done to sql db",
			},
		)
		prometheusTxStoreDelete = promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "txflow",
				Subsystem: "txstore_sql",
				Name:      "delete",
				Help:      "Number of tx delete calls done to sql db",
			},
		)
		prometheusTxStoreMiss = promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "txflow",
				Subsystem: "txstore_sql",
				Name:      "miss",
				Help:      "Number of tx get calls that found nothing",
			},
		)
	})
}

type Store struct {
	logger ulogger.Logger
	db     *usql.DB
	engine string
}

func New(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*Store, error) {
	initPrometheusMetrics()

	logger = logger.New("txsql")

	db, err := util.InitSQLDB(logger, storeURL, dataFolder)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	switch storeURL.Scheme {
	case "postgres":
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case "sqlite", "sqlitememory":
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	return &Store{
		logger: logger,
		db:     db,
		engine: storeURL.Scheme,
	}, nil
}

func (s *Store) Get(ctx context.Context, hash *chainhash.Hash) (*model.Transaction, error) {
	prometheusTxStoreGet.Inc()

	q := `
	SELECT
	    detail
	FROM transactions
	WHERE hash = $1`

	var detail []byte

	if err := s.db.QueryRowContext(ctx, q, hash[:]).Scan(&detail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			prometheusTxStoreMiss.Inc()
			return nil, errors.NewTxNotFoundError("tx %s not found in sql store", hash.String())
		}

		return nil, errors.NewStorageError("failed to get tx %s", hash.String(), err)
	}

	tx := &model.Transaction{}
	if err := jsoniter.Unmarshal(detail, tx); err != nil {
		return nil, errors.NewCacheCorruptError("stored record for %s does not decode", hash.String(), err)
	}

	if !tx.TxID.IsEqual(hash) {
		return nil, errors.NewCacheCorruptError("stored record for %s has txid %s", hash.String(), tx.TxID.String())
	}

	return tx, nil
}

func (s *Store) Set(ctx context.Context, tx *model.Transaction) error {
	prometheusTxStoreSet.Inc()

	detail, err := jsoniter.Marshal(tx)
	if err != nil {
		return errors.NewProcessingError("failed to encode tx %s", tx.TxID.String(), err)
	}

	q := `
	INSERT INTO transactions (hash, inputs, outputs, detail)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (hash) DO UPDATE SET inputs = excluded.inputs, outputs = excluded.outputs, detail = excluded.detail`

	if _, err = s.db.ExecContext(ctx, q, tx.TxID[:], len(tx.Inputs), len(tx.Outputs), detail); err != nil {
		return errors.NewStorageError("failed to store tx %s", tx.TxID.String(), err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, hash *chainhash.Hash) error {
	prometheusTxStoreDelete.Inc()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE hash = $1`, hash[:]); err != nil {
		return errors.NewStorageError("failed to delete tx %s", hash.String(), err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createPostgresSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS transactions (
	    id           BIGSERIAL PRIMARY KEY
	   ,hash         BYTEA NOT NULL
	   ,inputs       INTEGER NOT NULL
	   ,outputs      INTEGER NOT NULL
	   ,detail       BYTEA NOT NULL
	   ,inserted_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create transactions table", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_hash ON transactions (hash);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ux_transactions_hash index", err)
	}

	return nil
}

func createSqliteSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS transactions (
	    id           INTEGER PRIMARY KEY AUTOINCREMENT
	   ,hash         BLOB NOT NULL
	   ,inputs       INTEGER NOT NULL
	   ,outputs      INTEGER NOT NULL
	   ,detail       BLOB NOT NULL
	   ,inserted_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create transactions table", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_hash ON transactions (hash);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ux_transactions_hash index", err)
	}

	return nil
}
