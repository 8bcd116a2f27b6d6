package util

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/bsv-blockchain/txflow/util/usql"
	"github.com/labstack/gommon/random"
)

// InitSQLDB opens the database named by storeURL. Supported schemes are postgres, sqlite and sqlitememory.
// sqlite files are created in dataFolder.
func InitSQLDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	switch storeURL.Scheme {
	case "postgres":
		return InitPostgresDB(logger, storeURL)
	case "sqlite", "sqlitememory":
		return InitSQLiteDB(logger, storeURL, dataFolder)
	}

	return nil, errors.NewConfigurationError("db: unknown scheme: %s", storeURL.Scheme)
}

func InitPostgresDB(logger ulogger.Logger, storeURL *url.URL) (*usql.DB, error) {
	dbHost := storeURL.Hostname()
	dbPort, _ := strconv.Atoi(storeURL.Port())

	if dbPort == 0 {
		dbPort = 5432
	}

	dbName := ""
	if len(storeURL.Path) > 1 {
		dbName = storeURL.Path[1:]
	}

	dbUser := ""
	dbPassword := ""

	if storeURL.User != nil {
		dbUser = storeURL.User.Username()
		dbPassword, _ = storeURL.User.Password()
	}

	sslMode := "disable"
	if val := storeURL.Query().Get("sslmode"); val != "" {
		sslMode = val
	}

	dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d", dbUser, dbPassword, dbName, sslMode, dbHost, dbPort)

	db, err := usql.Open("postgres", dbInfo)
	if err != nil {
		return nil, errors.NewStorageError("failed to open postgres DB", err)
	}

	if err = db.Ping(10 * time.Second); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("postgres DB at %s:%d is unreachable", dbHost, dbPort, err)
	}

	logger.Infof("Using postgres DB: %s@%s:%d/%s", dbUser, dbHost, dbPort, dbName)

	return db, nil
}

func InitSQLiteDB(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*usql.DB, error) {
	var (
		filename string
		err      error
	)

	if storeURL.Scheme == "sqlitememory" {
		filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16))
	} else {
		if err = os.MkdirAll(dataFolder, 0o755); err != nil {
			return nil, errors.NewStorageError("failed to create data folder %s", dataFolder, err)
		}

		dbName := "txflow"
		if len(storeURL.Path) > 1 {
			dbName = storeURL.Path[1:]
		}

		filename, err = filepath.Abs(path.Join(dataFolder, fmt.Sprintf("%s.db", dbName)))
		if err != nil {
			return nil, errors.NewStorageError("failed to get absolute path for sqlite DB", err)
		}

		filename = fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", filename)
	}

	logger.Infof("Using sqlite DB: %s", filename)

	db, err := usql.Open("sqlite", filename)
	if err != nil {
		return nil, errors.NewStorageError("failed to open sqlite DB", err)
	}

	if _, err = db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("could not enable foreign keys support", err)
	}

	return db, nil
}
