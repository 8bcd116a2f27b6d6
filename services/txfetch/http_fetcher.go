package txfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/bsv-blockchain/txflow/util"
	"github.com/bsv-blockchain/txflow/util/retry"
	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

const (
	FormatJSON = "json"
	FormatRaw  = "raw"
)

type spendResult struct {
	SpendingTxID *chainhash.Hash
}

type spendResponse struct {
	TxID         string  `json:"txid"`
	Vout         uint32  `json:"vout"`
	SpendingTxID *string `json:"spending_txid"`
}

// HTTPFetcher talks to the transaction lookup service:
//
//	GET {base}/tx/{txid}             JSON detail record
//	GET {base}/tx/{txid}/raw         extended format transaction bytes
//	GET {base}/spend/{txid}/{vout}   {"spending_txid": "..." | null}
//
// Transient failures are retried. Unknown txids and spend lookups are remembered for the
// configured TTL so repeated expansions do not hammer the service.
type HTTPFetcher struct {
	logger     ulogger.Logger
	baseURL    string
	token      string
	format     string
	mainnet    bool
	client     *http.Client
	limiter    *rate.Limiter
	notFound   *ttlcache.Cache[chainhash.Hash, struct{}]
	spends     *util.ExpiringConcurrentCache[model.Outpoint, spendResult]
	retryCount int
	backoff    time.Duration
}

type HTTPFetcherOption func(*HTTPFetcher)

// WithClient replaces http.DefaultClient.
func WithClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

func NewHTTPFetcher(logger ulogger.Logger, tSettings *settings.Settings, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	initPrometheusMetrics()

	fs := tSettings.Fetch

	if fs.BaseURL == nil {
		return nil, errors.NewConfigurationError("fetch_baseURL is not set")
	}

	format := strings.ToLower(fs.Format)
	if format == "" {
		format = FormatJSON
	}

	if format != FormatJSON && format != FormatRaw {
		return nil, errors.NewConfigurationError("unknown fetch_format %q, expected json or raw", fs.Format)
	}

	ttl := fs.UnspentTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	f := &HTTPFetcher{
		logger:  logger,
		baseURL: strings.TrimRight(fs.BaseURL.String(), "/"),
		token:   fs.APIToken,
		format:  format,
		mainnet: tSettings.Mainnet(),
		client:  http.DefaultClient,
		notFound: ttlcache.New[chainhash.Hash, struct{}](
			ttlcache.WithTTL[chainhash.Hash, struct{}](ttl),
			ttlcache.WithDisableTouchOnHit[chainhash.Hash, struct{}](),
		),
		spends:     util.NewExpiringConcurrentCache[model.Outpoint, spendResult](ttl),
		retryCount: fs.RetryCount,
		backoff:    fs.RetryBackoff,
	}

	if f.retryCount < 1 {
		f.retryCount = 1
	}

	if fs.RateLimit > 0 {
		burst := int(fs.RateLimit)
		if burst < 1 {
			burst = 1
		}

		f.limiter = rate.NewLimiter(rate.Limit(fs.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(f)
	}

	go f.notFound.Start()

	return f, nil
}

// Close stops the expiry loop of the not-found cache.
func (f *HTTPFetcher) Close() {
	f.notFound.Stop()
}

func (f *HTTPFetcher) FetchTransaction(ctx context.Context, txID chainhash.Hash) (*model.Transaction, error) {
	if f.notFound.Has(txID) {
		return nil, errors.NewTxNotFoundError("tx %s not found (cached)", txID)
	}

	url := fmt.Sprintf("%s/tx/%s", f.baseURL, txID)
	if f.format == FormatRaw {
		url += "/raw"
	}

	body, err := f.get(ctx, "tx", url)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			f.notFound.Set(txID, struct{}{}, ttlcache.DefaultTTL)
			return nil, errors.NewTxNotFoundError("tx %s not found", txID, err)
		}

		return nil, err
	}

	var tx *model.Transaction

	if f.format == FormatRaw {
		tx, err = model.NewTransactionFromBytes(body, f.mainnet)
	} else {
		tx, err = model.NewTransactionFromJSON(body)
	}

	if err != nil {
		return nil, errors.NewNetworkInvalidResponseError("invalid tx record for %s", txID, err)
	}

	if tx.TxID != txID {
		return nil, errors.NewNetworkInvalidResponseError("lookup service returned %s for %s", tx.TxID, txID)
	}

	return tx, nil
}

func (f *HTTPFetcher) FetchSpend(ctx context.Context, outpoint model.Outpoint) (*chainhash.Hash, error) {
	res, err := f.spends.GetOrSet(outpoint, func() (spendResult, bool, error) {
		url := fmt.Sprintf("%s/spend/%s/%d", f.baseURL, outpoint.TxID, outpoint.Vout)

		body, err := f.get(ctx, "spend", url)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return spendResult{}, false, errors.NewTxNotFoundError("outpoint %s not found", outpoint, err)
			}

			return spendResult{}, false, err
		}

		var sr spendResponse
		if err = jsoniter.Unmarshal(body, &sr); err != nil {
			return spendResult{}, false, errors.NewNetworkInvalidResponseError("invalid spend record for %s", outpoint, err)
		}

		if sr.SpendingTxID == nil || *sr.SpendingTxID == "" {
			return spendResult{}, true, nil
		}

		hash, err := chainhash.NewHashFromStr(*sr.SpendingTxID)
		if err != nil {
			return spendResult{}, false, errors.NewNetworkInvalidResponseError("invalid spending txid for %s", outpoint, err)
		}

		return spendResult{SpendingTxID: hash}, true, nil
	})
	if err != nil {
		return nil, err
	}

	return res.SpendingTxID, nil
}

func (f *HTTPFetcher) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, errors.NewContextCanceledError("rate limiter wait for [%s]", url, err)
		}
	}

	body, err := retry.Retry(ctx, f.logger, func() ([]byte, error) {
		return util.DoHTTPRequest(ctx, url, util.WithHTTPClient(f.client), util.WithBearerToken(f.token))
	},
		retry.WithRetryCount(f.retryCount),
		retry.WithBackoffDurationType(f.backoff),
		retry.WithExponentialBackoff(),
		retry.WithRetryableErrorsOnly(),
		retry.WithMessage("[HTTPFetcher] "+endpoint+" request failed, retrying"),
	)
	if err != nil {
		prometheusTxFetchHTTP.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}

	prometheusTxFetchHTTP.WithLabelValues(endpoint, "ok").Inc()

	return body, nil
}
