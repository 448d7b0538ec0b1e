package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/observability"
)

const (
	defaultTimeout = 8 * time.Second
	maxBodyBytes   = 16 << 20
)

// ErrStatus is wrapped when the products endpoint answers with a non-2xx status.
var ErrStatus = errors.New("loader: unexpected status")

// ErrNoSource is returned when neither a server URL nor a fixture is configured.
var ErrNoSource = errors.New("loader: no product source configured")

const instrumentationName = "finitefield.org/catalog-web/internal/loader"

var tracer = otel.Tracer(instrumentationName)

// Options configures a Loader.
type Options struct {
	ServerURL   string
	FixturePath string
	Timeout     time.Duration
	Retries     int
	Logger      *zap.Logger
	// Meter defaults to the global meter provider.
	Meter metric.Meter
}

// Loader fetches the product list and publishes it to a Store.
type Loader struct {
	serverURL string
	fixture   string
	http      *retryablehttp.Client
	store     *catalog.Store
	logger    *zap.Logger

	latency metric.Float64Histogram
	loads   metric.Int64Counter
}

// New constructs a Loader. When ServerURL is empty, products come from FixturePath.
func New(store *catalog.Store, opts Options) *Loader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: timeout}
	client.RetryMax = max(opts.Retries, 0)
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = observability.NewRetryLogger(logger.Named("http"))

	l := &Loader{
		serverURL: strings.TrimRight(strings.TrimSpace(opts.ServerURL), "/"),
		fixture:   strings.TrimSpace(opts.FixturePath),
		http:      client,
		store:     store,
		logger:    logger,
	}

	meter := opts.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	var err error
	l.latency, err = meter.Float64Histogram(
		"catalog.load.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for product list loads"),
	)
	if err != nil {
		logger.Warn("loader: unable to register latency metric", zap.Error(err))
	}
	l.loads, err = meter.Int64Counter(
		"catalog.load.count",
		metric.WithDescription("Product list loads by outcome"),
	)
	if err != nil {
		logger.Warn("loader: unable to register load counter", zap.Error(err))
	}
	return l
}

// Fetch retrieves the product list without touching the store.
func (l *Loader) Fetch(ctx context.Context) ([]catalog.Product, error) {
	if l.serverURL == "" {
		if l.fixture == "" {
			return nil, ErrNoSource
		}
		return readFixture(l.fixture)
	}

	endpoint, err := url.JoinPath(l.serverURL, "products")
	if err != nil {
		return nil, fmt.Errorf("loader: build endpoint: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, drainError(resp.Body))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("loader: read body: %w", err)
	}
	return catalog.DecodeProducts(body)
}

// Load fetches once and publishes the result. Failures are logged and the store is left untouched.
func (l *Loader) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "catalog.load")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.source", l.source()))

	start := time.Now()
	products, err := l.Fetch(ctx)
	l.record(ctx, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		l.store.MarkFailed()
		l.logger.Error("product fetch failed",
			zap.String("source", l.source()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	l.store.Replace(products)
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	l.logger.Info("products loaded",
		zap.String("source", l.source()),
		zap.Int("count", len(products)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (l *Loader) record(ctx context.Context, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if l.latency != nil {
		l.latency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	}
	if l.loads != nil {
		l.loads.Add(ctx, 1, attrs)
	}
}

func (l *Loader) source() string {
	if l.serverURL != "" {
		return l.serverURL
	}
	return "file:" + l.fixture
}

func readFixture(path string) ([]catalog.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read fixture: %w", err)
	}
	return catalog.DecodeProducts(raw)
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
