package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/catalog-web/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const productsJSON = `[
  {"id":"1","name":"VESTIDO TRANSPASSE BOW","price":199,"parcelamento":[3,66.33],"color":"Amarelo","image":"/img/1.png","size":["P","M","G"],"date":"2021-10-01"},
  {"id":"2","name":"REGATA ALCINHA FOLK","price":99,"parcelamento":[3,33],"color":"Preto","image":"/img/2.png","size":["P","G"],"date":"2022-01-15"}
]`

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestLoadPopulatesStore(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	logger, logs := observedLogger()
	store := catalog.NewStore()
	l := New(store, Options{ServerURL: srv.URL + "/", Logger: logger})

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, "/products", gotPath)
	require.Len(t, store.Snapshot(), 2)
	assert.Equal(t, "VESTIDO TRANSPASSE BOW", store.Snapshot()[0].Name)
	assert.Equal(t, 1, logs.FilterMessage("products loaded").Len())
}

func TestLoadFailureLeavesStoreEmpty(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"products":`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			logger, logs := observedLogger()
			store := catalog.NewStore()
			err := New(store, Options{ServerURL: srv.URL, Logger: logger}).Load(context.Background())
			require.Error(t, err)
			assert.Empty(t, store.Snapshot())
			_, loaded := store.Loaded()
			assert.False(t, loaded)
			assert.True(t, store.Failed())
			assert.Equal(t, 1, logs.FilterMessage("product fetch failed").Len())
		})
	}
}

func TestFetchNotFoundWrapsErrStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(catalog.NewStore(), Options{ServerURL: srv.URL}).Fetch(context.Background())
	require.ErrorIs(t, err, ErrStatus)
}

func TestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(catalog.NewStore(), Options{ServerURL: srv.URL}).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	store := catalog.NewStore()
	require.NoError(t, New(store, Options{ServerURL: srv.URL, Retries: 2}).Load(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, store.Snapshot(), 2)
}

func TestLoadFromFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(productsJSON), 0o600))

	store := catalog.NewStore()
	require.NoError(t, New(store, Options{FixturePath: path}).Load(context.Background()))
	assert.Len(t, store.Snapshot(), 2)
}

func TestLoadWithoutSource(t *testing.T) {
	err := New(catalog.NewStore(), Options{}).Load(context.Background())
	require.ErrorIs(t, err, ErrNoSource)
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := catalog.NewStore()
	require.Error(t, New(store, Options{ServerURL: srv.URL}).Load(ctx))
	assert.Empty(t, store.Snapshot())
}
