package base

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

func noRetryRateLimit() ratelimit.Config {
	return ratelimit.Config{RequestsPerSecond: 1000, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1}
}

func TestExtractStoreIdentifier_StripsConfiguredPrefix(t *testing.T) {
	a := New(Config{
		Slug:                   "test-chain",
		FilenamePrefixPatterns: []*regexp.Regexp{regexp.MustCompile(`^Lidl_`)},
	})
	assert.Equal(t, "2024-01-19_265", a.ExtractStoreIdentifier("Lidl_2024-01-19_265.csv"))
}

func TestExtractStoreIdentifier_MultiplePatternsTriedInOrder(t *testing.T) {
	a := New(Config{
		Slug: "test-chain",
		FilenamePrefixPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^TestChain_`),
			regexp.MustCompile(`^Zagreb_`),
		},
	})
	assert.Equal(t, "Zagreb_Main_123", a.ExtractStoreIdentifier("TestChain_Zagreb_Main_123.csv"))
}

func TestExtractStoreIdentifier_NoPatternReturnsStemMinusExtension(t *testing.T) {
	a := New(Config{Slug: "test-chain"})
	assert.Equal(t, "random_file", a.ExtractStoreIdentifier("random_file.csv"))
}

func TestExtractStoreIdentifier_NonMatchingPatternLeavesStemUntouched(t *testing.T) {
	a := New(Config{
		Slug:                   "test-chain",
		FilenamePrefixPatterns: []*regexp.Regexp{regexp.MustCompile(`^Prefix_`)},
	})
	assert.Equal(t, "store_data", a.ExtractStoreIdentifier("store_data.csv"))
}

func TestExtractStoreIdentifier_EmptyResultFallsBackToFullFilename(t *testing.T) {
	a := New(Config{
		Slug:                   "test-chain",
		FilenamePrefixPatterns: []*regexp.Regexp{regexp.MustCompile(`^store_data$`)},
	})
	assert.Equal(t, "store_data.csv", a.ExtractStoreIdentifier("store_data.csv"))
}

func TestFetch_DiscoveryErrorYieldsEmptyNotPanic(t *testing.T) {
	a := New(Config{
		Slug: "test-chain",
		Discover: func(ctx context.Context, client *kohttp.Client, date time.Time) ([]DiscoveredFile, error) {
			return nil, ErrNoFilesForDate
		},
	})
	stores := a.Fetch(context.Background(), time.Now())
	assert.Empty(t, stores)
}

func TestFetch_ZeroFilesDiscoveredYieldsEmpty(t *testing.T) {
	a := New(Config{
		Slug: "test-chain",
		Discover: func(ctx context.Context, client *kohttp.Client, date time.Time) ([]DiscoveredFile, error) {
			return nil, nil
		},
	})
	stores := a.Fetch(context.Background(), time.Now())
	assert.Empty(t, stores)
}

func TestFetch_DownloadFailureSkipsFileWithoutAborting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := New(Config{
		Slug: "test-chain",
		Discover: func(ctx context.Context, client *kohttp.Client, date time.Time) ([]DiscoveredFile, error) {
			return []DiscoveredFile{{URL: srv.URL + "/x.csv", Filename: "x.csv"}}, nil
		},
		Parse: func(content []byte) ([]domain.Product, error) {
			t.Fatal("parse must not be reached when the download itself fails")
			return nil, nil
		},
		RateLimit: noRetryRateLimit(),
	})
	stores := a.Fetch(context.Background(), time.Now())
	assert.Empty(t, stores, "a failed download must be skipped, not fatal to the whole chain")
}

func TestFetch_BuildsOneStorePerDiscoveredFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("csv content"))
	}))
	defer srv.Close()

	a := New(Config{
		Slug: "test-chain",
		Name: "Test Chain",
		Discover: func(ctx context.Context, client *kohttp.Client, date time.Time) ([]DiscoveredFile, error) {
			return []DiscoveredFile{{URL: srv.URL + "/Store_1.csv", Filename: "Store_1.csv"}}, nil
		},
		Parse: func(content []byte) ([]domain.Product, error) {
			p, err := domain.NewProduct(domain.Product{ProductID: "P1", Name: "N", Price: domain.NewMoney(1)})
			require.NoError(t, err)
			return []domain.Product{p}, nil
		},
		RateLimit: noRetryRateLimit(),
	})
	stores := a.Fetch(context.Background(), time.Now())
	require.Len(t, stores, 1)
	assert.Equal(t, "Store_1", stores[0].StoreID)
	assert.Equal(t, "test-chain", stores[0].Chain)
}
