package chains

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	akconfig "github.com/kosarica/pricehist/internal/adapters/config"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

func testChainConfig(baseURL string) akconfig.ChainConfig {
	return akconfig.ChainConfig{Slug: "test-chain", Name: "Test Chain", BaseURL: baseURL}
}

func TestNewGenericAdapter_UnknownSlugErrors(t *testing.T) {
	_, err := NewGenericAdapter("does-not-exist")
	assert.Error(t, err)
}

func TestNewGenericAdapter_KnownSlugBuildsWorkingSource(t *testing.T) {
	a, err := NewGenericAdapter("lidl")
	require.NoError(t, err)
	assert.Equal(t, "lidl", a.Slug())
}

func TestGenericDiscover_ExtractsCSVLinksFromListingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
			<html><body>
			<a href="/prices/Supermarket_Store1.csv">Store 1</a>
			<a href="/prices/Supermarket_Store1.csv">duplicate</a>
			<a href="/prices/Store2.CSV">Store 2</a>
			<a href="/prices/ignored.pdf">ignored</a>
			</body></html>`))
	}))
	defer srv.Close()

	discover := genericDiscover(testChainConfig(srv.URL))
	client := kohttp.NewClient(ratelimit.Config{RequestsPerSecond: 1000, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1})

	files, err := discover(context.Background(), client, time.Now())
	require.NoError(t, err)
	require.Len(t, files, 2, "duplicate links must be de-duplicated and non-CSV links ignored")

	names := map[string]bool{}
	for _, f := range files {
		names[f.Filename] = true
	}
	assert.True(t, names["Supermarket_Store1.csv"])
	assert.True(t, names["Store2.CSV"])
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "Store1.csv", filenameFromURL("/prices/Store1.csv"))
	assert.Equal(t, "Store1.csv", filenameFromURL("Store1.csv"))
}

func TestResolveURL_AbsoluteLinkPassedThrough(t *testing.T) {
	assert.Equal(t, "https://other.example/x.csv", resolveURL("https://acme.example/prices/", "https://other.example/x.csv"))
}

func TestResolveURL_RelativeLinkJoinedWithBase(t *testing.T) {
	assert.Equal(t, "https://acme.example/prices/x.csv", resolveURL("https://acme.example/prices/", "x.csv"))
}
