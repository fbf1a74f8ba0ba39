package chains

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

func TestKonzumStoreCodeFromFilename_ExtractsFourDigitCode(t *testing.T) {
	assert.Equal(t, "1234", konzumStoreCodeFromFilename("SUPERMARKET,Ilica 1 Zagreb,1234,20260110,0600.csv"))
}

func TestKonzumStoreCodeFromFilename_FallsBackToWholeNameWithoutMatch(t *testing.T) {
	assert.Equal(t, "nomatch.csv", konzumStoreCodeFromFilename("nomatch.csv"))
}

func TestKonzumDiscover_PaginatesUntilNoNewLinks(t *testing.T) {
	pageHits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pageHits++
		switch page {
		case "0":
			_, _ = w.Write([]byte(`<a href="/cjenici/download?title=SUPERMARKET,Ilica%201%20Zagreb,1234,20260110,0600.csv">x</a>`))
		case "1":
			_, _ = w.Write([]byte(`<a href="/cjenici/download?title=HIPERMARKET,Vukovarska%202%20Split,5678,20260110,0600.csv">y</a>`))
		default:
			_, _ = w.Write([]byte(`<html></html>`))
		}
	}))
	defer srv.Close()

	discover := konzumDiscover(srv.URL)
	client := kohttp.NewClient(ratelimit.Config{RequestsPerSecond: 1000, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1})

	files, err := discover(context.Background(), client, time.Now())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "1234", files[0].StoreID)
	assert.Equal(t, "5678", files[1].StoreID)
	assert.Equal(t, 3, pageHits, "must stop one page after the last page with new links")
}

func TestKonzumDiscover_FetchFailureOnFirstPageIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	discover := konzumDiscover(srv.URL)
	client := kohttp.NewClient(ratelimit.Config{RequestsPerSecond: 1000, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1})

	_, err := discover(context.Background(), client, time.Now())
	assert.Error(t, err)
}

func TestResolveURL_MalformedBaseFallsBackToLink(t *testing.T) {
	assert.Equal(t, "x.csv", resolveURL("://not a url", "x.csv"))
}

func TestNewKonzumAdapter_HasKonzumSlug(t *testing.T) {
	a := NewKonzumAdapter()
	assert.Equal(t, "konzum", a.Slug())
}
