package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricehist/internal/chains"
	"github.com/kosarica/pricehist/internal/domain"
	"github.com/kosarica/pricehist/internal/pipeline"
)

type stubSource struct {
	slug string
}

func (s stubSource) Slug() string { return s.slug }
func (s stubSource) Fetch(ctx context.Context, date time.Time) []domain.Store {
	p, _ := domain.NewProduct(domain.Product{ProductID: "P1", Name: "N", Price: domain.NewMoney(1)})
	st, _ := domain.NewStore(domain.Store{Chain: s.slug, StoreID: "S1", Products: []domain.Product{p}})
	return []domain.Store{st}
}

func TestRunRange_ProcessesEachDayOnce(t *testing.T) {
	reg := chains.NewRegistry()
	reg.Register(stubSource{slug: "acme"})
	driver := pipeline.New(reg, nil)

	root := t.TempDir()
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	results := RunRange(context.Background(), driver, root, start, end, nil)
	require.Len(t, results, 3)
	for i, want := range []string{"2026-01-10", "2026-01-11", "2026-01-12"} {
		assert.Equal(t, want, results[i].Date.Format("2006-01-02"))
		assert.False(t, results[i].Skipped)
		assert.NoError(t, results[i].Err)
	}
}

func TestRunRange_SkipsDayWhoseDateDirAlreadyExists(t *testing.T) {
	reg := chains.NewRegistry()
	reg.Register(stubSource{slug: "acme"})
	driver := pipeline.New(reg, nil)

	root := t.TempDir()
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2026-01-10"), 0o755))

	results := RunRange(context.Background(), driver, root, date, date, nil)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
}

func TestRunRange_SkipsDayWhoseZipAlreadyExists(t *testing.T) {
	reg := chains.NewRegistry()
	reg.Register(stubSource{slug: "acme"})
	driver := pipeline.New(reg, nil)

	root := t.TempDir()
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(root, "2026-01-10.zip"), []byte("x"), 0o644))

	results := RunRange(context.Background(), driver, root, date, date, nil)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
}

func TestRunRange_SingleDayRangeIsInclusive(t *testing.T) {
	reg := chains.NewRegistry()
	reg.Register(stubSource{slug: "acme"})
	driver := pipeline.New(reg, nil)

	root := t.TempDir()
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	results := RunRange(context.Background(), driver, root, date, date, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "2026-01-10", results[0].Date.Format("2006-01-02"))
}
