package chains

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricehist/internal/domain"
)

type stubSource struct {
	slug string
}

func (s stubSource) Slug() string { return s.slug }
func (s stubSource) Fetch(ctx context.Context, date time.Time) []domain.Store {
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubSource{slug: "acme"})

	got, ok := r.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "acme", got.Slug())
	assert.True(t, r.IsRegistered("acme"))
	assert.False(t, r.IsRegistered("nope"))
}

func TestRegistry_SlugsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(stubSource{slug: "zabac"})
	r.Register(stubSource{slug: "acme"})
	r.Register(stubSource{slug: "kaufland"})

	assert.Equal(t, []string{"acme", "kaufland", "zabac"}, r.Slugs())
}

func TestRegistry_PanicsOnInvalidSlug(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.Register(stubSource{slug: "Not-Valid"})
	})
}

func TestRegistry_PanicsOnDuplicateSlug(t *testing.T) {
	r := NewRegistry()
	r.Register(stubSource{slug: "acme"})
	assert.Panics(t, func() {
		r.Register(stubSource{slug: "acme"})
	})
}
