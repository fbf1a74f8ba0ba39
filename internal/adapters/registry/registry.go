// Package registry wires every concrete adapter in
// internal/adapters/chains into a chains.Registry at process startup.
package registry

import (
	"github.com/rs/zerolog/log"

	adapters "github.com/kosarica/pricehist/internal/adapters/chains"
	"github.com/kosarica/pricehist/internal/chains"
)

// InitializeDefaultAdapters registers the reference Konzum (HTML+CSV),
// Interspar (XLSX), and Kaufland (XML) adapters, plus the generic CSV
// adapter for every other slug in internal/adapters/config.Chains,
// into reg. Call once at process startup before any pipeline run.
func InitializeDefaultAdapters(reg *chains.Registry) {
	reg.Register(adapters.NewKonzumAdapter())
	reg.Register(adapters.NewIntersparAdapter())
	reg.Register(adapters.NewKauflandAdapter())

	for _, slug := range adapters.RegisterableSlugs {
		a, err := adapters.NewGenericAdapter(slug)
		if err != nil {
			log.Error().Err(err).Str("chain", slug).Msg("skipping chain with no adapter wiring")
			continue
		}
		reg.Register(a)
	}
}
