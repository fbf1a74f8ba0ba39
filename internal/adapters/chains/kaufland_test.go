package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKauflandAdapter_HasKauflandSlug(t *testing.T) {
	a := NewKauflandAdapter()
	assert.Equal(t, "kaufland", a.Slug())
}

func TestKauflandFieldMapping_MapsRequiredFields(t *testing.T) {
	assert.Equal(t, "naziv", kauflandFieldMapping.Name)
	assert.Equal(t, "cijena", kauflandFieldMapping.Price)
	require.NotNil(t, kauflandFieldMapping.ExternalID)
	assert.Equal(t, "sifra", *kauflandFieldMapping.ExternalID)
}

func TestKauflandStorePortalID_ExtractsDigitsFromPath(t *testing.T) {
	m := kauflandStorePortalID.FindString("/assets/price-lists/store-4821/prices.xml")
	assert.Equal(t, "4821", m)
}

func TestKauflandStorePortalID_NoMatchOnPathWithoutDigits(t *testing.T) {
	m := kauflandStorePortalID.FindString("/assets/price-lists/store/prices.xml")
	assert.Equal(t, "", m)
}
