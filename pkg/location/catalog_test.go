package location

import (
	"testing"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	catalog := NewCatalog([]models.Location{
		{ID: "2", Name: "KOTA SURABAYA"},
		{ID: "1", Name: "KOTA JAKARTA"},
		{ID: "3", Name: "KAB. SURAKARTA"},
	})

	results := catalog.Search("  sura ")
	require.Len(t, results, 2)
	assert.Equal(t, "KAB. SURAKARTA", results[0].Name)
	assert.Equal(t, "KOTA SURABAYA", results[1].Name)

	assert.Empty(t, catalog.Search("bandung"))
	assert.Len(t, catalog.Search(""), 3)
}

func TestByID(t *testing.T) {
	catalog := Default()

	loc, ok := catalog.ByID("1301")
	require.True(t, ok)
	assert.Equal(t, "KOTA JAKARTA", loc.Name)
	assert.Equal(t, "KOTA JAKARTA (GMT+7)", loc.String())

	_, ok = catalog.ByID("missing")
	assert.False(t, ok)
}
