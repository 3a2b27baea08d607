package location

import (
	"sort"
	"strings"

	"github.com/borgmon/adzan-reminder/pkg/models"
)

// Catalog is a static list of selectable locations
type Catalog struct {
	locations []models.Location
}

// NewCatalog creates a catalog over locations, sorted by name
func NewCatalog(locations []models.Location) *Catalog {
	sorted := append([]models.Location(nil), locations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return &Catalog{locations: sorted}
}

// Default returns the bundled catalog. IDs are the city IDs of the prayer time service.
func Default() *Catalog {
	return NewCatalog(defaultLocations)
}

// All returns every location in the catalog
func (c *Catalog) All() []models.Location {
	return append([]models.Location(nil), c.locations...)
}

// Search returns the locations whose name contains query, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(query string) []models.Location {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.All()
	}

	results := []models.Location{}
	for _, loc := range c.locations {
		if strings.Contains(strings.ToLower(loc.Name), query) {
			results = append(results, loc)
		}
	}
	return results
}

// ByID returns the location with the given id
func (c *Catalog) ByID(id string) (models.Location, bool) {
	for _, loc := range c.locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return models.Location{}, false
}
