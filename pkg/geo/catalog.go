package geo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Point is a city centroid in decimal degrees.
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Catalog maps city names to centroids. Names missing from the catalog
// resolve to Default.
type Catalog struct {
	Default Point            `yaml:"default" json:"default"`
	Cities  map[string]Point `yaml:"cities" json:"cities"`
}

// Load reads a YAML catalog. A file without a default entry keeps the
// built-in default.
func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var raw struct {
		Default *Point           `yaml:"default"`
		Cities  map[string]Point `yaml:"cities"`
	}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return Catalog{}, err
	}
	if len(raw.Cities) == 0 {
		return Catalog{}, fmt.Errorf("city catalog empty")
	}
	cat := Catalog{Default: DefaultCatalog().Default, Cities: raw.Cities}
	if raw.Default != nil {
		cat.Default = *raw.Default
	}
	return cat, nil
}

// Resolve returns the centroid for city and whether it was found.
func (c Catalog) Resolve(city string) (Point, bool) {
	if p, ok := c.Cities[city]; ok {
		return p, true
	}
	name := strings.TrimSpace(city)
	for k, v := range c.Cities {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return c.Default, false
}

func (c Catalog) Coordinates(city string) Point {
	p, _ := c.Resolve(city)
	return p
}

// DistanceKm is the great-circle distance between two city centroids.
func (c Catalog) DistanceKm(cityA, cityB string) float64 {
	return Haversine(c.Coordinates(cityA), c.Coordinates(cityB))
}

// Names lists the catalog cities in alphabetical order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Cities))
	for name := range c.Cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func DefaultCatalog() Catalog {
	return Catalog{
		Default: Point{Lat: 28.7041, Lon: 77.1025},
		Cities: map[string]Point{
			"Mumbai":        {Lat: 19.0760, Lon: 72.8777},
			"Delhi":         {Lat: 28.7041, Lon: 77.1025},
			"Bangalore":     {Lat: 12.9716, Lon: 77.5946},
			"Chennai":       {Lat: 13.0827, Lon: 80.2707},
			"Kolkata":       {Lat: 22.5726, Lon: 88.3639},
			"Hyderabad":     {Lat: 17.3850, Lon: 78.4867},
			"Pune":          {Lat: 18.5204, Lon: 73.8567},
			"Ahmedabad":     {Lat: 23.0225, Lon: 72.5714},
			"Jaipur":        {Lat: 26.9124, Lon: 75.7873},
			"Lucknow":       {Lat: 26.8467, Lon: 80.9462},
			"Kanpur":        {Lat: 26.4499, Lon: 80.3319},
			"Nagpur":        {Lat: 21.1458, Lon: 79.0882},
			"Indore":        {Lat: 22.7196, Lon: 75.8577},
			"Thane":         {Lat: 19.2183, Lon: 72.9781},
			"Bhopal":        {Lat: 23.2599, Lon: 77.4126},
			"Visakhapatnam": {Lat: 17.6868, Lon: 83.2185},
			"Pimpri":        {Lat: 18.6298, Lon: 73.8131},
			"Patna":         {Lat: 25.5941, Lon: 85.1376},
		},
	}
}
