package geo

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Place is a resolved birth place.
type Place struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Country   string  `json:"country" yaml:"country"`
	State     string  `json:"state" yaml:"state"`
}

func (p Place) LatitudeDMS() string {
	return FormatLatitude(p.Latitude)
}

func (p Place) LongitudeDMS() string {
	return FormatLongitude(p.Longitude)
}

// PlaceResolver is the boundary to a place search provider. Callers
// register for selections; the provider decides how candidates are found.
type PlaceResolver interface {
	OnPlaceSelected(fn func(Place))
}

// Searcher is implemented by resolvers that can be queried directly.
type Searcher interface {
	PlaceResolver
	Search(ctx context.Context, query string) ([]Place, error)
	Select(p Place)
}

// listeners fans a selection out to registered callbacks.
type listeners struct {
	mu  sync.RWMutex
	fns []func(Place)
}

func (l *listeners) OnPlaceSelected(fn func(Place)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) Select(p Place) {
	l.mu.RLock()
	fns := slices.Clone(l.fns)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(p)
	}
}

// StaticResolver searches a fixed gazetteer.
type StaticResolver struct {
	listeners
	places []Place
}

func NewStaticResolver(places ...Place) *StaticResolver {
	if len(places) == 0 {
		places = DefaultGazetteer
	}
	sorted := append([]Place(nil), places...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &StaticResolver{places: sorted}
}

// Search matches names case-insensitively by prefix.
func (s *StaticResolver) Search(_ context.Context, query string) ([]Place, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []Place
	for _, p := range s.places {
		if strings.HasPrefix(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

var DefaultGazetteer = []Place{
	{Name: "Kozhikode", Latitude: 11.2588, Longitude: 75.7804, Country: "India", State: "Kerala"},
	{Name: "Kochi", Latitude: 9.9312, Longitude: 76.2673, Country: "India", State: "Kerala"},
	{Name: "Chennai", Latitude: 13.0827, Longitude: 80.2707, Country: "India", State: "Tamil Nadu"},
	{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, Country: "India", State: "Maharashtra"},
	{Name: "New Delhi", Latitude: 28.6139, Longitude: 77.2090, Country: "India", State: "Delhi"},
	{Name: "Kolkata", Latitude: 22.5726, Longitude: 88.3639, Country: "India", State: "West Bengal"},
	{Name: "Bengaluru", Latitude: 12.9716, Longitude: 77.5946, Country: "India", State: "Karnataka"},
	{Name: "London", Latitude: 51.5074, Longitude: -0.1278, Country: "United Kingdom", State: "England"},
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, Country: "United States", State: "New York"},
	{Name: "Sydney", Latitude: -33.8688, Longitude: 151.2093, Country: "Australia", State: "New South Wales"},
}
