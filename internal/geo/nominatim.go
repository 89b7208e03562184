package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	nominatimLimit      = 5
)

// NominatimResolver searches OpenStreetMap's Nominatim service.
type NominatimResolver struct {
	listeners
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatimResolver(baseURL, userAgent string) *NominatimResolver {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (r nominatimResult) place() (Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	name := r.Name
	for _, candidate := range []string{r.Address.City, r.Address.Town, r.Address.Village} {
		if name != "" {
			break
		}
		name = candidate
	}
	if name == "" {
		name, _, _ = strings.Cut(r.DisplayName, ",")
	}

	return Place{
		Name:      strings.TrimSpace(name),
		Latitude:  lat,
		Longitude: lon,
		Country:   r.Address.Country,
		State:     r.Address.State,
	}, nil
}

func (n *NominatimResolver) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(nominatimLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search places: status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		p, err := r.place()
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

var (
	_ Searcher = (*NominatimResolver)(nil)
	_ Searcher = (*StaticResolver)(nil)
)
