package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultNominatimURL is the public OSM Nominatim reverse endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

// nominatimAddress is the structured address block of a Nominatim
// response. Only the fields the label composer reads are mapped.
type nominatimAddress struct {
	Village      string `json:"village"`
	Town         string `json:"town"`
	City         string `json:"city"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

// NominatimGeocoder reverse geocodes via the OSM Nominatim HTTP API.
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a geocoder against the given base URL,
// defaulting to the public OSM instance. Nominatim requires an
// identifying User-Agent.
func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "isstrack"
	}
	return &NominatimGeocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Reverse looks up the address nearest to lat/lon. A location with no
// addressable place (open ocean) returns (nil, nil).
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")
	q.Set("accept-language", "en")
	q.Set("zoom", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, g.baseURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var nr nominatimResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	// Nominatim reports "Unable to geocode" for unaddressable points.
	if nr.Error != "" || nr.DisplayName == "" {
		return nil, nil
	}

	city := nr.Address.City
	if city == "" {
		city = nr.Address.Town
	}
	if city == "" {
		city = nr.Address.Village
	}

	return &Address{
		DisplayName:  nr.DisplayName,
		City:         city,
		Municipality: nr.Address.Municipality,
		Country:      nr.Address.Country,
	}, nil
}
