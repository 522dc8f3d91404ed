package services

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const geocodeUserAgent = "CivicBridge/1.0 (civic-issue-tracker)"

// GeoResult is a reverse-geocoding outcome. Either both fields were derived
// from the same provider response or both are nil.
type GeoResult struct {
	City  *string
	State *string
}

// Empty reports whether the lookup produced nothing usable.
func (g GeoResult) Empty() bool {
	return g.City == nil && g.State == nil
}

// Geocoder resolves coordinates to human-readable place names.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) GeoResult
}

// GeocodeClient reverse-geocodes via the OpenStreetMap Nominatim API.
// Every failure mode (transport error, bad status, malformed body, missing
// address fields) degrades to an empty result; it never returns an error.
// Nominatim's usage policy requires an identifying User-Agent.
type GeocodeClient struct {
	baseURL string
	client  *http.Client
}

func NewGeocodeClient(baseURL string) *GeocodeClient {
	return &GeocodeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimAddress struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	County        string `json:"county"`
	State         string `json:"state"`
	StateDistrict string `json:"state_district"`
}

type nominatimResponse struct {
	Address nominatimAddress `json:"address"`
}

// ReverseGeocode converts (lat,lng) to (city,state). City preference:
// city > town > village > municipality > county. State preference:
// state > state_district. Non-finite coordinates short-circuit to an empty
// result without a network call.
func (g *GeocodeClient) ReverseGeocode(ctx context.Context, lat, lng float64) GeoResult {
	if !isFinite(lat) || !isFinite(lng) {
		return GeoResult{}
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "10") // city-level detail

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return GeoResult{}
	}
	req.Header.Set("User-Agent", geocodeUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return GeoResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoResult{}
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return GeoResult{}
	}

	return GeoResult{
		City:  firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village, body.Address.Municipality, body.Address.County),
		State: firstNonEmpty(body.Address.State, body.Address.StateDistrict),
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}
