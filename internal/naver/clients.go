package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/metrics"
)

const defaultTimeout = 10 * time.Second

const (
	geocodeDefaultURL    = "https://naveropenapi.apigw.ntruss.com/map-geocode/v2/geocode"
	directionsDefaultURL = "https://naveropenapi.apigw.ntruss.com/map-direction/v1/driving"
)

// Route option profile sent with every directions request.
const (
	RouteOption = "trafast" // fastest route
	CarType     = "1"       // passenger car
	FuelType    = "gasoline"
	Mileage     = "14" // km per liter
)

// Credentials are the gateway API key pair sent as headers on every request.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// newHTTPClient returns an http.Client with the given timeout, or the default when zero.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doGet performs an authenticated GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, creds Credentials, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("X-NCP-APIGW-API-KEY-ID", creds.ClientID)
	req.Header.Set("X-NCP-APIGW-API-KEY", creds.ClientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}

	return nil
}

// ---- Geocoding ----

// GeocodeClient converts free-text addresses into coordinates.
type GeocodeClient struct {
	creds   Credentials
	baseURL string
	client  *http.Client
}

// NewGeocodeClient constructs a GeocodeClient against the production endpoint.
func NewGeocodeClient(creds Credentials, timeout time.Duration) *GeocodeClient {
	return &GeocodeClient{creds: creds, baseURL: geocodeDefaultURL, client: newHTTPClient(timeout)}
}

// NewGeocodeClientWithURL constructs a GeocodeClient pointing at a custom URL (for tests).
func NewGeocodeClientWithURL(baseURL string, creds Credentials) *GeocodeClient {
	return &GeocodeClient{creds: creds, baseURL: baseURL, client: newHTTPClient(0)}
}

type geocodeResponse struct {
	Status    string `json:"status"`
	Addresses []struct {
		RoadAddress string `json:"roadAddress"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"addresses"`
	ErrorMessage string `json:"errorMessage"`
}

// Geocode returns the first matching coordinate for address.
// Any failure is reported as an error wrapping location.ErrNotFound.
func (c *GeocodeClient) Geocode(ctx context.Context, address string) (location.Coordinate, error) {
	endpoint := c.baseURL + "?query=" + url.QueryEscape(address)

	var raw geocodeResponse
	if err := doGet(ctx, c.client, c.creds, endpoint, &raw); err != nil {
		metrics.ProviderRequest("geocode", metrics.OutcomeError)
		return location.Coordinate{}, fmt.Errorf("geocode %q: %w: %v", address, location.ErrNotFound, err)
	}

	if len(raw.Addresses) == 0 {
		metrics.ProviderRequest("geocode", metrics.OutcomeNotFound)
		return location.Coordinate{}, fmt.Errorf("geocode %q: %w: no addresses (status %q)", address, location.ErrNotFound, raw.Status)
	}

	first := raw.Addresses[0]
	lon, err := strconv.ParseFloat(first.X, 64)
	if err != nil {
		metrics.ProviderRequest("geocode", metrics.OutcomeError)
		return location.Coordinate{}, fmt.Errorf("geocode %q: %w: parsing x %q", address, location.ErrNotFound, first.X)
	}
	lat, err := strconv.ParseFloat(first.Y, 64)
	if err != nil {
		metrics.ProviderRequest("geocode", metrics.OutcomeError)
		return location.Coordinate{}, fmt.Errorf("geocode %q: %w: parsing y %q", address, location.ErrNotFound, first.Y)
	}

	metrics.ProviderRequest("geocode", metrics.OutcomeOK)
	return location.Coordinate{Lat: lat, Lon: lon}, nil
}

// ---- Driving directions ----

// DirectionsClient fetches driving summaries between two coordinates.
type DirectionsClient struct {
	creds   Credentials
	baseURL string
	client  *http.Client
}

// NewDirectionsClient constructs a DirectionsClient against the production endpoint.
func NewDirectionsClient(creds Credentials, timeout time.Duration) *DirectionsClient {
	return &DirectionsClient{creds: creds, baseURL: directionsDefaultURL, client: newHTTPClient(timeout)}
}

// NewDirectionsClientWithURL constructs a DirectionsClient pointing at a custom URL (for tests).
func NewDirectionsClientWithURL(baseURL string, creds Credentials) *DirectionsClient {
	return &DirectionsClient{creds: creds, baseURL: baseURL, client: newHTTPClient(0)}
}

type routeSummary struct {
	Distance  int64 `json:"distance"`
	Duration  int64 `json:"duration"`
	TollFare  int64 `json:"tollFare"`
	TaxiFare  int64 `json:"taxiFare"`
	FuelPrice int64 `json:"fuelPrice"`
}

type directionsResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Route   map[string][]struct {
		Summary *routeSummary `json:"summary"`
	} `json:"route"`
}

// Route returns the driving summary from one coordinate to another.
// Any failure is reported as an error wrapping location.ErrNotFound.
func (c *DirectionsClient) Route(ctx context.Context, from, to location.Coordinate) (location.Route, error) {
	q := url.Values{}
	q.Set("start", from.LngLat())
	q.Set("goal", to.LngLat())
	q.Set("option", RouteOption)
	q.Set("cartype", CarType)
	q.Set("fueltype", FuelType)
	q.Set("mileage", Mileage)
	endpoint := c.baseURL + "?" + q.Encode()

	var raw directionsResponse
	if err := doGet(ctx, c.client, c.creds, endpoint, &raw); err != nil {
		metrics.ProviderRequest("directions", metrics.OutcomeError)
		return location.Route{}, fmt.Errorf("route %s -> %s: %w: %v", from.LngLat(), to.LngLat(), location.ErrNotFound, err)
	}

	if raw.Route == nil {
		metrics.ProviderRequest("directions", metrics.OutcomeNotFound)
		return location.Route{}, fmt.Errorf("route %s -> %s: %w: no route (code %d: %s)",
			from.LngLat(), to.LngLat(), location.ErrNotFound, raw.Code, raw.Message)
	}

	options := raw.Route[RouteOption]
	if len(options) == 0 || options[0].Summary == nil {
		metrics.ProviderRequest("directions", metrics.OutcomeNotFound)
		return location.Route{}, fmt.Errorf("route %s -> %s: %w: empty %s summary",
			from.LngLat(), to.LngLat(), location.ErrNotFound, RouteOption)
	}

	s := options[0].Summary
	metrics.ProviderRequest("directions", metrics.OutcomeOK)
	return location.Route{
		Distance:  s.Distance,
		Duration:  s.Duration,
		TollFare:  s.TollFare,
		TaxiFare:  s.TaxiFare,
		FuelPrice: s.FuelPrice,
	}, nil
}
