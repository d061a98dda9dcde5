// Package geo covers the two device-location collaborators used at check-in:
// a provider of the current position fix and an optional reverse geocoder.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Fix is a position reading with its accuracy radius in metres.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

func (f Fix) Valid() bool {
	return f.Latitude >= -90 && f.Latitude <= 90 && f.Longitude >= -180 && f.Longitude <= 180
}

type Provider interface {
	CurrentFix(ctx context.Context) (Fix, error)
}

// StaticProvider returns a fix the device already resolved and sent along
// with the request. A nil Fix means the device had none; Denied marks that
// the user refused location access.
type StaticProvider struct {
	Fix    *Fix
	Denied bool
}

func (p StaticProvider) CurrentFix(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if p.Denied {
		return Fix{}, ErrPermissionDenied
	}
	if p.Fix == nil {
		return Fix{}, ErrUnavailable
	}
	if !p.Fix.Valid() {
		return Fix{}, fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
	}
	return *p.Fix, nil
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error)
}

// NopGeocoder is used when no geocoding endpoint is configured.
type NopGeocoder struct{}

func (NopGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", errors.New("reverse geocoding disabled")
}

// NominatimGeocoder queries the /reverse endpoint of a Nominatim-compatible
// service.
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
	} `json:"address"`
	Error string `json:"error"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geocoder response: %w", err)
	}
	if body.Error != "" {
		return "", errors.New(body.Error)
	}
	address := FormatAddress(body.street(), body.city(), body.Address.State)
	if address == "" {
		return "", errors.New("geocoder returned no address")
	}
	return address, nil
}

func (r nominatimResponse) street() string {
	return strings.TrimSpace(r.Address.HouseNumber + " " + r.Address.Road)
}

func (r nominatimResponse) city() string {
	for _, name := range []string{r.Address.City, r.Address.Town, r.Address.Village} {
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatAddress joins the non-empty parts as "street city region".
func FormatAddress(street, city, region string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{street, city, region} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
