package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/models"
)

// Nominatim queries an OpenStreetMap Nominatim search endpoint.
// The public instance requires an identifying User-Agent.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatim returns a client for baseURL. A nil client gets a 10s timeout.
func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the first match for address.
func (n *Nominatim) Resolve(ctx context.Context, address string) (models.Position, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Position{}, Wrap(address, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return models.Position{}, Wrap(address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Position{}, Wrap(address, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.Position{}, Wrap(address, fmt.Errorf("decode response: %w", err))
	}
	if len(places) == 0 {
		logrus.WithField("address", address).Info("Geocoder returned no results")
		return models.Position{}, &NotFoundError{Address: address}
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Position{}, Wrap(address, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err))
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Position{}, Wrap(address, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err))
	}

	pos := models.Position{Lat: lat, Lng: lng}
	if !pos.Valid() {
		return models.Position{}, Wrap(address, fmt.Errorf("coordinate out of range: %v,%v", lat, lng))
	}
	return pos, nil
}
