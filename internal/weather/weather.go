package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

const defaultTimeout = 10 * time.Second

// ErrFetchFailed is returned when the weather API cannot be reached or
// answers with a non-200 status.
var ErrFetchFailed = errors.New("weather: fetch failed")

// cannedPayload is served in canned-data mode so development setups do not
// burn API quota.
var cannedPayload = json.RawMessage(`{
  "coord": {"lon": -121.9844, "lat": 37.3483},
  "weather": [{"id": 801, "main": "Clouds", "description": "few clouds", "icon": "02d"}],
  "base": "stations",
  "main": {"temp": 86.68, "feels_like": 84.87, "temp_min": 59.16, "temp_max": 105.26, "pressure": 1011, "humidity": 33},
  "visibility": 10000,
  "wind": {"speed": 11.5, "deg": 330},
  "clouds": {"all": 20},
  "dt": 1622499910,
  "sys": {"type": 1, "id": 5845, "country": "US", "sunrise": 1622465358, "sunset": 1622517745},
  "timezone": -25200,
  "id": 0,
  "name": "Santa Clara",
  "cod": 200
}`)

// Service fetches current conditions by zip code.
//
// Thread Safety: Fetch is safe for concurrent use.
type Service struct {
	baseURL    string
	zipCode    string
	apiKey     string
	httpClient *http.Client
}

// NewService creates a weather fetcher for the given zip code.
func NewService(zipCode, apiKey string) *Service {
	return &Service{
		baseURL:    defaultBaseURL,
		zipCode:    zipCode,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Fetch returns the raw current-conditions payload. With doNotQuery set the
// canned payload is returned without touching the network.
func (s *Service) Fetch(ctx context.Context, doNotQuery bool) (json.RawMessage, error) {
	if doNotQuery {
		return cannedPayload, nil
	}

	q := url.Values{}
	q.Set("zip", s.zipCode)
	q.Set("units", "imperial")
	q.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrFetchFailed)
	}
	return json.RawMessage(body), nil
}
