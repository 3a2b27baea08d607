package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/schedule"
	"github.com/rs/zerolog/log"
)

// ErrNetwork wraps every failure to obtain prayer times from the service
var ErrNetwork = errors.New("prayer time lookup failed")

// Client fetches daily prayer times from a MyQuran-compatible HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL, e.g. https://api.myquran.com/v2
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type jadwalResponse struct {
	Status bool `json:"status"`
	Data   struct {
		ID     json.RawMessage `json:"id"`
		Lokasi string          `json:"lokasi"`
		Jadwal struct {
			Tanggal string `json:"tanggal"`
			Subuh   string `json:"subuh"`
			Dzuhur  string `json:"dzuhur"`
			Ashar   string `json:"ashar"`
			Maghrib string `json:"maghrib"`
			Isya    string `json:"isya"`
		} `json:"jadwal"`
	} `json:"data"`
}

// Resolve returns the five prayer times for locationID on date
func (c *Client) Resolve(ctx context.Context, locationID string, date time.Time) (map[models.PrayerName]string, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, fmt.Errorf("%w: empty location id", ErrNetwork)
	}

	url := fmt.Sprintf("%s/sholat/jadwal/%s/%04d/%02d/%02d",
		c.baseURL, locationID, date.Year(), int(date.Month()), date.Day())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP request failed: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	var payload jadwalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	if !payload.Status {
		return nil, fmt.Errorf("%w: service reported failure for location %s", ErrNetwork, locationID)
	}

	j := payload.Data.Jadwal
	times := map[models.PrayerName]string{
		models.Fajr:    j.Subuh,
		models.Dhuhr:   j.Dzuhur,
		models.Asr:     j.Ashar,
		models.Maghrib: j.Maghrib,
		models.Isha:    j.Isya,
	}

	for _, p := range models.AllPrayers {
		if _, err := schedule.ParseTimeOfDay(times[p]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, p, err)
		}
	}

	log.Info().Str("location", payload.Data.Lokasi).Str("date", j.Tanggal).Msg("Resolved prayer times")
	return times, nil
}
