package prayer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.aladhan.com"
	DefaultCity    = "Karachi"
	DefaultCountry = "Pakistan"
)

// AlAdhan looks timings up by a fixed city and country.
type AlAdhan struct {
	BaseURL string
	City    string
	Country string
	Client  *http.Client
}

func NewAlAdhan(baseURL, city, country string, timeout time.Duration) *AlAdhan {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(city) == "" {
		city = DefaultCity
	}
	if strings.TrimSpace(country) == "" {
		country = DefaultCountry
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AlAdhan{
		BaseURL: strings.TrimRight(baseURL, "/"),
		City:    city,
		Country: country,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (a *AlAdhan) endpoint() string {
	q := url.Values{}
	q.Set("city", a.City)
	q.Set("country", a.Country)
	return a.BaseURL + "/v1/timingsByCity?" + q.Encode()
}

func (a *AlAdhan) Timings(ctx context.Context) (Day, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint(), nil)
	if err != nil {
		return Day{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return Day{}, fmt.Errorf("aladhan request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Day{}, fmt.Errorf("aladhan read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Day{}, fmt.Errorf("aladhan status %d", resp.StatusCode)
	}
	return ParseAlAdhan(body)
}

// ParseAlAdhan pulls the five timings and the Hijri date out of a
// timingsByCity payload. Everything else in the payload is ignored.
func ParseAlAdhan(body []byte) (Day, error) {
	if !gjson.ValidBytes(body) {
		return Day{}, fmt.Errorf("aladhan: invalid json")
	}
	data := gjson.GetBytes(body, "data")
	timings := data.Get("timings")

	t := Times{
		Fajr:    timings.Get(Fajr).String(),
		Dhuhr:   timings.Get(Dhuhr).String(),
		Asr:     timings.Get(Asr).String(),
		Maghrib: timings.Get(Maghrib).String(),
		Isha:    timings.Get(Isha).String(),
	}
	for _, p := range t.Ordered() {
		if strings.TrimSpace(p.Time) == "" {
			return Day{}, fmt.Errorf("aladhan: missing %s timing", p.Name)
		}
	}

	hijri := data.Get("date.hijri")
	parts := []string{
		hijri.Get("day").String(),
		hijri.Get("month.en").String(),
		hijri.Get("year").String(),
	}
	return Day{
		Times:     t,
		HijriDate: strings.TrimSpace(strings.Join(parts, " ")),
	}, nil
}
