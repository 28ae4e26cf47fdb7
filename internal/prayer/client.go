package prayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"namozvaqti/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxBodySize = 1 << 20

// Client queries the islomapi.uz "present day" endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
	loc        *time.Location
	now        func() time.Time

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration, loc *time.Location, logger *zerolog.Logger) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "?"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

// UseRedisCache enables caching of parsed reports per city and local day.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// apiResponse mirrors the subset of the payload the bot uses.
type apiResponse struct {
	Region    string `json:"region"`
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	HijriDate *struct {
		Month string     `json:"month"`
		Day   flexString `json:"day"`
	} `json:"hijri_date"`
	Times *struct {
		TongSaharlik string `json:"tong_saharlik"`
		Quyosh       string `json:"quyosh"`
		Peshin       string `json:"peshin"`
		Asr          string `json:"asr"`
		ShomIftor    string `json:"shom_iftor"`
		Hufton       string `json:"hufton"`
	} `json:"times"`
}

// flexString accepts both a JSON string and a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Fetch performs one lookup for city. Every failure is a *LookupError.
func (c *Client) Fetch(ctx context.Context, city string) (*models.PrayerTimesReport, error) {
	cacheKey := fmt.Sprintf("prayer:%s:%s", city, c.now().In(c.loc).Format("2006-01-02"))

	var cached models.PrayerTimesReport
	if c.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	report, err := c.fetch(ctx, city)
	if err != nil {
		c.logger.Warn().Err(err).Str("city", city).Msg("Prayer times lookup failed")
		return nil, &LookupError{City: city, Err: err}
	}

	c.writeCache(ctx, cacheKey, report)
	return report, nil
}

func (c *Client) fetch(ctx context.Context, city string) (*models.PrayerTimesReport, error) {
	endpoint := fmt.Sprintf("%s?region=%s", c.baseURL, url.QueryEscape(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("city", city).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Prayer times API response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return payload.report(city)
}

func (p *apiResponse) report(city string) (*models.PrayerTimesReport, error) {
	if p.HijriDate == nil {
		return nil, missingField("hijri_date")
	}
	if p.Times == nil {
		return nil, missingField("times")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"hijri_date.month", p.HijriDate.Month},
		{"hijri_date.day", string(p.HijriDate.Day)},
		{"times.tong_saharlik", p.Times.TongSaharlik},
		{"times.quyosh", p.Times.Quyosh},
		{"times.peshin", p.Times.Peshin},
		{"times.asr", p.Times.Asr},
		{"times.shom_iftor", p.Times.ShomIftor},
		{"times.hufton", p.Times.Hufton},
		{"date", p.Date},
		{"weekday", p.Weekday},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, missingField(f.name)
		}
	}
	// Year and month are sliced out of the date verbatim.
	if len(p.Date) < 7 {
		return nil, fmt.Errorf("malformed date %q", p.Date)
	}

	return &models.PrayerTimesReport{
		City:         city,
		HijriMonth:   p.HijriDate.Month,
		HijriDay:     string(p.HijriDate.Day),
		TongSaharlik: p.Times.TongSaharlik,
		Quyosh:       p.Times.Quyosh,
		Peshin:       p.Times.Peshin,
		Asr:          p.Times.Asr,
		ShomIftor:    p.Times.ShomIftor,
		Hufton:       p.Times.Hufton,
		Date:         p.Date,
		Weekday:      p.Weekday,
	}, nil
}

var errMissingField = errors.New("missing field")

func missingField(name string) error {
	return fmt.Errorf("%w: %s", errMissingField, name)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Failed to cache prayer times")
	}
}
