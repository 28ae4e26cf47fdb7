package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"namozvaqti/internal/config"
	"namozvaqti/internal/database"
	"namozvaqti/internal/models"
	"namozvaqti/internal/prayer"
	"namozvaqti/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret-key"

type fakePrayer struct {
	err   error
	calls []string
}

func (f *fakePrayer) Fetch(_ context.Context, city string) (*models.PrayerTimesReport, error) {
	f.calls = append(f.calls, city)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PrayerTimesReport{
		City: city, HijriMonth: "ramazon", HijriDay: "23",
		TongSaharlik: "05:12", Quyosh: "06:31", Peshin: "12:33", Asr: "16:41",
		ShomIftor: "18:35", Hufton: "19:49", Date: "2026-03-12", Weekday: "Payshanba",
	}, nil
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("closed") }

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			HeaderAPIKey: "x-api-key",
			APIKeys:      []config.APIClientKey{{Key: testKey, Name: "dashboard"}},
		},
	}
}

func newTestServer(t *testing.T, cfg config.APIConfig, p *fakePrayer) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewPreferenceService(db, &logger)
	srv := NewHTTPServer(cfg, db, svc, p, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func get(t *testing.T, url, key string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, testAPIConfig(), &fakePrayer{})

	resp, body := get(t, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthz_Unavailable(t *testing.T) {
	logger := zerolog.New(io.Discard)
	srv := NewHTTPServer(testAPIConfig(), failingPinger{}, nil, &fakePrayer{}, &logger)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, testAPIConfig(), &fakePrayer{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPrayerTimes(t *testing.T) {
	p := &fakePrayer{}
	ts, _ := newTestServer(t, testAPIConfig(), p)

	resp, body := get(t, ts.URL+"/api/v1/prayer-times?region=Namangan", testKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Namangan", body["city"])
	assert.Equal(t, "05:12", body["tong_saharlik"])
	assert.Equal(t, "19:49", body["hufton"])
	assert.Equal(t, []string{"Namangan"}, p.calls)
}

func TestPrayerTimes_InvalidRegion(t *testing.T) {
	p := &fakePrayer{}
	ts, _ := newTestServer(t, testAPIConfig(), p)

	for _, region := range []string{"", "Moskva", "toshkent"} {
		resp, body := get(t, ts.URL+"/api/v1/prayer-times?region="+region, testKey)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, region)
		assert.Contains(t, body["error"], "Toshkent")
	}
	assert.Empty(t, p.calls)
}

func TestPrayerTimes_LookupFailure(t *testing.T) {
	p := &fakePrayer{err: &prayer.LookupError{City: "Buxoro", Err: errors.New("http 500")}}
	ts, _ := newTestServer(t, testAPIConfig(), p)

	resp, _ := get(t, ts.URL+"/api/v1/prayer-times?region=Buxoro", testKey)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPrayerTimes_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, testAPIConfig(), &fakePrayer{})

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/prayer-times?region=Toshkent", nil)
	require.NoError(t, err)
	req.Header.Set("x-api-key", testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStats(t *testing.T) {
	ts, db := newTestServer(t, testAPIConfig(), &fakePrayer{})
	ctx := context.Background()
	require.NoError(t, db.UpsertCity(ctx, 1, "Toshkent"))
	require.NoError(t, db.UpsertCity(ctx, 2, "Jizzax"))
	require.NoError(t, db.SetDailyNotify(ctx, 2, true))

	resp, body := get(t, ts.URL+"/api/v1/stats", testKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["users"])
	assert.Equal(t, float64(1), body["opted_in"])
}

func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, testAPIConfig(), &fakePrayer{})

	resp, body := get(t, ts.URL+"/api/v1/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, errMissingAPIKey.Error(), body["error"])

	resp, body = get(t, ts.URL+"/api/v1/stats", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, errInvalidAPIKey.Error(), body["error"])

	// health and metrics stay public
	resp, _ = get(t, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	ts, _ := newTestServer(t, cfg, &fakePrayer{})

	for i := 0; i < 2; i++ {
		resp, _ := get(t, ts.URL+"/api/v1/stats", testKey)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := get(t, ts.URL+"/api/v1/stats", testKey)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, errRateLimitedAPI.Error(), body["error"])
}

func TestHTTPAuth_ClientKey(t *testing.T) {
	a := NewHTTPAuth(testAPIConfig())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", a.clientKey(r))

	r.Header.Set("X-Api-Key", "k1")
	assert.Equal(t, "k1", a.clientKey(r))

	assert.Same(t, a.getLimiter("k1"), a.getLimiter("k1"))
}
