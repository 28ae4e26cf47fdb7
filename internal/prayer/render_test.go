package prayer

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"namozvaqti/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.PrayerTimesReport {
	return &models.PrayerTimesReport{
		City:         "Toshkent",
		HijriMonth:   "ramazon",
		HijriDay:     "23",
		TongSaharlik: "05:12",
		Quyosh:       "06:31",
		Peshin:       "12:33",
		Asr:          "16:41",
		ShomIftor:    "18:35",
		Hufton:       "19:49",
		Date:         "2026-03-12",
		Weekday:      "Payshanba",
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2026, 3, 12, 20, 0, 41, 0, time.UTC)
	out := Render(sampleReport(), now)

	assert.True(t, strings.HasPrefix(out, "Namoz Vaqtlari:\n"))
	assert.Contains(t, out, "📍 《 🌇 Toshkent 》 vaqti bilan")
	assert.Contains(t, out, "🌍  Hijri oy: - ramazon")
	assert.Contains(t, out, "📅  ramazon oyining 23 - kuni")
	assert.Contains(t, out, "🌑  Tong - saharlik:  - 05:12")
	assert.Contains(t, out, "🌞  Quyosh chiqishi: - 06:31")
	assert.Contains(t, out, "🕰  Bomdod:    -    05:12")
	assert.Contains(t, out, "🕰  Peshin:      -    12:33")
	assert.Contains(t, out, "🕰  Asr:            -    16:41")
	assert.Contains(t, out, "🕰  Shom:          -    18:35")
	assert.Contains(t, out, "🕰  Xufton:    -    19:49")
	assert.Contains(t, out, "📅 2026 - yil | Oyning 03 - kuni | Payshanba | Vaqt - 20:00")
}

func TestRender_UsesRenderTime(t *testing.T) {
	report := sampleReport()

	morning := Render(report, time.Date(2026, 3, 12, 7, 5, 0, 0, time.UTC))
	evening := Render(report, time.Date(2026, 3, 12, 21, 30, 0, 0, time.UTC))

	assert.Contains(t, morning, "Vaqt - 07:05")
	assert.Contains(t, evening, "Vaqt - 21:30")
}

func TestFetchAndRender(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(toshkentResponse))
	})
	logger := zerolog.New(io.Discard)
	c.logger = &logger

	report, err := c.Fetch(context.Background(), "Toshkent")
	require.NoError(t, err)

	out := Render(report, time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC))
	for _, v := range []string{"05:12", "06:31", "12:33", "16:41", "18:35", "19:49", "ramazon", "23", "2026 - yil", "Oyning 03", "Payshanba"} {
		assert.Contains(t, out, v)
	}
}
