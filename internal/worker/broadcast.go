package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"namozvaqti/internal/domain"
	"namozvaqti/internal/metrics"
	"namozvaqti/internal/models"
	"namozvaqti/internal/prayer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sender delivers a plain text message to a Telegram user.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string) error
}

// Recipients lists the users subscribed to the daily broadcast.
type Recipients interface {
	OptedIn(ctx context.Context) ([]models.UserPreference, error)
}

// Result summarizes one broadcast cycle.
type Result struct {
	Recipients int
	Delivered  int
	Failed     int
	Skipped    int
}

// BroadcastConfig holds the schedule and fan-out settings.
type BroadcastConfig struct {
	Hour          int
	Minute        int
	Location      *time.Location
	Window        time.Duration
	Workers       int
	RatePerSecond float64
	Retry         RetryPolicy
	MarkerTTL     time.Duration
}

// Broadcaster sends the prayer-times report to every opted-in user once a day.
type Broadcaster struct {
	recipients Recipients
	prayer     domain.PrayerClient
	sender     Sender
	state      domain.StateRepository
	clock      Clock
	cfg        BroadcastConfig
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	mu        sync.Mutex
	lastFired string
}

func NewBroadcaster(
	recipients Recipients,
	prayerClient domain.PrayerClient,
	sender Sender,
	state domain.StateRepository,
	clock Clock,
	cfg BroadcastConfig,
	logger *zerolog.Logger,
) *Broadcaster {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = models.DefaultBroadcastWorkers
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = models.DefaultBroadcastRate
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = 2 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 15 * time.Second
	}
	if cfg.MarkerTTL <= 0 {
		cfg.MarkerTTL = models.BroadcastMarkerTTL * time.Second
	}
	if clock == nil {
		clock = RealClock
	}

	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Broadcaster{
		recipients: recipients,
		prayer:     prayerClient,
		sender:     sender,
		state:      state,
		clock:      clock,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		logger:     logger,
	}
}

// windowStart returns the trigger instant on the local date of t.
func (b *Broadcaster) windowStart(t time.Time) time.Time {
	local := t.In(b.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), b.cfg.Hour, b.cfg.Minute, 0, 0, b.cfg.Location)
}

// InWindow reports whether t falls in [HH:MM, HH:MM+window) of its local date.
func (b *Broadcaster) InWindow(t time.Time) bool {
	start := b.windowStart(t)
	return !t.Before(start) && t.Before(start.Add(b.cfg.Window))
}

func (b *Broadcaster) firedOn(date string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFired == date
}

// NextTrigger returns the earliest instant at or after now when a cycle may fire.
func (b *Broadcaster) NextTrigger(now time.Time) time.Time {
	start := b.windowStart(now)
	date := start.Format("2006-01-02")

	switch {
	case now.Before(start):
		return start
	case b.InWindow(now) && !b.firedOn(date):
		return now
	default:
		local := now.In(b.cfg.Location)
		return time.Date(local.Year(), local.Month(), local.Day()+1, b.cfg.Hour, b.cfg.Minute, 0, 0, b.cfg.Location)
	}
}

// Run waits for each trigger instant and fires the cycle until ctx is cancelled.
// A cycle that has started is finished even if ctx is cancelled meanwhile.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.logger.Info().
		Str("time", fmt.Sprintf("%02d:%02d", b.cfg.Hour, b.cfg.Minute)).
		Str("timezone", b.cfg.Location.String()).
		Dur("window", b.cfg.Window).
		Msg("Broadcast loop started")
	defer b.logger.Info().Msg("Broadcast loop stopped")

	for {
		now := b.clock.Now()
		next := b.NextTrigger(now)

		if wait := next.Sub(now); wait > 0 {
			b.logger.Debug().Time("next", next).Dur("wait", wait).Msg("Waiting for next broadcast")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-b.clock.After(wait):
			}
		}

		b.Tick(context.WithoutCancel(ctx), b.clock.Now())

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Tick fires a cycle when now is inside the trigger window and the cycle for that date
// has not fired yet. It reports whether a cycle was started.
func (b *Broadcaster) Tick(ctx context.Context, now time.Time) bool {
	if !b.InWindow(now) {
		return false
	}

	start := b.windowStart(now)
	date := start.Format("2006-01-02")

	b.mu.Lock()
	if b.lastFired == date {
		b.mu.Unlock()
		return false
	}
	b.lastFired = date
	b.mu.Unlock()

	logger := b.logger.With().Str("run_id", uuid.New().String()).Str("date", date).Logger()

	if b.state != nil {
		ok, err := b.state.MarkOnce(ctx, "broadcast:"+date, b.cfg.MarkerTTL)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Failed to set broadcast marker, firing anyway")
		case !ok:
			logger.Info().Msg("Broadcast already fired for this date")
			return false
		}
	}

	b.runCycle(ctx, start.Add(b.cfg.Window), &logger)
	return true
}

func (b *Broadcaster) runCycle(ctx context.Context, deadline time.Time, logger *zerolog.Logger) {
	started := time.Now()

	prefs, err := b.loadRecipients(ctx, deadline, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Broadcast cycle skipped: cannot read recipients")
		metrics.ObserveCycle("skipped", time.Since(started))
		return
	}

	logger.Info().Int("recipients", len(prefs)).Msg("Broadcast cycle started")
	res := b.Deliver(ctx, prefs)

	metrics.ObserveCycle("completed", time.Since(started))
	logger.Info().
		Int("recipients", res.Recipients).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Dur("duration", time.Since(started)).
		Msg("Broadcast cycle finished")
}

// loadRecipients reads the opted-in users, retrying with backoff while the window is open.
func (b *Broadcaster) loadRecipients(ctx context.Context, deadline time.Time, logger *zerolog.Logger) ([]models.UserPreference, error) {
	for attempt := 1; ; attempt++ {
		prefs, err := b.recipients.OptedIn(ctx)
		if err == nil {
			return prefs, nil
		}

		delay := b.cfg.Retry.NextDelay(attempt)
		if b.cfg.Retry.Exhausted(attempt) || !b.clock.Now().Add(delay).Before(deadline) {
			return nil, err
		}

		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("Failed to read recipients, retrying")
		select {
		case <-ctx.Done():
			return nil, errors.Join(err, ctx.Err())
		case <-b.clock.After(delay):
		}
	}
}

// Deliver fans the report out to prefs with bounded concurrency. A failure for one
// recipient never affects the others.
func (b *Broadcaster) Deliver(ctx context.Context, prefs []models.UserPreference) Result {
	var delivered, failed, skipped atomic.Int64

	jobs := make(chan models.UserPreference)
	var wg sync.WaitGroup

	workers := b.cfg.Workers
	if workers > len(prefs) {
		workers = len(prefs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pref := range jobs {
				switch outcome := b.deliverOne(ctx, pref); outcome {
				case metrics.OutcomeDelivered:
					delivered.Add(1)
				case metrics.OutcomeSkipped:
					skipped.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	for _, pref := range prefs {
		jobs <- pref
	}
	close(jobs)
	wg.Wait()

	return Result{
		Recipients: len(prefs),
		Delivered:  int(delivered.Load()),
		Failed:     int(failed.Load()),
		Skipped:    int(skipped.Load()),
	}
}

func (b *Broadcaster) deliverOne(ctx context.Context, pref models.UserPreference) (outcome string) {
	logger := b.logger.With().Int64("user_id", pref.UserID).Str("city", pref.City).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Panic while delivering broadcast")
			outcome = metrics.OutcomeFailed
		}
		metrics.IncDelivery(outcome)
	}()

	if pref.City == "" {
		logger.Debug().Msg("No city selected, skipping")
		return metrics.OutcomeSkipped
	}

	report, err := b.prayer.Fetch(ctx, pref.City)
	if err != nil {
		if errors.Is(err, prayer.ErrLookup) {
			logger.Warn().Err(err).Msg("Prayer times unavailable, recipient skipped this cycle")
		} else {
			logger.Error().Err(err).Msg("Prayer times lookup failed")
		}
		return metrics.OutcomeFailed
	}

	if err := b.limiter.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("Send pacing aborted")
		return metrics.OutcomeFailed
	}

	text := prayer.Render(report, b.clock.Now().In(b.cfg.Location))
	if err := b.sender.SendText(ctx, pref.UserID, text); err != nil {
		logger.Warn().Err(err).Msg("Failed to send daily prayer times")
		return metrics.OutcomeFailed
	}

	return metrics.OutcomeDelivered
}
