package milestone

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const fallbackScanTime = "22:00"

// Scheduler runs the daily milestone scan at a configured wall-clock time in
// the home timezone. Malformed times fall back to 22:00.
type Scheduler struct {
	svc *Service
	c   *cron.Cron
	log zerolog.Logger
}

func NewScheduler(svc *Service, scanTime string, loc *time.Location, log zerolog.Logger) *Scheduler {
	s := &Scheduler{
		svc: svc,
		c:   cron.New(cron.WithLocation(loc)),
		log: log.With().Str("component", "milestone_scheduler").Logger(),
	}

	hour, minute, ok := parseScanTime(scanTime)
	if !ok {
		s.log.Warn().Str("scan_time", scanTime).
			Msgf("invalid scan time, falling back to %s", fallbackScanTime)
		hour, minute, _ = parseScanTime(fallbackScanTime)
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.c.AddFunc(spec, s.run); err != nil {
		// The spec is built from validated numbers; this only fires on a
		// programming error.
		panic(err)
	}

	return s
}

func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info().Msg("milestone scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.c.Stop()
	<-ctx.Done()
	s.log.Info().Msg("milestone scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.svc.Scan(ctx, nil); err != nil {
		s.log.Error().Err(err).Msg("scheduled milestone scan failed")
	}
}

func parseScanTime(value string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
