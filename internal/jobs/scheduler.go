package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"farmmarket/internal/events"
)

// BacklogSpec fires at the top of every hour.
const BacklogSpec = "0 0 * * * *"

type BacklogCounter interface {
	PendingBacklog(ctx context.Context) (int, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Scheduler struct {
	cron      *cron.Cron
	approvals BacklogCounter
	events    Publisher
	log       zerolog.Logger
	timeout   time.Duration
}

func NewScheduler(approvals BacklogCounter, events Publisher, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:      c,
		approvals: approvals,
		events:    events,
		log:       log,
		timeout:   30 * time.Second,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(BacklogSpec, s.checkBacklog); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("spec", BacklogSpec).Msg("approval backlog job scheduled")
	return nil
}

// Stop waits for a running job to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) checkBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.CheckBacklog(ctx); err != nil {
		s.log.Error().Err(err).Msg("approval backlog check failed")
	}
}

// CheckBacklog counts farmers waiting for approval and reports a non-empty
// queue as a warning and an approval.backlog event.
func (s *Scheduler) CheckBacklog(ctx context.Context) (int, error) {
	pending, err := s.approvals.PendingBacklog(ctx)
	if err != nil {
		return 0, err
	}
	if pending == 0 {
		s.log.Debug().Msg("approval queue empty")
		return 0, nil
	}

	s.log.Warn().Int("pending", pending).Msg("farmers waiting for approval")

	if s.events != nil {
		err := s.events.Publish(ctx, events.Event{
			Type:       events.ApprovalBacklog,
			SubjectID:  "farmers",
			Data:       map[string]any{"pending": pending},
			OccurredAt: time.Now(),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("publish backlog event failed")
		}
	}
	return pending, nil
}
