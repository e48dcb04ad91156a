package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmmarket/internal/events"
)

type fixedBacklog struct {
	n   int
	err error
}

func (f fixedBacklog) PendingBacklog(context.Context) (int, error) { return f.n, f.err }

type capture struct {
	events []events.Event
}

func (c *capture) Publish(_ context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

func TestCheckBacklog(t *testing.T) {
	t.Parallel()

	pub := &capture{}
	s := NewScheduler(fixedBacklog{n: 3}, pub, zerolog.Nop())

	n, err := s.CheckBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.ApprovalBacklog, pub.events[0].Type)
	assert.Equal(t, 3, pub.events[0].Data["pending"])
}

func TestCheckBacklog_EmptyQueuePublishesNothing(t *testing.T) {
	t.Parallel()

	pub := &capture{}
	s := NewScheduler(fixedBacklog{}, pub, zerolog.Nop())

	n, err := s.CheckBacklog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.events)

	_, err = NewScheduler(fixedBacklog{err: errors.New("db down")}, nil, zerolog.Nop()).CheckBacklog(context.Background())
	assert.Error(t, err)
}

func TestBacklogSpecParses(t *testing.T) {
	t.Parallel()

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(BacklogSpec)
	assert.NoError(t, err)
}
