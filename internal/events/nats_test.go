package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type publisherStub struct {
	messages []publishedMessage
	err      error
}

func (p *publisherStub) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func TestNATSPublisher_PublishesDiff(t *testing.T) {
	t.Parallel()

	stub := &publisherStub{}
	sentAt := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	publisher := NewNATSPublisher(stub, "gym.schedule", nil, func() time.Time { return sentAt })

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	update := Update{
		Kind:    KindCreated,
		Changed: []scheduler.Event{{ID: "evt-1", Title: "Session", Type: scheduler.EventTypeTraining, Status: scheduler.StatusScheduled, TrainerID: "T1", Start: start, End: start.Add(time.Hour)}},
		Events:  []scheduler.Event{{ID: "evt-0"}, {ID: "evt-1"}},
	}
	require.NoError(t, publisher.Publish(update))

	require.Len(t, stub.messages, 1)
	assert.Equal(t, "gym.schedule.created", stub.messages[0].subject)

	var msg ChangeMessage
	require.NoError(t, json.Unmarshal(stub.messages[0].data, &msg))
	assert.Equal(t, "created", msg.EventType)
	assert.Equal(t, 2, msg.Total)
	require.Len(t, msg.Changed, 1)
	assert.Equal(t, "evt-1", msg.Changed[0].ID)
	assert.Equal(t, "T1", msg.Changed[0].TrainerID)
	assert.True(t, msg.SentAt.Equal(sentAt))
}

func TestNATSPublisher_ListenerSwallowsErrors(t *testing.T) {
	t.Parallel()

	stub := &publisherStub{err: errors.New("connection closed")}
	publisher := NewNATSPublisher(stub, "", nil, nil)

	assert.Error(t, publisher.Publish(Update{Kind: KindDeleted, RemovedIDs: []string{"evt-1"}}))
	assert.NotPanics(t, func() {
		publisher.Listener()(context.Background(), Update{Kind: KindDeleted})
	})
}
