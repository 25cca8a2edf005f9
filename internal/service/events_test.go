package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSubmissionEventPublisherUsesRedisChannel(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "feedback:submissions")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewSubmissionEventPublisher(client, nil, "feedback", testLogger())
	score := 88
	publisher.PublishSubmission(ctx, newSubmissionEvent(SourceIntake, 7, 3, "COMPLETED", "trace-1", &score))

	select {
	case msg := <-sub.Channel():
		var event SubmissionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, EventSubmissionCompleted, event.Type)
		require.Equal(t, uint(7), event.SubmissionID)
		require.Equal(t, "trace-1", event.TraceID)
		require.NotEmpty(t, event.ID)
		require.NotNil(t, event.Score)
		require.Equal(t, 88, *event.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a submission event")
	}
}

func TestSubmissionEventPublisherToleratesMissingTransports(t *testing.T) {
	var nilPublisher *SubmissionEventPublisher
	require.NotPanics(t, func() {
		nilPublisher.PublishSubmission(context.Background(), SubmissionEvent{})
	})

	publisher := NewSubmissionEventPublisher(nil, nil, "", testLogger())
	require.NotPanics(t, func() {
		publisher.PublishSubmission(context.Background(), newSubmissionEvent(SourceRevision, 1, 1, "FAILED", "t", nil))
	})
}
