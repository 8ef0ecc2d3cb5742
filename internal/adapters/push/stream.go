package push

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/okian/crease/internal/domain/model"
)

const defaultStreamMaxLen = 10_000

// Stream appends each payload to a Redis stream for downstream consumers.
type Stream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStream creates a Redis stream pusher.
func NewStream(client *redis.Client, stream string) *Stream {
	return &Stream{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

func (s *Stream) Deliver(ctx context.Context, userID string, payload model.PushPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return wrap("stream", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"user_id": userID,
			"tag":     payload.Tag,
			"payload": string(data),
		},
	}).Err()
	if err != nil {
		return wrap("stream", err)
	}
	return nil
}
