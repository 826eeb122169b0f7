package redis

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/clearfund/backend/domain"
)

// Publisher pushes committed ledger events onto redis pub/sub so presentation
// layers can render live updates. Each event goes to a firehose channel and a
// per-campaign channel.
type Publisher struct {
	client *redislib.Client
	prefix string
}

// NewPublisher creates a redis-backed event publisher.
func NewPublisher(client *redislib.Client) *Publisher {
	return &Publisher{
		client: client,
		prefix: "ledger:events",
	}
}

// Publish broadcasts one event. Subscribers that miss messages recover via
// the event log's sequence cursor; pub/sub carries no durability guarantee.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.prefix, payload).Err(); err != nil {
		return err
	}
	channel := fmt.Sprintf("%s:%d", p.prefix, ev.CampaignID)
	return p.client.Publish(ctx, channel, payload).Err()
}
