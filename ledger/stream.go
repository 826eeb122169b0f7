package ledger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
)

const subscriberBuffer = 64

// stream fans committed events out to channel subscribers. Delivery is
// best-effort: a subscriber that stops draining has events dropped rather
// than stalling the ledger, and can recover missed history through the
// event log's sequence cursor.
type stream struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	logger *zap.Logger
}

type subscriber struct {
	campaignID uint64 // 0 means all campaigns
	ch         chan domain.Event
}

func newStream(logger *zap.Logger) *stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stream{
		subs:   make(map[int]*subscriber),
		logger: logger,
	}
}

func (s *stream) subscribe(campaignID uint64) (<-chan domain.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscriber{
		campaignID: campaignID,
		ch:         make(chan domain.Event, subscriberBuffer),
	}
	s.subs[id] = sub

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(cur.ch)
		}
	}
	return sub.ch, cancel
}

func (s *stream) publish(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.campaignID != 0 && sub.campaignID != ev.CampaignID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			s.logger.Warn("dropping event for slow subscriber",
				zap.Uint64("campaign_id", ev.CampaignID),
				zap.Uint64("sequence", ev.Sequence))
		}
	}
}
