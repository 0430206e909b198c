package hub

import (
	"context"
	"log"
	"sync"

	"fleetwatch/internal/store"
)

// Hub maintains the set of attached subscribers and pushes the current
// value of each topic to all of them on every write. Writes hit the store
// first, then the breach rule, then the broadcast.
type Hub struct {
	store *store.Store
	rule  *store.BreachRule

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	mu         sync.RWMutex
}

func New(s *store.Store) *Hub {
	return &Hub{
		store:      s,
		rule:       store.NewBreachRule(s),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run owns the client set until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Printf("hub: subscriber attached (%s)", c.conn.RemoteAddr())
			h.sendInitial(ctx, c)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("hub: subscriber detached (%s)", c.conn.RemoteAddr())
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow or gone; drop it.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// sendInitial delivers the current value of all three topics to a newly
// attached subscriber. Each subscription fires at least once initially.
func (h *Hub) sendInitial(ctx context.Context, c *client) {
	for _, topic := range []string{TopicReadings, TopicThresholds, TopicAlerts} {
		msg, err := h.topicMessage(ctx, topic)
		if err != nil {
			log.Printf("hub: initial %s: %v", topic, err)
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

// topicMessage builds the push message carrying the topic's current value.
func (h *Hub) topicMessage(ctx context.Context, topic string) ([]byte, error) {
	switch topic {
	case TopicReadings:
		readings, err := h.store.LatestReadings(ctx)
		if err != nil {
			return nil, err
		}
		return marshalEnvelope(TopicReadings, readings)
	case TopicThresholds:
		th, err := h.store.Thresholds(ctx)
		if err != nil {
			return nil, err
		}
		return marshalEnvelope(TopicThresholds, th)
	default:
		alerts, err := h.store.ListAlerts(ctx)
		if err != nil {
			return nil, err
		}
		return marshalEnvelope(TopicAlerts, alerts)
	}
}

func (h *Hub) publishTopic(ctx context.Context, topic string) {
	msg, err := h.topicMessage(ctx, topic)
	if err != nil {
		log.Printf("hub: publish %s: %v", topic, err)
		return
	}
	h.broadcast <- msg
}

// handleOp applies one producer write and pushes the affected topics.
func (h *Hub) handleOp(ctx context.Context, op Op) {
	switch op.Op {
	case OpPutReading:
		if op.UnitID == "" || op.Reading == nil {
			log.Printf("hub: put_reading missing unit_id or reading")
			return
		}
		if err := h.store.PutReading(ctx, op.UnitID, *op.Reading); err != nil {
			log.Printf("hub: put_reading %s: %v", op.UnitID, err)
			return
		}
		h.publishTopic(ctx, TopicReadings)
		written, err := h.rule.Evaluate(ctx, op.UnitID, *op.Reading)
		if err != nil {
			log.Printf("hub: breach rule %s: %v", op.UnitID, err)
		}
		if len(written) > 0 {
			h.publishTopic(ctx, TopicAlerts)
		}

	case OpPutThresholds:
		if op.Thresholds == nil {
			log.Printf("hub: put_thresholds missing thresholds")
			return
		}
		if err := h.store.SaveThresholds(ctx, *op.Thresholds); err != nil {
			log.Printf("hub: put_thresholds: %v", err)
			return
		}
		h.publishTopic(ctx, TopicThresholds)

	case OpAppendAlert:
		if op.Alert == nil {
			log.Printf("hub: append_alert missing alert")
			return
		}
		if _, err := h.store.AppendAlert(ctx, *op.Alert); err != nil {
			log.Printf("hub: append_alert: %v", err)
			return
		}
		h.publishTopic(ctx, TopicAlerts)

	default:
		log.Printf("hub: unknown op %q", op.Op)
	}
}
