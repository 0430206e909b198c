// Package feed is the subscriber/producer client of the push hub. It
// implements engine.Source over a websocket connection and exposes the
// store's write operations.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"fleetwatch/internal/engine"
	"fleetwatch/internal/hub"
	"fleetwatch/internal/model"
)

// Client is a live connection to the hub. The zero value is not usable;
// obtain one with Dial.
type Client struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	nextID        int
	readingSubs   map[int]func(map[string]model.Reading)
	thresholdSubs map[int]func(model.ThresholdsPatch)
	alertSubs     map[int]func([]model.AlertRecord)

	haveReadings   bool
	lastReadings   map[string]model.Reading
	haveThresholds bool
	lastThresholds model.ThresholdsPatch
	haveAlerts     bool
	lastAlerts     []model.AlertRecord
}

var _ engine.Source = (*Client)(nil)

// Dial connects to a hub push endpoint (ws://host:port/ws) and starts the
// read loop. The hub delivers the current value of every topic on attach,
// so subscriptions fire at least once shortly after dialing.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", url, err)
	}
	c := &Client{
		conn:          conn,
		connected:     true,
		readingSubs:   map[int]func(map[string]model.Reading){},
		thresholdSubs: map[int]func(model.ThresholdsPatch){},
		alertSubs:     map[int]func([]model.AlertRecord){},
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				// The core does not retry; it keeps operating on
				// last-known values and marks connectivity lost.
				log.Printf("feed: connection lost: %v", err)
			}
			return
		}
		var env hub.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			log.Printf("feed: bad envelope: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env hub.Envelope) {
	switch env.Topic {
	case hub.TopicReadings:
		var readings map[string]model.Reading
		if err := json.Unmarshal(env.Payload, &readings); err != nil {
			log.Printf("feed: readings payload: %v", err)
			return
		}
		c.mu.Lock()
		c.lastReadings = readings
		c.haveReadings = true
		handlers := make([]func(map[string]model.Reading), 0, len(c.readingSubs))
		for _, h := range c.readingSubs {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(readings)
		}

	case hub.TopicThresholds:
		var patch model.ThresholdsPatch
		if err := json.Unmarshal(env.Payload, &patch); err != nil {
			log.Printf("feed: thresholds payload: %v", err)
			return
		}
		c.mu.Lock()
		c.lastThresholds = patch
		c.haveThresholds = true
		handlers := make([]func(model.ThresholdsPatch), 0, len(c.thresholdSubs))
		for _, h := range c.thresholdSubs {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(patch)
		}

	case hub.TopicAlerts:
		var alerts []model.AlertRecord
		if err := json.Unmarshal(env.Payload, &alerts); err != nil {
			log.Printf("feed: alerts payload: %v", err)
			return
		}
		c.mu.Lock()
		c.lastAlerts = alerts
		c.haveAlerts = true
		handlers := make([]func([]model.AlertRecord), 0, len(c.alertSubs))
		for _, h := range c.alertSubs {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(alerts)
		}

	default:
		log.Printf("feed: unknown topic %q", env.Topic)
	}
}

// SubscribeReadings registers a handler for the readings stream. The
// last-known value, if any, is delivered immediately.
func (c *Client) SubscribeReadings(h func(map[string]model.Reading)) engine.CancelFunc {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.readingSubs[id] = h
	deliver := c.haveReadings
	last := c.lastReadings
	c.mu.Unlock()
	if deliver {
		h(last)
	}
	return sync.OnceFunc(func() {
		c.mu.Lock()
		delete(c.readingSubs, id)
		c.mu.Unlock()
	})
}

// SubscribeThresholds registers a handler for the thresholds stream.
func (c *Client) SubscribeThresholds(h func(model.ThresholdsPatch)) engine.CancelFunc {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.thresholdSubs[id] = h
	deliver := c.haveThresholds
	last := c.lastThresholds
	c.mu.Unlock()
	if deliver {
		h(last)
	}
	return sync.OnceFunc(func() {
		c.mu.Lock()
		delete(c.thresholdSubs, id)
		c.mu.Unlock()
	})
}

// SubscribeAlerts registers a handler for the alert log stream.
func (c *Client) SubscribeAlerts(h func([]model.AlertRecord)) engine.CancelFunc {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.alertSubs[id] = h
	deliver := c.haveAlerts
	last := c.lastAlerts
	c.mu.Unlock()
	if deliver {
		h(last)
	}
	return sync.OnceFunc(func() {
		c.mu.Lock()
		delete(c.alertSubs, id)
		c.mu.Unlock()
	})
}

func (c *Client) writeOp(op hub.Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.connected {
		return fmt.Errorf("write %s: not connected", op.Op)
	}
	if err := c.conn.WriteJSON(op); err != nil {
		return fmt.Errorf("write %s: %w", op.Op, err)
	}
	return nil
}

// PutReading publishes one unit's latest telemetry, last-write-wins.
func (c *Client) PutReading(unitID string, r model.Reading) error {
	return c.writeOp(hub.Op{Op: hub.OpPutReading, UnitID: unitID, Reading: &r})
}

// SaveThresholds replaces the fleet-wide configuration. A failure is
// recoverable: the caller keeps its draft and may retry.
func (c *Client) SaveThresholds(th model.Thresholds) error {
	return c.writeOp(hub.Op{Op: hub.OpPutThresholds, Thresholds: &th})
}

// AppendAlert appends one entry to the alert log.
func (c *Client) AppendAlert(ev model.AlertEvent) error {
	return c.writeOp(hub.Op{Op: hub.OpAppendAlert, Alert: &ev})
}

// Connected reports whether the push connection is still live. Lost
// connectivity is a display concern only; last-known values stay valid.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.closed
}

// Close tears the connection down. Idempotent and safe to call after the
// connection is already gone; no handler fires afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.readingSubs = map[int]func(map[string]model.Reading){}
	c.thresholdSubs = map[int]func(model.ThresholdsPatch){}
	c.alertSubs = map[int]func([]model.AlertRecord){}
	conn := c.conn
	c.mu.Unlock()
	return conn.Close()
}
