package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"fleetwatch/internal/config"
	"fleetwatch/internal/model"
	"fleetwatch/internal/utils"
)

// ReadingSink receives polled readings, one per unit per poll.
type ReadingSink interface {
	PutReading(unitID string, r model.Reading) error
}

// Manager coordinates running one collector per enabled unit concurrently.
// Consecutive unchanged readings are dropped through a TTL cache so a
// quiet fleet does not flood the sink.
type Manager struct {
	Cfg  config.RootConfig
	Sink ReadingSink
}

func (m *Manager) Run(ctx context.Context) error {
	cache := utils.NewReadingCache(m.Cfg.System.CacheTTL)
	handler := func(unitID string, r model.Reading) error {
		if old, ok := cache.Get(unitID); ok && utils.ReadingsEqual(old, r) {
			return nil
		}
		if m.Sink != nil {
			if err := m.Sink.PutReading(unitID, r); err != nil {
				return err
			}
		} else {
			log.Printf("%s hum=%.1f temp=%.1f battery=%d", unitID, r.Hum, r.Temp, r.Battery)
		}
		cache.Set(unitID, r)
		return nil
	}

	// worker limit
	maxW := m.Cfg.System.Processing.MaxWorkers
	if maxW <= 0 {
		maxW = 10
	}
	sem := make(chan struct{}, maxW)

	var wg sync.WaitGroup
	for _, unit := range m.Cfg.Units {
		if !unit.Enabled {
			continue
		}
		collector := &Collector{Unit: unit, Handler: handler}

		wg.Add(1)
		go func(c *Collector) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			if err := c.Run(ctx); err != nil {
				log.Printf("collector stopped (%s): %v", c.Unit.UnitID, err)
			}
		}(collector)
	}

	// wait until context done, then wait goroutines finish
	<-ctx.Done()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Printf("timeout waiting for collectors to stop")
	}
	return nil
}
