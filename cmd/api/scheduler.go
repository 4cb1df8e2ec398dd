package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/ledger"
)

// recalcScheduler refreshes the accrued amount of every open loan on a fixed
// interval. A run is never interrupted; Stop waits for it to finish.
type recalcScheduler struct {
	ledger   *ledger.Ledger
	interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func newRecalcScheduler(l *ledger.Ledger, interval time.Duration) *recalcScheduler {
	return &recalcScheduler{
		ledger:   l,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (rs *recalcScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.ticker = time.NewTicker(rs.interval)
	rs.wg.Add(1)
	go rs.run()

	log.Printf("[Recalc] Started with interval: %v", rs.interval)
}

func (rs *recalcScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Recalc] Stopped")
	}
}

func (rs *recalcScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.recalculate()

	for {
		select {
		case <-rs.ticker.C:
			rs.recalculate()
		case <-rs.stop:
			return
		}
	}
}

func (rs *recalcScheduler) recalculate() {
	if _, err := rs.ledger.RecalculateLoans(context.Background(), rs.ledger.Now()); err != nil {
		log.Printf("[Recalc] Error recalculating loans: %v", err)
	}
}
