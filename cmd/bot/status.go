package main

import (
	"sync"
	"time"

	"github.com/pgannon/spreadbot/internal/dashboard"
)

// statusBoard is the bot's shared runtime snapshot, read by the dashboard
// and written by the trading task.
type statusBoard struct {
	mu     sync.RWMutex
	status dashboard.Status
}

func newStatusBoard() *statusBoard {
	return &statusBoard{}
}

// Snapshot implements dashboard.Source.
func (b *statusBoard) Snapshot() dashboard.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *statusBoard) update(fn func(*dashboard.Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.status)
	b.status.UpdatedAt = time.Now()
}
