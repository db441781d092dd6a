// Package testutils holds helpers shared by package tests.
package testutils

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// InstantClock is a mock clock whose waits return immediately. Every wait is
// recorded and advances the mock time by the waited duration.
type InstantClock struct {
	*clock.Mock

	mu    sync.Mutex
	waits []time.Duration
}

func NewInstantClock() *InstantClock {
	return &InstantClock{Mock: clock.NewMock()}
}

func (c *InstantClock) After(d time.Duration) <-chan time.Time {
	c.record(d)
	ch := make(chan time.Time, 1)
	ch <- c.Mock.Now()
	return ch
}

func (c *InstantClock) Sleep(d time.Duration) {
	c.record(d)
}

func (c *InstantClock) record(d time.Duration) {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	c.Mock.Add(d)
}

// Waits returns every duration waited for so far, in order.
func (c *InstantClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}
