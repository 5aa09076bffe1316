/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"sync"
	"time"
)

// healthMonitor periodically checks a manager and reconnects it, up to
// MaxReconnectTries consecutive times, when a check fails.
type healthMonitor struct {
	dm *defaultDatabaseManager

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	mu    sync.Mutex
	tries int
}

func newHealthMonitor(dm *defaultDatabaseManager) *healthMonitor {
	return &healthMonitor{dm: dm, done: make(chan struct{})}
}

func (m *healthMonitor) start(interval time.Duration) {
	m.startOnce.Do(func() { go m.run(interval) })
}

// stop ends the monitor for good; it is never restarted.
func (m *healthMonitor) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *healthMonitor) stopped() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func (m *healthMonitor) reset() {
	m.mu.Lock()
	m.tries = 0
	m.mu.Unlock()
}

func (m *healthMonitor) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if m.stopped() {
				return
			}
			m.check()
		}
	}
}

func (m *healthMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	status := m.dm.HealthCheck(ctx)
	cancel()
	if status.Healthy || !m.dm.config.EnableReconnect {
		return
	}

	m.mu.Lock()
	if m.tries >= m.dm.config.MaxReconnectTries {
		m.mu.Unlock()
		m.dm.logger.Error("Max reconnect attempts reached, stopping", "tries", m.tries)
		return
	}
	m.tries++
	try := m.tries
	m.mu.Unlock()

	select {
	case <-m.done:
		return
	case <-time.After(m.dm.config.ReconnectInterval):
	}

	timeout := m.dm.config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel = context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := m.dm.Reconnect(ctx); err != nil {
		m.dm.logger.Error("Reconnect failed", "error", err, "try", try)
		return
	}
	if m.stopped() {
		// Disconnect raced with the reconnect.
		_ = m.dm.close()
		return
	}
	m.dm.logger.Info("Reconnect succeeded")
}
