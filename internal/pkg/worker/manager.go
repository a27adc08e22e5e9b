package worker

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/internal/pkg/metrics/counter"
)

// Manager runs the portal's background tasks: periodic counter flushes from
// Redis into daily_payment_stats.
type Manager struct {
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	managerInstance *Manager
	managerOnce     sync.Once
)

// GetManager returns the singleton background manager
func GetManager() *Manager {
	managerOnce.Do(func() {
		managerInstance = &Manager{}
	})
	return managerInstance
}

// Start launches the background workers. Safe to call more than once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})

	// Flush payment counters (Redis -> DB) every 30 seconds
	m.counterFlushTicker = time.NewTicker(30 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker(m.stopCh)

	log.Info("[Worker Manager] Background workers started")
}

// Stop shuts the workers down and waits for them to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	close(m.stopCh)
	m.stopCh = nil
	m.mu.Unlock()

	m.wg.Wait()

	// Final flush so a clean shutdown loses no counts
	if err := counter.FlushAll(); err != nil {
		log.Errorf("[Worker Manager] Final counter flush error: %v", err)
	}

	log.Info("[Worker Manager] Background workers stopped")
}

// counterFlushWorker periodically flushes pending counters from Redis to DB
func (m *Manager) counterFlushWorker(stop <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			log.Info("[Worker Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Errorf("[Worker Manager] Counter flush error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
