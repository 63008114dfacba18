// Package sim schedules per-map simulation ticks. The world-update layer it
// drives is not implemented yet, so the default updater is a no-op; the
// scheduler still counts ticks, expires idle simulations and notifies
// subscribers so clients can observe the clock.
package sim

import (
	"log"
	"sync"
	"time"
)

// Updater advances one map by one tick.
type Updater interface {
	Update(mapID uint64, tick int) error
}

// NoopUpdater counts ticks without touching the world.
type NoopUpdater struct{}

// Update always succeeds.
func (NoopUpdater) Update(uint64, int) error { return nil }

// Event is sent to subscribers after each completed tick.
type Event struct {
	MapID uint64 `json:"map_id"`
	Tick  int    `json:"tick"`
}

// Ticker runs the background tick loop over all active maps.
type Ticker struct {
	updater  Updater
	interval time.Duration
	timeout  time.Duration

	mu           sync.Mutex
	ticks        map[uint64]int
	lastActivity map[uint64]time.Time
	loopRunning  bool
	quit         chan struct{}

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New builds a Ticker. Non-positive interval or timeout fall back to 1s and
// 30s respectively.
func New(updater Updater, interval, timeout time.Duration) *Ticker {
	if updater == nil {
		updater = NoopUpdater{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ticker{
		updater:      updater,
		interval:     interval,
		timeout:      timeout,
		ticks:        make(map[uint64]int),
		lastActivity: make(map[uint64]time.Time),
		quit:         make(chan struct{}),
		subs:         make(map[chan Event]struct{}),
	}
}

// Start begins the simulation for a map. Starting an already-running map is a
// no-op and does not reset its tick counter.
func (t *Ticker) Start(mapID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ticks[mapID]; ok {
		return
	}
	t.ticks[mapID] = 0
	t.lastActivity[mapID] = time.Now()
	log.Printf("ticker: started simulation for map %d", mapID)
	t.ensureLoop()
}

// Stop ends the simulation for a map.
func (t *Ticker) Stop(mapID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(mapID)
}

func (t *Ticker) stopLocked(mapID uint64) {
	if _, ok := t.ticks[mapID]; !ok {
		return
	}
	delete(t.ticks, mapID)
	delete(t.lastActivity, mapID)
	log.Printf("ticker: stopped simulation for map %d", mapID)
}

// Running reports whether the map's simulation is active.
func (t *Ticker) Running(mapID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ticks[mapID]
	return ok
}

// Tick returns the current tick counter for a map, zero when not running.
func (t *Ticker) Tick(mapID uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks[mapID]
}

// Touch refreshes the map's activity clock. Reads of the map through the API
// call this so an actively-watched simulation never times out.
func (t *Ticker) Touch(mapID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ticks[mapID]; ok {
		t.lastActivity[mapID] = time.Now()
	}
}

// Subscribe registers a tick event channel. Slow subscribers miss events
// rather than stalling the loop.
func (t *Ticker) Subscribe() chan Event {
	ch := make(chan Event, 16)
	t.subMu.Lock()
	t.subs[ch] = struct{}{}
	t.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (t *Ticker) Unsubscribe(ch chan Event) {
	t.subMu.Lock()
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
	t.subMu.Unlock()
}

// Shutdown stops the background loop. Active map state is discarded.
func (t *Ticker) Shutdown() {
	t.mu.Lock()
	if t.loopRunning {
		t.loopRunning = false
		close(t.quit)
		t.quit = make(chan struct{})
	}
	t.mu.Unlock()
}

func (t *Ticker) ensureLoop() {
	if t.loopRunning {
		return
	}
	t.loopRunning = true
	go t.loop(t.quit)
}

func (t *Ticker) loop(quit chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			t.step()
		}
	}
}

// step expires idle maps, then advances every remaining active map one tick.
func (t *Ticker) step() {
	now := time.Now()

	t.mu.Lock()
	for mapID, last := range t.lastActivity {
		if now.Sub(last) > t.timeout {
			log.Printf("ticker: map %d timed out after inactivity", mapID)
			t.stopLocked(mapID)
		}
	}
	var events []Event
	for mapID, tick := range t.ticks {
		if err := t.updater.Update(mapID, tick); err != nil {
			log.Printf("[ERROR] ticker: update failed for map %d at tick %d: %v", mapID, tick, err)
			t.stopLocked(mapID)
			continue
		}
		t.ticks[mapID] = tick + 1
		events = append(events, Event{MapID: mapID, Tick: tick + 1})
	}
	t.mu.Unlock()

	for _, ev := range events {
		t.broadcast(ev)
	}
}

func (t *Ticker) broadcast(ev Event) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
