package telemetry

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize     = 1024                   // Ring buffer size
	MaxEventsPerSec     = 10000                  // Global rate limit
	MaxEventsPerActor   = 200                    // Per-actor rate limit per second
	BatchFlushSize      = 64                     // Events per batch write
	BatchFlushInterval  = 100 * time.Millisecond // How often to flush
	ActorLimiterCleanup = 5 * time.Minute        // Cleanup interval for actor limiters
	RecentEvents        = 256                    // Flushed events kept for the debug API
)

// EventLogConfig sizes an EventLog. Zero fields use the package defaults.
type EventLogConfig struct {
	BufferSize   int
	GlobalRate   int
	ActorRate    int
	RecentEvents int
	Logger       *log.Logger
}

// EventLog provides bounded, rate-limited event logging with backpressure.
// Emit never blocks the tick thread: when the buffer is full the oldest
// pending event is dropped.
type EventLog struct {
	mu     sync.Mutex
	buffer []Event
	head   uint64 // next sequence to write
	tail   uint64 // next sequence to flush

	recent     []Event
	recentNext int
	recentLen  int

	globalLimiter *rate.Limiter
	actorRate     int
	actorLimiters sync.Map // map[string]*actorLimiterEntry

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    io.Writer
	closer io.Closer
	outMu  sync.Mutex
	logger *log.Logger

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	writeErrors  uint64 // atomic
}

// actorLimiterEntry tracks per-actor rate limiting
type actorLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewEventLog creates a new bounded event log
func NewEventLog(cfg EventLogConfig) *EventLog {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = EventBufferSize
	}
	if cfg.GlobalRate <= 0 {
		cfg.GlobalRate = MaxEventsPerSec
	}
	if cfg.ActorRate <= 0 {
		cfg.ActorRate = MaxEventsPerActor
	}
	if cfg.RecentEvents <= 0 {
		cfg.RecentEvents = RecentEvents
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &EventLog{
		buffer:        make([]Event, cfg.BufferSize),
		recent:        make([]Event, cfg.RecentEvents),
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.GlobalRate), burst(cfg.GlobalRate)),
		actorRate:     cfg.ActorRate,
		subs:          make(map[int]func(Event)),
		stopChan:      make(chan struct{}),
		logger:        cfg.Logger,
	}
}

func burst(perSec int) int {
	if b := perSec / 10; b > 0 {
		return b
	}
	return 1
}

// Start opens filePath for append and begins the async writer. An empty
// path keeps events in memory only.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := el.StartWriter(file); err != nil {
		file.Close()
		return err
	}
	el.closer = file
	return nil
}

// StartWriter begins the async writer with out as the JSONL sink.
func (el *EventLog) StartWriter(out io.Writer) error {
	if el.running.Load() {
		return nil
	}
	el.out = out

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and shuts the writer down
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.outMu.Lock()
		if el.closer != nil {
			el.closer.Close()
		}
		el.outMu.Unlock()
	})
}

// Emit adds an event with rate limiting.
// Returns false if rate limited or the log is not running.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if event.ActorID != "" && !el.actorLimiter(event.ActorID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.mu.Lock()
	size := uint64(len(el.buffer))
	if el.head-el.tail >= size {
		// drop oldest pending
		el.tail++
		atomic.AddUint64(&el.droppedCount, 1)
	}
	el.head++
	event.Sequence = el.head
	el.buffer[(el.head-1)%size] = event
	el.mu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, actorID string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, actorID, payload))
}

// Subscribe registers fn to receive every flushed event on the writer
// goroutine. The returned func unsubscribes.
func (el *EventLog) Subscribe(fn func(Event)) func() {
	el.subMu.Lock()
	id := el.nextSub
	el.nextSub++
	el.subs[id] = fn
	el.subMu.Unlock()

	return func() {
		el.subMu.Lock()
		delete(el.subs, id)
		el.subMu.Unlock()
	}
}

// Flush writes everything pending now instead of waiting for the ticker.
func (el *EventLog) Flush() {
	batch := make([]Event, 0, BatchFlushSize)
	for {
		batch = el.collectBatch(batch[:0])
		if len(batch) == 0 {
			return
		}
		el.flushBatch(batch)
	}
}

// Recent returns up to n of the latest flushed events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	if n <= 0 || n > el.recentLen {
		n = el.recentLen
	}
	out := make([]Event, 0, n)
	size := len(el.recent)
	start := el.recentNext - n
	for i := 0; i < n; i++ {
		out = append(out, el.recent[((start+i)%size+size)%size])
	}
	return out
}

func (el *EventLog) actorLimiter(actorID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.actorLimiters.Load(actorID); ok {
		e := entry.(*actorLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &actorLimiterEntry{
		limiter: rate.NewLimiter(rate.Limit(el.actorRate), burst(el.actorRate)),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.actorLimiters.LoadOrStore(actorID, entry)
	return actual.(*actorLimiterEntry).limiter
}

// writerLoop batches and writes events asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			el.Flush()
			return
		case <-ticker.C:
			el.Flush()
		}
	}
}

// cleanupLoop removes stale actor limiters
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(ActorLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupActorLimiters(time.Now().Add(-ActorLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupActorLimiters(cutoff time.Time) {
	el.actorLimiters.Range(func(key, value interface{}) bool {
		if value.(*actorLimiterEntry).lastUsed.Load() < cutoff.UnixNano() {
			el.actorLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch moves pending events out of the ring into batch
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	size := uint64(len(el.buffer))
	for el.tail < el.head && len(batch) < BatchFlushSize {
		ev := el.buffer[el.tail%size]
		batch = append(batch, ev)
		el.tail++

		el.recent[el.recentNext] = ev
		el.recentNext = (el.recentNext + 1) % len(el.recent)
		if el.recentLen < len(el.recent) {
			el.recentLen++
		}
	}
	return batch
}

// flushBatch writes events (append-only, newline-delimited JSON) and fans
// them out to subscribers
func (el *EventLog) flushBatch(batch []Event) {
	el.outMu.Lock()
	if el.out != nil {
		enc := json.NewEncoder(el.out)
		for _, event := range batch {
			if err := enc.Encode(event); err != nil {
				if atomic.AddUint64(&el.writeErrors, 1) == 1 {
					el.logger.Printf("⚠️ Event log write failed: %v", err)
				}
			}
		}
	}
	el.outMu.Unlock()

	el.subMu.RLock()
	defer el.subMu.RUnlock()
	for _, fn := range el.subs {
		for _, event := range batch {
			fn(event)
		}
	}
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.head - el.tail
	el.mu.Unlock()

	return map[string]interface{}{
		"total":       atomic.LoadUint64(&el.totalCount),
		"dropped":     atomic.LoadUint64(&el.droppedCount),
		"writeErrors": atomic.LoadUint64(&el.writeErrors),
		"pending":     pending,
		"running":     el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
