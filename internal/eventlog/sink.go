package eventlog

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"
)

// LogEntry is one JSON-serialized line appended to the event-log sink
// (spec §4.5 step 6): `{ name, notes?, event: <platform-event-serialization> }`.
type LogEntry struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
	Event any    `json:"event"`
}

// Sink accepts log entries for a guild. Implementations must be safe for
// concurrent use from multiple event handlers.
type Sink interface {
	Write(guildID string, entry LogEntry)
	Close()
}

// JSONSink appends LogEntry records to a single append-only file through
// one serializing writer goroutine, matching spec §5's "event-log writes
// for a given guild are serialized by the sink" — serializing globally is a
// stricter (still-correct) version of per-guild serialization.
type JSONSink struct {
	entries chan sinkWrite
	done    chan struct{}
	log     *zap.Logger
}

type sinkWrite struct {
	guildID string
	entry   LogEntry
}

// NewJSONSink opens path for appending and starts the writer goroutine.
func NewJSONSink(path string, log *zap.Logger) (*JSONSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s := &JSONSink{
		entries: make(chan sinkWrite, 256),
		done:    make(chan struct{}),
		log:     log,
	}
	go s.run(f)
	return s, nil
}

func (s *JSONSink) run(f *os.File) {
	defer close(s.done)
	defer f.Close()
	enc := json.NewEncoder(f)
	for w := range s.entries {
		if err := enc.Encode(struct {
			GuildID string `json:"guild_id"`
			LogEntry
		}{GuildID: w.guildID, LogEntry: w.entry}); err != nil && s.log != nil {
			s.log.Warn("eventlog: write failed", zap.String("guild_id", w.guildID), zap.Error(err))
		}
	}
}

// Write enqueues entry for the writer goroutine. Non-blocking best-effort:
// a full buffer drops the entry rather than stalling the caller's gateway
// handler goroutine, logging the drop.
func (s *JSONSink) Write(guildID string, entry LogEntry) {
	select {
	case s.entries <- sinkWrite{guildID: guildID, entry: entry}:
	default:
		if s.log != nil {
			s.log.Warn("eventlog: sink buffer full, dropping entry", zap.String("guild_id", guildID), zap.String("name", entry.Name))
		}
	}
}

// Close stops accepting writes and waits for the writer goroutine to drain.
func (s *JSONSink) Close() {
	close(s.entries)
	<-s.done
}

// memorySink is a test double recording writes in order without touching
// the filesystem.
type memorySink struct {
	mu      sync.Mutex
	entries []sinkWrite
}

func (m *memorySink) Write(guildID string, entry LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, sinkWrite{guildID: guildID, entry: entry})
}

func (m *memorySink) Close() {}

func (m *memorySink) snapshot() []sinkWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sinkWrite, len(m.entries))
	copy(out, m.entries)
	return out
}
