package trace

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
)

// Tag identifies the kind of record in a trace line, per §6.
type Tag string

const (
	CreateLog   Tag = "CreateLog"
	StateLog    Tag = "StateLog"
	ActionLog   Tag = "ActionLog"
	SendLog     Tag = "SendLog"
	EnqueueLog  Tag = "EnqueueLog"
	DequeueLog  Tag = "DequeueLog"
	GotoLog     Tag = "GotoLog"
	MonitorLog  Tag = "MonitorLog"
	ErrorLog    Tag = "ErrorLog"
	StrategyLog Tag = "StrategyLog"
)

// Record is one line of the trace: a tag and its free-form payload.
type Record struct {
	Tag     Tag
	Payload string
}

// String renders a record as "<Tag> payload".
func (r Record) String() string {
	return fmt.Sprintf("<%s> %s", r.Tag, r.Payload)
}

// Recorder accumulates trace records in memory and optionally mirrors
// each one onto an io.Writer as it is emitted. The testing engine
// creates its recorders with a nil writer, so they record in memory only.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	out     io.Writer
}

// NewRecorder creates a Recorder. out may be nil to record in memory only.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

// Emit appends a record and mirrors it to the configured writer, if any.
func (r *Recorder) Emit(tag Tag, format string, args ...any) {
	rec := Record{Tag: tag, Payload: fmt.Sprintf(format, args...)}
	r.mu.Lock()
	r.records = append(r.records, rec)
	out := r.out
	r.mu.Unlock()

	if out != nil {
		fmt.Fprintln(out, rec.String())
	}
}

// Records returns a snapshot copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Reset clears all recorded records so one Recorder can be reused. The
// testing engine does not call it; it creates a fresh Recorder for each
// iteration.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// Convenience emitters, one per tag, matching the payload shapes the
// scenarios in §8 assert against (e.g. "SendLog ... 'Pong' to Client").

func (r *Recorder) Create(id coreid.ActorId) {
	r.Emit(CreateLog, "%s was created", id)
}

func (r *Recorder) State(id coreid.ActorId, state string) {
	r.Emit(StateLog, "%s enters state '%s'", id, state)
}

func (r *Recorder) Action(id coreid.ActorId, state, action string) {
	r.Emit(ActionLog, "%s executes action '%s' in state '%s'", id, action, state)
}

func (r *Recorder) Send(eventType event.Type, from, to coreid.ActorId) {
	r.Emit(SendLog, "%s sent event '%s' to %s", from, eventType, to)
}

func (r *Recorder) Enqueue(id coreid.ActorId, eventType event.Type) {
	r.Emit(EnqueueLog, "%s enqueued event '%s'", id, eventType)
}

func (r *Recorder) Dequeue(id coreid.ActorId, eventType event.Type, outcome string) {
	r.Emit(DequeueLog, "%s dequeued event '%s' (%s)", id, eventType, outcome)
}

func (r *Recorder) Goto(id coreid.ActorId, from, to string) {
	r.Emit(GotoLog, "%s transitions from '%s' to '%s'", id, from, to)
}

func (r *Recorder) Monitor(name string, eventType event.Type) {
	r.Emit(MonitorLog, "monitor '%s' observed event '%s'", name, eventType)
}

func (r *Recorder) Error(format string, args ...any) {
	r.Emit(ErrorLog, format, args...)
}

func (r *Recorder) Strategy(format string, args ...any) {
	r.Emit(StrategyLog, format, args...)
}

// Parse reads a sequence of "<Tag> payload" lines, as produced by
// Record.String, and returns the parsed records. Lines that don't match
// the "<Tag> " prefix shape are rejected, since the format is a
// contract.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: scan failed: %w", err)
	}
	return records, nil
}

func parseLine(line string) (Record, error) {
	if !strings.HasPrefix(line, "<") {
		return Record{}, fmt.Errorf("trace: malformed line %q: missing tag", line)
	}
	end := strings.Index(line, ">")
	if end < 0 {
		return Record{}, fmt.Errorf("trace: malformed line %q: unterminated tag", line)
	}
	tag := Tag(line[1:end])
	payload := strings.TrimPrefix(line[end+1:], " ")
	return Record{Tag: tag, Payload: payload}, nil
}
