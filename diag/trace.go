// Package diag provides the peripheral diagnostic/visualization hooks
// derived from the algebra and the compiler pipeline (SPEC_FULL.md §2,
// item 8): timeline/lane views over a program.Morphism, and a best-effort
// trace bus fed by the compiler's passes. Nothing here affects compiler
// output; a subscriber that falls behind simply loses the oldest pending
// trace message, matching the teacher bus's retained/best-effort delivery
// semantics.
package diag

import "timingc/bus"

// TraceEvent is a snapshot of one compiler-internal LogicalEvent at the
// point a pass finished touching it. It intentionally mirrors only the
// fields external tooling needs (channel/kind/timing/cost/epoch/opcodes)
// rather than exposing the compiler's internal event type.
type TraceEvent struct {
	Channel   string
	Kind      string
	Timestamp int64
	Cost      int64
	Epoch     int
	Opcodes   []string
}

// TracePass is the payload published for one board after one pass.
type TracePass struct {
	Board  string
	Pass   string
	Events []TraceEvent
}

// Tracer publishes per-pass, per-board event snapshots onto a bus
// connection under topic ["compiler", board, pass]. It is safe for
// concurrent use by a single compiler.Compile call; the bus itself handles
// concurrent publish/subscribe.
type Tracer struct {
	conn *bus.Connection
}

// NewTracer wraps a bus connection obtained from a *bus.Bus (typically via
// NewTraceBus below).
func NewTracer(conn *bus.Connection) *Tracer {
	return &Tracer{conn: conn}
}

// NewTraceBus creates a fresh bus sized for trace delivery and returns a
// Tracer already connected to it, plus the underlying bus so callers can
// open additional subscriber connections.
func NewTraceBus(queueLen int) (*bus.Bus, *Tracer) {
	b := bus.NewBus(queueLen)
	conn := b.NewConnection("compiler-trace")
	return b, NewTracer(conn)
}

// Topic builds the topic ["compiler", board, pass] used to publish and to
// observe one board's trace messages. pass is used verbatim: an empty pass
// is a literal empty token, not a wildcard; to observe every pass for a
// board, pass the bus's single-level wildcard token ("+" on a bus from
// NewTraceBus).
func Topic(board, pass string) bus.Topic {
	return bus.T("compiler", board, pass)
}

// Publish sends a best-effort, non-retained trace message. A nil Tracer
// receiver is a safe no-op so compiler.Options.Trace can be left zero.
func (tr *Tracer) Publish(board, pass string, events []TraceEvent) {
	if tr == nil || tr.conn == nil {
		return
	}
	msg := tr.conn.NewMessage(Topic(board, pass), TracePass{Board: board, Pass: pass, Events: events}, false)
	tr.conn.Publish(msg)
}

// Subscribe subscribes tr's own bus connection to the given topic pattern
// (e.g. Topic(board, "pass5_emit"), or a pattern using the bus package's
// own wildcard tokens). name is not used.
func (tr *Tracer) Subscribe(name string, topic bus.Topic) *bus.Subscription {
	return tr.conn.Subscribe(topic)
}
