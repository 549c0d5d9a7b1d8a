package pipeline

// EventType classifies pipeline progress notifications.
type EventType int

const (
	// EventProcessing is emitted after each item, embedded or skipped.
	EventProcessing EventType = iota

	// EventCompleted is emitted once, after the final checkpoint and
	// manifest are persisted.
	EventCompleted

	// EventError is emitted when one item fails without aborting the run.
	EventError

	// EventEmpty is emitted when the source enumerates zero documents.
	EventEmpty
)

// String returns the event type name for logs.
func (t EventType) String() string {
	switch t {
	case EventProcessing:
		return "processing"
	case EventCompleted:
		return "completed"
	case EventError:
		return "error"
	case EventEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Event is one progress notification from a pipeline run.
type Event struct {
	Type      EventType
	Processed int    // items handled so far, including skips
	Total     int    // size of the enumerated source set
	Document  string // stable name of the item this event concerns
	Err       error  // set for EventError
}

// ProgressSink receives pipeline events. Publish is called synchronously
// from the run loop, so implementations must not block.
type ProgressSink interface {
	Publish(Event)
}

// ChannelSink adapts a channel into a ProgressSink. Events are dropped when
// the channel is full so a slow consumer never stalls the run.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink buffering up to size events.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, size)}
}

// Publish sends the event if the channel has room.
func (s *ChannelSink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Close closes the channel. Call only after the run has returned; Publish
// on a closed sink panics.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// nopSink discards all events.
type nopSink struct{}

func (nopSink) Publish(Event) {}
