package merge

// EventKind identifies what a merge event carries.
type EventKind int

const (
	// EventFileFound is emitted for every file accepted during discovery.
	EventFileFound EventKind = iota
	// EventProcessing is emitted right before a file is read.
	EventProcessing
	// EventProgress carries the global fraction of processed files.
	EventProgress
)

func (kind EventKind) String() string {
	switch kind {
	case EventFileFound:
		return "file_found"
	case EventProcessing:
		return "processing"
	case EventProgress:
		return "progress"
	default:
		return "unknown"
	}
}

// Event is one notification of a merge session. Index is 1-based in discovery order.
type Event struct {
	Kind      EventKind
	SessionID string
	Path      string
	Index     int
	Total     int
	Progress  int
}

// Handler consumes merge events in emission order. A returned error aborts the merge.
type Handler func(Event) error

// Result is the outcome of a merge. A cancelled merge carries the blocks assembled before
// cancellation was observed.
type Result struct {
	SessionID string
	Text      string
	Found     int
	Files     int
	Skipped   int
	Cancelled bool
}
