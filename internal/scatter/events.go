package scatter

// EventSink receives chunk lifecycle notifications. All methods are
// called synchronously from Update on the engine's thread; slow handlers
// stall the frame.
type EventSink interface {
	ChunkActivated(coord ChunkCoord, instanceCount int)
	ChunkDeactivated(coord ChunkCoord)
	StatsChanged(stats Stats)
}

// Stats is the engine's introspection snapshot.
type Stats struct {
	InstancesActive int
	InstancesTotal  int // distinct handles ever minted, bounded by max
	InstancesMax    int

	ChunksTotal  int
	ChunksActive int

	MeshCount int

	// Shortfall counts placements abandoned because the pool ran dry or
	// retries were exhausted. Under-filled chunks are expected under
	// pressure, not an error, but the gap is observable here.
	Shortfall int
}

// nopEvents is used when the caller installs no sink.
type nopEvents struct{}

func (nopEvents) ChunkActivated(ChunkCoord, int) {}
func (nopEvents) ChunkDeactivated(ChunkCoord)    {}
func (nopEvents) StatsChanged(Stats)             {}

// EventRecorder is an EventSink that appends every event to a slice, in
// order. Useful for tests and for callers that want to drain events
// after each Update instead of handling callbacks.
type EventRecorder struct {
	Events []Event
}

// EventKind discriminates recorded events.
type EventKind int

const (
	EventActivated EventKind = iota
	EventDeactivated
	EventStats
)

// Event is one recorded engine notification.
type Event struct {
	Kind          EventKind
	Coord         ChunkCoord
	InstanceCount int
	Stats         Stats
}

func (r *EventRecorder) ChunkActivated(coord ChunkCoord, n int) {
	r.Events = append(r.Events, Event{Kind: EventActivated, Coord: coord, InstanceCount: n})
}

func (r *EventRecorder) ChunkDeactivated(coord ChunkCoord) {
	r.Events = append(r.Events, Event{Kind: EventDeactivated, Coord: coord})
}

func (r *EventRecorder) StatsChanged(stats Stats) {
	r.Events = append(r.Events, Event{Kind: EventStats, Stats: stats})
}

// Reset drops all recorded events.
func (r *EventRecorder) Reset() { r.Events = r.Events[:0] }
