package events

// EventType identifies the type of event
type EventType string

const (
	// Roster events
	RosterReloadedEvent EventType = "roster.reloaded"
	RosterSavedEvent    EventType = "roster.saved"

	// Queue events
	QueueChangedEvent   EventType = "queue.changed"
	DrawCompletedEvent  EventType = "draw.completed"
	CreditsGrantedEvent EventType = "credits.granted"

	// Config events
	ConfigChangedEvent EventType = "config.changed"

	// Error events
	EngineErrorEvent EventType = "engine.error"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	Payload any
}

// Event payload types

// QueueChangedPayload names the sub-queue that changed and why.
type QueueChangedPayload struct {
	Queue  string // "normal", "cutline" or "boarding"
	Action string // "admit", "complete", "cancel", "start", "stop", "clear"
	Name   string
}

type RosterReloadedPayload struct {
	Path    string
	Entries int
	Orphans []string
	Skipped int // malformed lines
}

type DrawCompletedPayload struct {
	Winners []string
}

type CreditsGrantedPayload struct {
	Name    string
	Credits int
	Reason  string
}

type ConfigChangedPayload struct {
	RosterPathChanged bool
}

type ErrorPayload struct {
	Op  string
	Err error
}
