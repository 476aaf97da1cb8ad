package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchRequested EventType = "SearchRequested"
	EventSearchStarted   EventType = "SearchStarted"
	EventResultChunk     EventType = "ResultChunk"
	EventSearchCompleted EventType = "SearchCompleted"
	EventSearchFailed    EventType = "SearchFailed"
	EventSessionClosed   EventType = "SessionClosed"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigChanged   EventType = "ConfigChanged"
	EventError           EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SessionID identifies one search session in the registry.
type SessionID int

// SearchRequestedEvent asks the backend service to run a query for a session.
type SearchRequestedEvent struct {
	Session SessionID
	Query   Query
}

func (e SearchRequestedEvent) Type() EventType { return EventSearchRequested }

// SearchStartedEvent is emitted when the backend request has been issued.
type SearchStartedEvent struct {
	Session SessionID
	Query   Query
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// ResultChunkEvent carries one raw chunk of the intermediate result
// stream. Chunks may split lines at arbitrary byte offsets.
type ResultChunkEvent struct {
	Session SessionID
	Data    []byte
}

func (e ResultChunkEvent) Type() EventType { return EventResultChunk }

// SearchCompletedEvent is emitted once when a session's stream ends normally.
type SearchCompletedEvent struct {
	Session SessionID
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted once when a session ends in a transport
// or backend error. Results rendered before the failure stay visible.
type SearchFailedEvent struct {
	Session SessionID
	Err     error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// SessionClosedEvent is emitted when a session is removed from the registry.
type SessionClosedEvent struct {
	Session SessionID
}

func (e SessionClosedEvent) Type() EventType { return EventSessionClosed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Endpoint   string
	SourceRoot string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigChangedEvent is emitted when configuration needs to be saved
type ConfigChangedEvent struct{}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
