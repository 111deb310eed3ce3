package domain

// EventKind identifies what happened to the balance state.
type EventKind string

const (
	EventRefreshRequested  EventKind = "REFRESH_REQUESTED"
	EventFetchCompleted    EventKind = "FETCH_COMPLETED"
	EventAppBecameInactive EventKind = "APP_BECAME_INACTIVE"
	EventAppBecameActive   EventKind = "APP_BECAME_ACTIVE"
)

// Event is the input of the balance transition function.
// Generation and Result are only meaningful for EventFetchCompleted.
type Event struct {
	Kind       EventKind
	Generation uint64
	Result     FetchResult
}

func RefreshRequested() Event  { return Event{Kind: EventRefreshRequested} }
func AppBecameInactive() Event { return Event{Kind: EventAppBecameInactive} }
func AppBecameActive() Event   { return Event{Kind: EventAppBecameActive} }

// FetchCompleted reports the settlement of the fetch started for generation.
func FetchCompleted(generation uint64, result FetchResult) Event {
	return Event{Kind: EventFetchCompleted, Generation: generation, Result: result}
}

// LifecycleSignal is what a lifecycle source reports about the host application.
type LifecycleSignal string

const (
	LifecycleInactive LifecycleSignal = "inactive"
	LifecycleActive   LifecycleSignal = "active"
)

// ParseLifecycleSignal accepts "inactive" and "active".
func ParseLifecycleSignal(s string) (LifecycleSignal, bool) {
	switch sig := LifecycleSignal(s); sig {
	case LifecycleInactive, LifecycleActive:
		return sig, true
	default:
		return "", false
	}
}

// Event maps the signal to the redaction event it triggers.
func (s LifecycleSignal) Event() Event {
	if s == LifecycleActive {
		return AppBecameActive()
	}
	return AppBecameInactive()
}
