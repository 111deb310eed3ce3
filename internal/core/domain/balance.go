package domain

import "time"

// BalanceResponse is one successfully fetched balance reading.
type BalanceResponse struct {
	Balance    float64   `json:"balance"`
	ObservedAt time.Time `json:"observed_at"`
}

// BalanceState is the full snapshot rendered by balance views.
// Snapshots are values; a transition always produces a new one.
type BalanceState struct {
	LastResponse *BalanceResponse `json:"last_response"`
	DidFail      bool             `json:"did_fail"`
	IsRefreshing bool             `json:"is_refreshing"`
	IsRedacted   bool             `json:"is_redacted"`
}

// Clone returns a copy that shares no memory with s.
func (s BalanceState) Clone() BalanceState {
	if s.LastResponse != nil {
		resp := *s.LastResponse
		s.LastResponse = &resp
	}
	return s
}

// Apply is the balance transition function. It returns the next state and
// whether the event changed anything worth broadcasting. Generation checks
// for fetch completions are the caller's job; Apply only rejects completions
// that arrive while no fetch is in flight.
func (s BalanceState) Apply(evt Event) (BalanceState, bool) {
	next := s.Clone()

	switch evt.Kind {
	case EventRefreshRequested:
		next.IsRefreshing = true
		next.DidFail = false
	case EventFetchCompleted:
		if !s.IsRefreshing {
			return s, false
		}
		next.IsRefreshing = false
		if resp := evt.Result.Response; evt.Result.Succeeded() {
			r := *resp
			next.LastResponse = &r
		} else {
			next.DidFail = true
		}
	case EventAppBecameInactive:
		next.IsRedacted = true
	case EventAppBecameActive:
		next.IsRedacted = false
	default:
		return s, false
	}

	return next, true
}

// FetchResult is the outcome of one balance fetch: exactly one of Response
// and Err is set.
type FetchResult struct {
	Response *BalanceResponse
	Err      error
}

// FetchSuccess builds a successful result.
func FetchSuccess(balance float64, observedAt time.Time) FetchResult {
	return FetchResult{Response: &BalanceResponse{Balance: balance, ObservedAt: observedAt}}
}

// FetchFailure builds a failed result carrying cause.
func FetchFailure(cause error) FetchResult {
	return FetchResult{Err: cause}
}

func (r FetchResult) Succeeded() bool { return r.Err == nil && r.Response != nil }

// Valid reports whether exactly one side of the result is populated.
func (r FetchResult) Valid() bool { return (r.Err == nil) != (r.Response == nil) }
