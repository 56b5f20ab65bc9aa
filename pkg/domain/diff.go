package domain

// SessionDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for live call monitoring.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentFlow  *string `json:"current_flow,omitempty"`
	CurrentState *string `json:"current_state,omitempty"`

	// Data contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Data map[string]*string `json:"data,omitempty"`

	// History contains the exchanges appended since the old snapshot.
	History *HistoryDelta `json:"history,omitempty"`

	Ended *bool `json:"ended,omitempty"`
}

// HistoryDelta represents exchanges appended to the transcript.
type HistoryDelta struct {
	Appended []Exchange `json:"appended"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.CurrentFlow != newSession.CurrentFlow {
		diff.CurrentFlow = &newSession.CurrentFlow
	}
	if oldSession == nil || oldSession.CurrentState != newSession.CurrentState {
		diff.CurrentState = &newSession.CurrentState
	}

	wasEnded := oldSession != nil && oldSession.Ended()
	if newSession.Ended() != wasEnded {
		ended := newSession.Ended()
		diff.Ended = &ended
	}

	diff.Data = diffData(oldSession, newSession)
	diff.History = diffHistory(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffData(old, new *Session) map[string]*string {
	delta := make(map[string]*string)

	for k, v := range new.Data {
		if old != nil {
			if prev, ok := old.Data[k]; ok && prev == v {
				continue
			}
		}
		val := v
		delta[k] = &val
	}

	if old != nil {
		for k := range old.Data {
			if _, ok := new.Data[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes the transcript is append-only.
func diffHistory(old, new *Session) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentFlow == nil &&
		d.CurrentState == nil &&
		d.Ended == nil &&
		len(d.Data) == 0 &&
		d.History == nil
}
