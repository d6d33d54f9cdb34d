package domain

// StateDiff represents the changes between two session states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentFormID *string `json:"current_form_id,omitempty"`
	Status        *Status `json:"status,omitempty"`

	// Answers contains only added or changed answers.
	Answers []Answer `json:"answers,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history stack.
// Popped counts entries removed from the top before Pushed were appended.
type HistoryDelta struct {
	Popped int      `json:"popped,omitempty"`
	Pushed []string `json:"pushed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentFormID() != newState.CurrentFormID() {
		current := newState.CurrentFormID()
		diff.CurrentFormID = &current
	}
	if oldState == nil || oldState.Status != newState.Status {
		status := newState.Status
		diff.Status = &status
	}

	diff.Answers = diffAnswers(oldState, newState)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old *State, new *State) []Answer {
	if old == nil {
		return new.Answers.All()
	}

	var delta []Answer
	for _, a := range new.Answers.All() {
		prev, ok := old.Answers.Get(a.QuestionID)
		if !ok || !prev.Value.Equal(a.Value) {
			delta = append(delta, a)
		}
	}
	return delta
}

// diffHistory finds the longest common prefix and reports what was popped and pushed after it.
func diffHistory(old *State, new *State) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Pushed: append([]string(nil), new.History...)}
	}

	common := 0
	for common < len(old.History) && common < len(new.History) && old.History[common] == new.History[common] {
		common++
	}

	popped := len(old.History) - common
	pushed := new.History[common:]
	if popped == 0 && len(pushed) == 0 {
		return nil
	}

	delta := &HistoryDelta{Popped: popped}
	if len(pushed) > 0 {
		delta.Pushed = append([]string(nil), pushed...)
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentFormID == nil &&
		d.Status == nil &&
		len(d.Answers) == 0 &&
		d.History == nil
}
