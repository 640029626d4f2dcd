package core

// StatusUpdate is a typed partial update of a ProcessingStatus.
// Only fields that were set are written; the rest keep their stored values.
type StatusUpdate struct {
	state    *DocumentState
	progress *int
	err      *string
}

// NewStatusUpdate returns an empty update.
func NewStatusUpdate() *StatusUpdate {
	return &StatusUpdate{}
}

// WithState sets the document state.
func (u *StatusUpdate) WithState(state DocumentState) *StatusUpdate {
	u.state = &state
	return u
}

// WithProgress sets the progress, clamped to 0-100.
func (u *StatusUpdate) WithProgress(progress int) *StatusUpdate {
	progress = ClampProgress(progress)
	u.progress = &progress
	return u
}

// WithError sets the error message. An empty message clears it.
func (u *StatusUpdate) WithError(msg string) *StatusUpdate {
	u.err = &msg
	return u
}

// Empty reports whether no field was set.
func (u *StatusUpdate) Empty() bool {
	return u == nil || (u.state == nil && u.progress == nil && u.err == nil)
}

// Apply writes the set fields onto status.
func (u *StatusUpdate) Apply(status *ProcessingStatus) {
	if u == nil || status == nil {
		return
	}
	if u.state != nil {
		status.State = *u.state
	}
	if u.progress != nil {
		status.Progress = *u.progress
	}
	if u.err != nil {
		status.Error = *u.err
	}
}

// ClampProgress bounds a progress value to 0-100.
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
