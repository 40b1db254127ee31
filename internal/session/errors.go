package session

import "errors"

// Sentinel errors returned by session operations. Handlers map these to
// response status codes.
var (
	// ErrSessionNotFound means no session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoFurtherStage means the session is already at the last learning
	// stage and cannot advance.
	ErrNoFurtherStage = errors.New("already at the last learning stage")

	// ErrStagesRemaining means completion was requested before the session
	// reached the last learning stage.
	ErrStagesRemaining = errors.New("learning stages remain before completion")

	// ErrAlreadyCompleted means the learning journey was already completed.
	ErrAlreadyCompleted = errors.New("learning already completed")

	// ErrStageConflict means the stage changed between reading it and
	// committing a transition.
	ErrStageConflict = errors.New("stage changed concurrently")

	// ErrStreamBusy means a streamed reply is already in flight for the
	// session.
	ErrStreamBusy = errors.New("a streamed reply is already in progress")
)
