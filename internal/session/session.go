// Package session implements the learning session state and the tutoring
// operations on top of it.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codementor-ai/codementor/internal/event"
	"github.com/codementor-ai/codementor/pkg/types"
)

// Session is one student's learning session. All mutations go through the
// session mutex, which gives every session a single total order of ledger
// appends, stage transitions and completion.
type Session struct {
	ID         string
	Problem    string
	Language   string
	SkillLevel string
	Model      string

	mu        sync.Mutex
	stage     types.Stage
	completed bool
	turns     []types.Turn
	streaming bool
	created   int64
	updated   int64
}

func newSession(id, problem, language, skillLevel, model string) *Session {
	now := time.Now().UnixMilli()
	return &Session{
		ID:         id,
		Problem:    problem,
		Language:   language,
		SkillLevel: skillLevel,
		Model:      model,
		stage:      types.Stages[0],
		created:    now,
		updated:    now,
	}
}

// Info returns a point-in-time snapshot of the session.
func (s *Session) Info() *types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &types.SessionInfo{
		ID:         s.ID,
		Problem:    s.Problem,
		Language:   s.Language,
		SkillLevel: s.SkillLevel,
		Model:      s.Model,
		Stage:      s.stage,
		Completed:  s.completed,
		Turns:      len(s.turns),
		Time: types.SessionTime{
			Created: s.created,
			Updated: s.updated,
		},
	}
}

// Status reports where the session sits in the learning progression.
func (s *Session) Status() *types.StageStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.stage.Index()
	if index < 0 {
		index = 0
	}
	isLast := s.stage.IsTerminal()
	return &types.StageStatus{
		Stage:       s.stage,
		StageIndex:  index,
		TotalStages: len(types.Stages),
		IsLast:      isLast,
		Completed:   s.completed,
		CanAdvance:  !isLast && !s.completed,
		CanComplete: isLast && !s.completed,
	}
}

// Stage returns the current learning stage.
func (s *Session) Stage() types.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Completed reports whether the learning journey has been completed. The
// flag is monotonic: once set it never clears.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// LastActive returns the Unix millisecond timestamp of the last mutation.
func (s *Session) LastActive() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// touch refreshes the activity timestamp. Callers hold s.mu.
func (s *Session) touch() {
	s.updated = time.Now().UnixMilli()
}

// Touch refreshes the activity timestamp so the idle janitor does not
// evict a session that is being read.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// AppendTurn records a turn in the conversation ledger. The ledger is
// append-only: turns are never edited or removed.
func (s *Session) AppendTurn(role types.Role, text string) types.Turn {
	s.mu.Lock()
	turn := types.Turn{Role: role, Text: text}
	s.turns = append(s.turns, turn)
	count := len(s.turns)
	s.touch()
	s.mu.Unlock()

	event.Publish(event.Event{
		Type: event.TurnAppended,
		Data: event.TurnAppendedData{
			SessionID: s.ID,
			Turn:      turn,
			TurnCount: count,
		},
	})
	return turn
}

// Turns returns a copy of the conversation ledger.
func (s *Session) Turns() []types.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Transcript renders the ledger as one "role: text" line per turn, in
// append order.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for i, turn := range s.turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", turn.Role, turn.Text)
	}
	return b.String()
}

// BeginAdvance validates that a stage transition is possible and returns
// the current and next stages. The transition is not taken until
// CommitAdvance; the pair exists so the transition message can be
// generated without holding the session lock.
func (s *Session) BeginAdvance() (prev, next types.Stage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return s.stage, s.stage, ErrAlreadyCompleted
	}
	next, ok := s.stage.Next()
	if !ok {
		return s.stage, s.stage, ErrNoFurtherStage
	}
	return s.stage, next, nil
}

// CommitAdvance moves the session from prev to the following stage and
// appends the transition message as a tutor turn. The stage swap happens
// before the append, under one lock hold, so no observer can see the
// transition message paired with the old stage. If the stage moved since
// BeginAdvance the commit fails with ErrStageConflict.
func (s *Session) CommitAdvance(prev types.Stage, message string) (types.Stage, error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return s.stage, ErrAlreadyCompleted
	}
	if s.stage != prev {
		cur := s.stage
		s.mu.Unlock()
		return cur, ErrStageConflict
	}
	next, ok := s.stage.Next()
	if !ok {
		s.mu.Unlock()
		return s.stage, ErrNoFurtherStage
	}
	s.stage = next
	turn := types.Turn{Role: types.RoleTutor, Text: message}
	s.turns = append(s.turns, turn)
	count := len(s.turns)
	s.touch()
	s.mu.Unlock()

	event.Publish(event.Event{
		Type: event.StageAdvanced,
		Data: event.StageAdvancedData{
			SessionID:     s.ID,
			PreviousStage: prev,
			NewStage:      next,
			StageIndex:    next.Index(),
			IsLast:        next.IsTerminal(),
		},
	})
	event.Publish(event.Event{
		Type: event.TurnAppended,
		Data: event.TurnAppendedData{
			SessionID: s.ID,
			Turn:      turn,
			TurnCount: count,
		},
	})
	return next, nil
}

// BeginComplete validates that the learning journey can be completed.
func (s *Session) BeginComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return ErrAlreadyCompleted
	}
	if !s.stage.IsTerminal() {
		return ErrStagesRemaining
	}
	return nil
}

// CommitComplete marks the journey completed and appends the learning
// summary as a tutor turn. Completion happens at most once.
func (s *Session) CommitComplete(summary string) error {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return ErrAlreadyCompleted
	}
	if !s.stage.IsTerminal() {
		s.mu.Unlock()
		return ErrStagesRemaining
	}
	s.completed = true
	turn := types.Turn{Role: types.RoleTutor, Text: summary}
	s.turns = append(s.turns, turn)
	count := len(s.turns)
	s.touch()
	s.mu.Unlock()

	event.Publish(event.Event{
		Type: event.TurnAppended,
		Data: event.TurnAppendedData{
			SessionID: s.ID,
			Turn:      turn,
			TurnCount: count,
		},
	})
	return nil
}

// BeginStream claims the session's streaming slot. At most one streamed
// reply runs per session at a time.
func (s *Session) BeginStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrStreamBusy
	}
	s.streaming = true
	s.touch()
	return nil
}

// EndStream releases the streaming slot.
func (s *Session) EndStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	s.touch()
}

// Streaming reports whether a streamed reply is in flight.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}
