package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codementor-ai/codementor/pkg/types"
)

func newTestSession() *Session {
	return newSession("test-id", "Reverse a linked list", "go", "intermediate", "")
}

func TestSessionStartsAtFirstStage(t *testing.T) {
	sess := newTestSession()
	info := sess.Info()

	assert.Equal(t, types.StageProblemAnalysis, info.Stage)
	assert.False(t, info.Completed)
	assert.Zero(t, info.Turns)
	assert.NotZero(t, info.Time.Created)
}

func TestLedgerAppendOrderAndTranscript(t *testing.T) {
	sess := newTestSession()
	sess.AppendTurn(types.RoleTutor, "Welcome! What does the problem ask?")
	sess.AppendTurn(types.RoleStudent, "It asks to reverse a list.")
	sess.AppendTurn(types.RoleTutor, "Right. What changes for each node?")

	turns := sess.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, types.RoleTutor, turns[0].Role)
	assert.Equal(t, types.RoleStudent, turns[1].Role)

	transcript := "tutor: Welcome! What does the problem ask?\n" +
		"student: It asks to reverse a list.\n" +
		"tutor: Right. What changes for each node?"
	assert.Equal(t, transcript, sess.Transcript())
}

func TestTurnsReturnsCopy(t *testing.T) {
	sess := newTestSession()
	sess.AppendTurn(types.RoleStudent, "original")

	turns := sess.Turns()
	turns[0].Text = "mutated"

	assert.Equal(t, "original", sess.Turns()[0].Text)
}

func TestAdvanceWalksAllStagesInOrder(t *testing.T) {
	sess := newTestSession()

	for i := 0; i < len(types.Stages)-1; i++ {
		prev, next, err := sess.BeginAdvance()
		require.NoError(t, err)
		assert.Equal(t, types.Stages[i], prev)
		assert.Equal(t, types.Stages[i+1], next)

		committed, err := sess.CommitAdvance(prev, fmt.Sprintf("moving to %s", next))
		require.NoError(t, err)
		assert.Equal(t, next, committed)
	}
	assert.Equal(t, types.StageReflection, sess.Stage())
}

func TestAdvanceAtTerminalStage(t *testing.T) {
	sess := newTestSession()
	for i := 0; i < len(types.Stages)-1; i++ {
		prev, _, err := sess.BeginAdvance()
		require.NoError(t, err)
		_, err = sess.CommitAdvance(prev, "next")
		require.NoError(t, err)
	}

	// Repeated attempts at the terminal stage keep failing the same way.
	for i := 0; i < 3; i++ {
		_, _, err := sess.BeginAdvance()
		assert.ErrorIs(t, err, ErrNoFurtherStage)
		assert.Equal(t, types.StageReflection, sess.Stage())
	}
}

func TestCommitAdvanceDetectsConcurrentTransition(t *testing.T) {
	sess := newTestSession()
	prev, _, err := sess.BeginAdvance()
	require.NoError(t, err)

	// Another advance lands first.
	_, err = sess.CommitAdvance(prev, "first")
	require.NoError(t, err)

	_, err = sess.CommitAdvance(prev, "second")
	assert.ErrorIs(t, err, ErrStageConflict)
	assert.Len(t, sess.Turns(), 1)
}

func TestStageSwapHappensBeforeTransitionAppend(t *testing.T) {
	sess := newTestSession()
	prev, next, err := sess.BeginAdvance()
	require.NoError(t, err)

	_, err = sess.CommitAdvance(prev, "on to design")
	require.NoError(t, err)

	// After commit the observable state pairs the transition message with
	// the new stage, never the old one.
	info := sess.Info()
	assert.Equal(t, next, info.Stage)
	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, types.RoleTutor, turns[0].Role)
	assert.Equal(t, "on to design", turns[0].Text)
}

func TestCompleteRequiresTerminalStage(t *testing.T) {
	sess := newTestSession()

	err := sess.BeginComplete()
	assert.ErrorIs(t, err, ErrStagesRemaining)
	err = sess.CommitComplete("summary")
	assert.ErrorIs(t, err, ErrStagesRemaining)
	assert.False(t, sess.Completed())
}

func TestCompleteExactlyOnce(t *testing.T) {
	sess := newTestSession()
	for i := 0; i < len(types.Stages)-1; i++ {
		prev, _, err := sess.BeginAdvance()
		require.NoError(t, err)
		_, err = sess.CommitAdvance(prev, "next")
		require.NoError(t, err)
	}

	require.NoError(t, sess.BeginComplete())
	require.NoError(t, sess.CommitComplete("well done"))
	assert.True(t, sess.Completed())

	assert.ErrorIs(t, sess.BeginComplete(), ErrAlreadyCompleted)
	assert.ErrorIs(t, sess.CommitComplete("again"), ErrAlreadyCompleted)

	// Advancing after completion fails too.
	_, _, err := sess.BeginAdvance()
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The flag never clears.
	assert.True(t, sess.Completed())
}

func TestStatusTransitions(t *testing.T) {
	sess := newTestSession()

	status := sess.Status()
	assert.Equal(t, 0, status.StageIndex)
	assert.Equal(t, len(types.Stages), status.TotalStages)
	assert.True(t, status.CanAdvance)
	assert.False(t, status.CanComplete)

	for i := 0; i < len(types.Stages)-1; i++ {
		prev, _, err := sess.BeginAdvance()
		require.NoError(t, err)
		_, err = sess.CommitAdvance(prev, "next")
		require.NoError(t, err)
	}

	status = sess.Status()
	assert.True(t, status.IsLast)
	assert.False(t, status.CanAdvance)
	assert.True(t, status.CanComplete)

	require.NoError(t, sess.CommitComplete("done"))
	status = sess.Status()
	assert.True(t, status.Completed)
	assert.False(t, status.CanAdvance)
	assert.False(t, status.CanComplete)
}

func TestStreamSlotIsExclusive(t *testing.T) {
	sess := newTestSession()

	require.NoError(t, sess.BeginStream())
	assert.ErrorIs(t, sess.BeginStream(), ErrStreamBusy)

	sess.EndStream()
	require.NoError(t, sess.BeginStream())
}

func TestConcurrentAppendsKeepAllTurns(t *testing.T) {
	sess := newTestSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess.AppendTurn(types.RoleStudent, fmt.Sprintf("turn %d", n))
		}(i)
	}
	wg.Wait()

	assert.Len(t, sess.Turns(), 50)
}
