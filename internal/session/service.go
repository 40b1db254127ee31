package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor/internal/event"
	"github.com/codementor-ai/codementor/internal/logging"
	"github.com/codementor-ai/codementor/internal/prompt"
	"github.com/codementor-ai/codementor/internal/provider"
	"github.com/codementor-ai/codementor/pkg/types"
)

// Service implements the tutoring operations. Buffered replies go through
// the provider's Complete path; the live chat streams through streamReply.
type Service struct {
	registry    *Registry
	provider    provider.Provider
	model       string
	temperature float64
	log         zerolog.Logger
}

// NewService creates the tutoring service.
func NewService(registry *Registry, prov provider.Provider, cfg *types.Config) *Service {
	return &Service{
		registry:    registry,
		provider:    prov,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         logging.Component("session"),
	}
}

// StartRequest carries the inputs for a new learning session.
type StartRequest struct {
	Problem    string `json:"problem"`
	Language   string `json:"language"`
	SkillLevel string `json:"skillLevel"`
	Model      string `json:"model,omitempty"`
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	Info            *types.SessionInfo `json:"info"`
	InitialGuidance string             `json:"initialGuidance"`
}

// AdvanceResult is the outcome of a stage transition.
type AdvanceResult struct {
	PreviousStage     types.Stage `json:"previousStage"`
	NewStage          types.Stage `json:"newStage"`
	StageIndex        int         `json:"stageIndex"`
	IsLast            bool        `json:"isLastStage"`
	TransitionMessage string      `json:"transitionMessage"`
}

func (s *Service) modelFor(sess *Session) string {
	if sess != nil && sess.Model != "" {
		return sess.Model
	}
	return s.model
}

func (s *Service) complete(ctx context.Context, model, text string) (string, error) {
	return s.provider.Complete(ctx, &provider.CompletionRequest{
		Model:       model,
		Messages:    []provider.Message{{Role: "user", Content: text}},
		Temperature: s.temperature,
	})
}

func (s *Service) inputs(sess *Session) prompt.Inputs {
	return prompt.Inputs{
		Problem:    sess.Problem,
		Language:   sess.Language,
		SkillLevel: sess.SkillLevel,
		Stage:      sess.Stage(),
	}
}

// StartSession creates a session and generates its opening guidance. The
// session is registered only after the provider call succeeds, so a failed
// start leaves no half-initialized state behind.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.Language == "" {
		req.Language = "python"
	}
	if req.SkillLevel == "" {
		req.SkillLevel = "intermediate"
	}
	model := req.Model
	if model == "" {
		model = s.model
	}

	guidance, err := s.complete(ctx, model, prompt.InitialGuidance(prompt.Inputs{
		Problem:    req.Problem,
		Language:   req.Language,
		SkillLevel: req.SkillLevel,
	}))
	if err != nil {
		return nil, fmt.Errorf("generate initial guidance: %w", err)
	}

	sess := s.registry.Create(req.Problem, req.Language, req.SkillLevel, req.Model)
	sess.AppendTurn(types.RoleTutor, guidance)

	s.log.Info().
		Str("sessionID", sess.ID).
		Str("language", req.Language).
		Str("skillLevel", req.SkillLevel).
		Msg("session started")
	return &StartResult{Info: sess.Info(), InitialGuidance: guidance}, nil
}

// Get returns a snapshot of a session.
func (s *Service) Get(id string) (*types.SessionInfo, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Info(), nil
}

// List returns snapshots of all sessions.
func (s *Service) List() []*types.SessionInfo {
	return s.registry.List()
}

// Delete removes a session.
func (s *Service) Delete(id string) error {
	return s.registry.Delete(id)
}

// Status reports a session's position in the learning progression.
func (s *Service) Status(id string) (*types.StageStatus, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Status(), nil
}

// Turns returns a session's conversation ledger.
func (s *Service) Turns(id string) ([]types.Turn, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Turns(), nil
}

// ExplainConcept generates an explanation of a named concept and records
// the exchange in the ledger.
func (s *Service) ExplainConcept(ctx context.Context, id, concept string) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}

	in := s.inputs(sess)
	in.Concept = concept
	explanation, err := s.complete(ctx, s.modelFor(sess), prompt.ConceptExplanation(in))
	if err != nil {
		return "", fmt.Errorf("explain concept: %w", err)
	}

	sess.AppendTurn(types.RoleStudent, fmt.Sprintf("Please explain the concept of %q.", concept))
	sess.AppendTurn(types.RoleTutor, explanation)
	return explanation, nil
}

// RequestHint generates a single targeted hint. The hint prompt is fed a
// provider-generated summary of progress so far, then the exchange is
// recorded in the ledger.
func (s *Service) RequestHint(ctx context.Context, id, hintRequest string) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}

	in := s.inputs(sess)
	in.History = sess.Transcript()
	summary, err := s.complete(ctx, s.modelFor(sess), prompt.ProgressSummary(in))
	if err != nil {
		return "", fmt.Errorf("summarize progress: %w", err)
	}

	in.ProgressSummary = summary
	in.HintRequest = hintRequest
	hint, err := s.complete(ctx, s.modelFor(sess), prompt.Hint(in))
	if err != nil {
		return "", fmt.Errorf("generate hint: %w", err)
	}

	sess.AppendTurn(types.RoleStudent, "I'm stuck and need a hint: "+hintRequest)
	sess.AppendTurn(types.RoleTutor, hint)
	return hint, nil
}

// CodeFeedback reviews submitted code against the current stage and records
// the submission and the feedback in the ledger. The stage itself is not
// touched: submitting code shifts the feedback's focus, not the session's
// position in the progression.
func (s *Service) CodeFeedback(ctx context.Context, id, code string) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}

	in := s.inputs(sess)
	in.Code = code
	feedback, err := s.complete(ctx, s.modelFor(sess), prompt.CodeFeedback(in))
	if err != nil {
		return "", fmt.Errorf("generate code feedback: %w", err)
	}

	submission := fmt.Sprintf("Here is my code attempt, please give some feedback:\n```%s\n%s\n```",
		strings.ToLower(sess.Language), code)
	sess.AppendTurn(types.RoleStudent, submission)
	sess.AppendTurn(types.RoleTutor, feedback)
	return feedback, nil
}

// AdvanceStage moves the session to the next learning stage. A transition
// message is generated from a summary of progress and recorded as a tutor
// turn after the stage swap.
func (s *Service) AdvanceStage(ctx context.Context, id string) (*AdvanceResult, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	prev, next, err := sess.BeginAdvance()
	if err != nil {
		return nil, err
	}

	in := s.inputs(sess)
	in.History = sess.Transcript()
	summary, err := s.complete(ctx, s.modelFor(sess), prompt.ProgressSummary(in))
	if err != nil {
		return nil, fmt.Errorf("summarize progress: %w", err)
	}

	in.PreviousStage = prev
	in.NewStage = next
	in.ProgressSummary = summary
	message, err := s.complete(ctx, s.modelFor(sess), prompt.StageTransition(in))
	if err != nil {
		return nil, fmt.Errorf("generate transition message: %w", err)
	}

	committed, err := sess.CommitAdvance(prev, message)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("sessionID", sess.ID).
		Str("from", string(prev)).
		Str("to", string(committed)).
		Msg("stage advanced")
	return &AdvanceResult{
		PreviousStage:     prev,
		NewStage:          committed,
		StageIndex:        committed.Index(),
		IsLast:            committed.IsTerminal(),
		TransitionMessage: message,
	}, nil
}

// CreateChallenge generates a mini-challenge focused on the current stage.
// Challenges are side quests: they are not recorded in the ledger.
func (s *Service) CreateChallenge(ctx context.Context, id string) (*types.Challenge, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	in := s.inputs(sess)
	in.FocusArea = prompt.FocusArea(in.Stage)
	raw, err := s.complete(ctx, s.modelFor(sess), prompt.MiniChallenge(in))
	if err != nil {
		return nil, fmt.Errorf("generate mini challenge: %w", err)
	}

	challenge := ParseChallenge(raw)
	return &challenge, nil
}

// CompleteSession finishes the learning journey: it generates a learning
// summary, records it as the final tutor turn and marks the session
// completed. Completion requires the last stage and happens at most once.
func (s *Service) CompleteSession(ctx context.Context, id string) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}

	if err := sess.BeginComplete(); err != nil {
		return "", err
	}

	in := s.inputs(sess)
	in.History = sess.Transcript()
	summary, err := s.complete(ctx, s.modelFor(sess), prompt.LearningSummary(in))
	if err != nil {
		return "", fmt.Errorf("generate learning summary: %w", err)
	}

	if err := sess.CommitComplete(summary); err != nil {
		return "", err
	}

	event.Publish(event.Event{
		Type: event.SessionCompleted,
		Data: event.SessionCompletedData{Info: sess.Info()},
	})
	s.log.Info().Str("sessionID", sess.ID).Msg("learning completed")
	return summary, nil
}

// Chat streams the tutor's reply to a student message into sink. The
// student turn is recorded immediately; the tutor turn is recorded only
// when the stream finishes cleanly. One streamed reply runs per session
// at a time.
func (s *Service) Chat(ctx context.Context, id, message string, sink Sink) error {
	sess, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if err := sess.BeginStream(); err != nil {
		return err
	}
	defer sess.EndStream()

	// The reply prompt sees the history as it stood before this message.
	in := s.inputs(sess)
	in.History = sess.Transcript()
	in.StudentResponse = message
	sess.AppendTurn(types.RoleStudent, message)

	return s.streamReply(ctx, sess, &provider.CompletionRequest{
		Model:       s.modelFor(sess),
		Messages:    []provider.Message{{Role: "user", Content: prompt.Continuation(in)}},
		Temperature: s.temperature,
	}, sink)
}
