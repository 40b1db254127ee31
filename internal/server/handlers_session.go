package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/codementor-ai/codementor/internal/session"
	"github.com/codementor-ai/codementor/pkg/types"
)

// HintRequest represents the request body for requesting a hint.
type HintRequest struct {
	HintRequest string `json:"hintRequest"`
}

// FeedbackRequest represents the request body for code feedback.
type FeedbackRequest struct {
	Code string `json:"code"`
}

// listSessions handles GET /api/session
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.tutor.List()

	// Ensure we return an empty array [] instead of null
	if sessions == nil {
		sessions = []*types.SessionInfo{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// startSession handles POST /api/session
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Problem == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "problem is required")
		return
	}

	result, err := s.tutor.StartSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"sessionId":       result.Info.ID,
		"initialGuidance": result.InitialGuidance,
		"info":            result.Info,
	})
}

// getSession handles GET /api/session/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.tutor.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// deleteSession handles DELETE /api/session/{sessionID}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.tutor.Delete(chi.URLParam(r, "sessionID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// getStatus handles GET /api/session/{sessionID}/status
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.tutor.Status(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"currentStage":      status.Stage,
		"currentStageIndex": status.StageIndex,
		"totalStages":       status.TotalStages,
		"isLastStage":       status.IsLast,
		"learningCompleted": status.Completed,
		"canTransitionNext": status.CanAdvance,
		"canComplete":       status.CanComplete,
	})
}

// getTurns handles GET /api/session/{sessionID}/turns
func (s *Server) getTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := s.tutor.Turns(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		turns = []types.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// explainConcept handles GET /api/session/{sessionID}/explain/{concept}
func (s *Server) explainConcept(w http.ResponseWriter, r *http.Request) {
	concept := chi.URLParam(r, "concept")
	if decoded, err := url.PathUnescape(concept); err == nil {
		concept = decoded
	}

	explanation, err := s.tutor.ExplainConcept(r.Context(), chi.URLParam(r, "sessionID"), concept)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"explanation": explanation,
	})
}

// requestHint handles POST /api/session/{sessionID}/hint
func (s *Server) requestHint(w http.ResponseWriter, r *http.Request) {
	var req HintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	hint, err := s.tutor.RequestHint(r.Context(), chi.URLParam(r, "sessionID"), req.HintRequest)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"hint":    hint,
	})
}

// codeFeedback handles POST /api/session/{sessionID}/feedback
func (s *Server) codeFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "code is required")
		return
	}

	feedback, err := s.tutor.CodeFeedback(r.Context(), chi.URLParam(r, "sessionID"), req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"feedback": feedback,
	})
}

// advanceStage handles POST /api/session/{sessionID}/stage/next
func (s *Server) advanceStage(w http.ResponseWriter, r *http.Request) {
	result, err := s.tutor.AdvanceStage(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"previousStage":     result.PreviousStage,
		"newStage":          result.NewStage,
		"stageIndex":        result.StageIndex,
		"isLastStage":       result.IsLast,
		"transitionMessage": result.TransitionMessage,
	})
}

// createChallenge handles POST /api/session/{sessionID}/challenge
func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.tutor.CreateChallenge(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"challenge": challenge,
	})
}

// completeSession handles POST /api/session/{sessionID}/complete
func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tutor.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"learningCompleted": true,
		"summary":           summary,
		"message":           "Congratulations! You have completed learning this problem. You can now start a new problem.",
	})
}
