package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codementor-ai/codementor/internal/provider"
	"github.com/codementor-ai/codementor/internal/session"
	"github.com/codementor-ai/codementor/pkg/types"
)

// fakeProvider returns canned completions and a fixed stream body.
type fakeProvider struct {
	mu          sync.Mutex
	completions []string
	completeErr error
	streamBody  string
	streamErr   error
}

func (p *fakeProvider) Complete(_ context.Context, _ *provider.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completeErr != nil {
		return "", p.completeErr
	}
	if len(p.completions) == 0 {
		return "canned reply", nil
	}
	next := p.completions[0]
	p.completions = p.completions[1:]
	return next, nil
}

func (p *fakeProvider) Stream(_ context.Context, _ *provider.CompletionRequest) (*provider.CompletionStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return provider.NewCompletionStream(io.NopCloser(strings.NewReader(p.streamBody))), nil
}

func streamOf(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", d)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func newTestServer(p provider.Provider) *Server {
	registry := session.NewRegistry(time.Hour)
	tutor := session.NewService(registry, p, &types.Config{Model: "test-model", Temperature: 0.2})
	return New(DefaultConfig(), &types.Config{}, registry, tutor)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func createTestSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/session", map[string]string{
		"problem":    "Reverse a linked list",
		"language":   "go",
		"skillLevel": "intermediate",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestStartSession(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{"What does the problem ask?"}})

	w := doJSON(t, srv, http.MethodPost, "/api/session", map[string]string{
		"problem": "Reverse a linked list",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "What does the problem ask?", body["initialGuidance"])
	assert.NotEmpty(t, body["sessionId"])
}

func TestStartSessionRequiresProblem(t *testing.T) {
	srv := newTestServer(&fakeProvider{})

	w := doJSON(t, srv, http.MethodPost, "/api/session", map[string]string{"language": "go"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeInvalidRequest, errorCode(t, w))
}

func TestStartSessionRejectsBadJSON(t *testing.T) {
	srv := newTestServer(&fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeInvalidRequest, errorCode(t, w))
}

func TestStartSessionProviderDown(t *testing.T) {
	srv := newTestServer(&fakeProvider{completeErr: provider.ErrUnavailable})

	w := doJSON(t, srv, http.MethodPost, "/api/session", map[string]string{"problem": "Two sum"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, ErrCodeProviderError, errorCode(t, w))
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(&fakeProvider{})

	w := doJSON(t, srv, http.MethodGet, "/api/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, w))
}

func TestListSessionsEmptyArray(t *testing.T) {
	srv := newTestServer(&fakeProvider{})

	w := doJSON(t, srv, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodDelete, "/api/session/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/session/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/session/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, string(types.StageProblemAnalysis), body["currentStage"])
	assert.Equal(t, float64(0), body["currentStageIndex"])
	assert.Equal(t, float64(5), body["totalStages"])
	assert.Equal(t, false, body["isLastStage"])
	assert.Equal(t, false, body["learningCompleted"])
	assert.Equal(t, true, body["canTransitionNext"])
	assert.Equal(t, false, body["canComplete"])
}

func TestAdvanceStageEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/stage/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, string(types.StageProblemAnalysis), body["previousStage"])
	assert.Equal(t, string(types.StageSolutionDesign), body["newStage"])
	assert.NotEmpty(t, body["transitionMessage"])
}

func TestAdvancePastTerminalStage(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	for i := 0; i < len(types.Stages)-1; i++ {
		w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/stage/next", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/stage/next", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrCodeInvalidStage, errorCode(t, w))
}

func TestCompleteFlow(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	// Too early
	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrCodeStagesRemaining, errorCode(t, w))

	for i := 0; i < len(types.Stages)-1; i++ {
		w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/stage/next", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["learningCompleted"])
	assert.NotEmpty(t, body["summary"])

	// Completion happens at most once.
	w = doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrCodeAlreadyCompleted, errorCode(t, w))
}

func TestExplainConceptEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{
		"guidance",
		"a pointer holds an address",
	}})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/session/"+id+"/explain/pointers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a pointer holds an address", decodeBody(t, w)["explanation"])
}

func TestHintEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{
		"guidance",
		"progress summary",
		"try a second pointer",
	}})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/hint", map[string]string{
		"hintRequest": "how do I track the previous node?",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "try a second pointer", decodeBody(t, w)["hint"])
}

func TestFeedbackEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{
		"guidance",
		"what about an empty list?",
	}})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/feedback", map[string]string{
		"code": "func reverse(l *Node) {}",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "what about an empty list?", decodeBody(t, w)["feedback"])

	// Feedback never moves the stage.
	w = doJSON(t, srv, http.MethodGet, "/api/session/"+id+"/status", nil)
	assert.Equal(t, string(types.StageProblemAnalysis), decodeBody(t, w)["currentStage"])
}

func TestFeedbackRequiresCode(t *testing.T) {
	srv := newTestServer(&fakeProvider{})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/feedback", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengeEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{
		"guidance",
		"Which call reverses?\nCORRECT_ANSWER: B\nEXPLANATION: reverse flips order.",
	}})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/session/"+id+"/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	challenge, ok := body["challenge"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Which call reverses?", challenge["challenge"])
	assert.Equal(t, "B", challenge["correct_answer"])
	assert.Equal(t, "reverse flips order.", challenge["explanation"])
}

func TestTurnsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProvider{completions: []string{"welcome aboard"}})
	id := createTestSession(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/session/"+id+"/turns", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var turns []types.Turn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turns))
	require.Len(t, turns, 1)
	assert.Equal(t, types.RoleTutor, turns[0].Role)
	assert.Equal(t, "welcome aboard", turns[0].Text)
}
