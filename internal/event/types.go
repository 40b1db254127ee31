package event

import "github.com/codementor-ai/codementor/pkg/types"

// SessionCreatedData is the data for session.created events.
type SessionCreatedData struct {
	Info *types.SessionInfo `json:"info"`
}

// SessionDeletedData is the data for session.deleted events.
type SessionDeletedData struct {
	SessionID string `json:"sessionID"`
	Reason    string `json:"reason,omitempty"` // "deleted" | "idle"
}

// SessionCompletedData is the data for session.completed events.
type SessionCompletedData struct {
	Info *types.SessionInfo `json:"info"`
}

// StageAdvancedData is the data for stage.advanced events.
type StageAdvancedData struct {
	SessionID     string      `json:"sessionID"`
	PreviousStage types.Stage `json:"previousStage"`
	NewStage      types.Stage `json:"newStage"`
	StageIndex    int         `json:"stageIndex"`
	IsLast        bool        `json:"isLastStage"`
}

// TurnAppendedData is the data for turn.appended events.
type TurnAppendedData struct {
	SessionID string     `json:"sessionID"`
	Turn      types.Turn `json:"turn"`
	TurnCount int        `json:"turnCount"`
}

// StreamDeltaData is the data for stream.delta events.
type StreamDeltaData struct {
	SessionID string `json:"sessionID"`
	Delta     string `json:"delta"`
}

// StreamEndedData is the data for stream.ended events.
type StreamEndedData struct {
	SessionID string `json:"sessionID"`
	Text      string `json:"text"`
}

// StreamFailedData is the data for stream.failed events.
type StreamFailedData struct {
	SessionID string `json:"sessionID"`
	Error     string `json:"error"`
}
