// Package types provides the core data types for the codementor server.
package types

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

// Turn is one role-attributed message in a session's conversation history.
// Turns are immutable once appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Stage is one step of the fixed five-step pedagogical progression.
type Stage string

const (
	StageProblemAnalysis   Stage = "problem_analysis"
	StageSolutionDesign    Stage = "solution_design"
	StageImplementation    Stage = "implementation"
	StageTestingRefinement Stage = "testing_refinement"
	StageReflection        Stage = "reflection"
)

// Stages lists the learning stages in progression order.
var Stages = []Stage{
	StageProblemAnalysis,
	StageSolutionDesign,
	StageImplementation,
	StageTestingRefinement,
	StageReflection,
}

// Index returns the zero-based position of s in the progression,
// or -1 if s is not a known stage.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether s is the last stage of the progression.
func (s Stage) IsTerminal() bool {
	return s == Stages[len(Stages)-1]
}

// Next returns the stage that follows s. At the terminal stage it
// returns s unchanged and false.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i >= len(Stages)-1 {
		return s, false
	}
	return Stages[i+1], true
}

// SessionInfo is the wire representation of a session's state.
type SessionInfo struct {
	ID         string `json:"id"`
	Problem    string `json:"problem"`
	Language   string `json:"language"`
	SkillLevel string `json:"skillLevel"`
	Model      string `json:"model"`
	Stage      Stage  `json:"stage"`
	Completed  bool   `json:"completed"`
	Turns      int    `json:"turns"`
	Time       SessionTime `json:"time"`
}

// SessionTime contains timestamps for a session, in Unix milliseconds.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// StageStatus describes where a session sits in the learning progression.
type StageStatus struct {
	Stage       Stage `json:"currentStage"`
	StageIndex  int   `json:"currentStageIndex"`
	TotalStages int   `json:"totalStages"`
	IsLast      bool  `json:"isLastStage"`
	Completed   bool  `json:"learningCompleted"`
	CanAdvance  bool  `json:"canTransitionNext"`
	CanComplete bool  `json:"canComplete"`
}

// Challenge is a mini coding challenge extracted from a tagged provider
// response. Absent tags leave the corresponding field empty; callers must
// tolerate empty fields.
type Challenge struct {
	Challenge     string `json:"challenge"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}
