package models

// Step is the position of a chat in the goal creation dialog.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingCategory
	StepAwaitingGoalTitle
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingCategory:
		return "awaiting_category"
	case StepAwaitingGoalTitle:
		return "awaiting_goal_title"
	default:
		return "unknown"
	}
}

// Session is the conversational state of a single chat. CategoryID is only
// meaningful while Step is StepAwaitingGoalTitle.
type Session struct {
	Step       Step `json:"step"`
	CategoryID uint `json:"category_id,omitempty"`
}

func (s Session) Idle() bool {
	return s.Step == StepIdle
}
