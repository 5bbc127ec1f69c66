package domain

// QuizPhase is the lifecycle of a user's quiz run.
type QuizPhase string

const (
	QuizNotStarted QuizPhase = "not_started"
	QuizInProgress QuizPhase = "in_progress"
	QuizCompleted  QuizPhase = "completed"
)

// QuizQuestion is one fixed multiple-choice question. AnswerIndex points
// into Options and is never serialized to clients.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"-"`
}

// DefaultQuizQuestions is the shipped question set.
func DefaultQuizQuestions() []QuizQuestion {
	return []QuizQuestion{
		{
			Question:    "What is the capital of India?",
			Options:     []string{"Mumbai", "Delhi", "Kolkata", "Hyderabad"},
			AnswerIndex: 1,
		},
		{
			Question:    "Which planet is known as the Red Planet?",
			Options:     []string{"Earth", "Venus", "Mars", "Jupiter"},
			AnswerIndex: 2,
		},
		{
			Question:    "What is the square root of 64?",
			Options:     []string{"6", "7", "8", "9"},
			AnswerIndex: 2,
		},
	}
}

// QuizSnapshot is the render-ready view of a user's quiz state. The
// current question is embedded so the client never sees other questions
// or the answer key.
type QuizSnapshot struct {
	Phase          QuizPhase `json:"phase"`
	QuestionIndex  int       `json:"question_index"`
	QuestionCount  int       `json:"question_count"`
	Question       string    `json:"question,omitempty"`
	Options        []string  `json:"options,omitempty"`
	SelectedOption *int      `json:"selected_option,omitempty"`
	TokenAwarded   bool      `json:"token_awarded"`
}

// QuizAdvanceResult reports the outcome of an advance intent.
type QuizAdvanceResult struct {
	Correct  bool         `json:"correct"`
	Snapshot QuizSnapshot `json:"snapshot"`
}
