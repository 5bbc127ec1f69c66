package service

import (
	"context"
	"sync"

	"luckydraw-api/internal/domain"

	"go.uber.org/zap"
)

// QuizService runs the fixed-sequence quiz per user. An answer must be
// correct to advance; completing the last question credits the reward
// exactly once per completion. Quiz state is transient: it lives only
// for the session and is reset on sign-in and sign-out.
type QuizService struct {
	ledger       *LedgerService
	logger       *zap.Logger
	questions    []domain.QuizQuestion
	rewardTokens int

	mu       sync.Mutex
	sessions map[string]*quizSession
}

type quizSession struct {
	mu          sync.Mutex
	phase       domain.QuizPhase
	index       int
	selected    *int
	awarded     bool
	subscribers map[chan domain.QuizSnapshot]struct{}
}

func NewQuizService(ledger *LedgerService, questions []domain.QuizQuestion, rewardTokens int, logger *zap.Logger) *QuizService {
	return &QuizService{
		ledger:       ledger,
		logger:       logger,
		questions:    questions,
		rewardTokens: rewardTokens,
		sessions:     make(map[string]*quizSession),
	}
}

// Start begins a run: NotStarted -> InProgress(0). Selection and the
// award guard are reset. Starting an in-progress or completed run
// restarts it from the first question.
func (s *QuizService) Start(userID string) domain.QuizSnapshot {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	session.phase = domain.QuizInProgress
	session.index = 0
	session.selected = nil
	session.awarded = false

	snap := s.snapshotLocked(session)
	session.broadcastLocked(snap)
	return snap
}

// Select records the chosen option for the current question. It never
// advances.
func (s *QuizService) Select(userID string, option int) (domain.QuizSnapshot, error) {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.phase != domain.QuizInProgress {
		return s.snapshotLocked(session), domain.ErrQuizNotInProgress
	}
	if option < 0 || option >= len(s.questions[session.index].Options) {
		return s.snapshotLocked(session), domain.ErrInvalidOption
	}

	selected := option
	session.selected = &selected

	snap := s.snapshotLocked(session)
	session.broadcastLocked(snap)
	return snap, nil
}

// Advance moves to the next question when the selection is correct; a
// wrong selection keeps the question and clears the selection (the
// try-again outcome, Correct=false, not an error). Advancing past the
// last question completes the run and credits the reward once.
func (s *QuizService) Advance(ctx context.Context, userID string) (domain.QuizAdvanceResult, error) {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.phase != domain.QuizInProgress {
		// Covers extra advance calls after Completed: rejected, and the
		// award guard makes a second credit impossible either way.
		return domain.QuizAdvanceResult{Snapshot: s.snapshotLocked(session)}, domain.ErrQuizNotInProgress
	}
	if session.selected == nil {
		return domain.QuizAdvanceResult{Snapshot: s.snapshotLocked(session)}, domain.ErrNoOptionSelected
	}

	question := s.questions[session.index]
	if *session.selected != question.AnswerIndex {
		session.selected = nil
		snap := s.snapshotLocked(session)
		session.broadcastLocked(snap)
		return domain.QuizAdvanceResult{Correct: false, Snapshot: snap}, nil
	}

	if session.index < len(s.questions)-1 {
		session.index++
		session.selected = nil
		snap := s.snapshotLocked(session)
		session.broadcastLocked(snap)
		return domain.QuizAdvanceResult{Correct: true, Snapshot: snap}, nil
	}

	// Last question answered correctly.
	session.phase = domain.QuizCompleted

	if !session.awarded {
		session.awarded = true
		if _, err := s.ledger.Credit(ctx, userID, s.rewardTokens); err != nil {
			// Leave the run on the last question so the award can be
			// retried; the guard is released with it.
			session.awarded = false
			session.phase = domain.QuizInProgress
			s.logger.Error("quiz reward credit failed",
				zap.String("user_id", userID),
				zap.Error(err))
			return domain.QuizAdvanceResult{Snapshot: s.snapshotLocked(session)}, err
		}
		s.logger.Info("quiz completed, reward credited",
			zap.String("user_id", userID),
			zap.Int("tokens", s.rewardTokens))
	}

	snap := s.snapshotLocked(session)
	session.broadcastLocked(snap)
	return domain.QuizAdvanceResult{Correct: true, Snapshot: snap}, nil
}

// Restart returns a completed (or abandoned) run to NotStarted. This is
// the only way out of Completed.
func (s *QuizService) Restart(userID string) domain.QuizSnapshot {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	session.phase = domain.QuizNotStarted
	session.index = 0
	session.selected = nil
	session.awarded = false

	snap := s.snapshotLocked(session)
	session.broadcastLocked(snap)
	return snap
}

// Snapshot returns the current quiz state for a user.
func (s *QuizService) Snapshot(userID string) domain.QuizSnapshot {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()
	return s.snapshotLocked(session)
}

// Subscribe returns a channel receiving a snapshot after every
// transition. The caller must invoke the cancel function.
func (s *QuizService) Subscribe(userID string) (<-chan domain.QuizSnapshot, func()) {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	ch := make(chan domain.QuizSnapshot, 8)
	session.subscribers[ch] = struct{}{}

	cancel := func() {
		session.mu.Lock()
		defer session.mu.Unlock()
		if _, ok := session.subscribers[ch]; ok {
			delete(session.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Reset drops all transient quiz state for a user (sign-out, re-auth).
func (s *QuizService) Reset(userID string) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return
	}

	session.mu.Lock()
	for ch := range session.subscribers {
		close(ch)
	}
	session.subscribers = make(map[chan domain.QuizSnapshot]struct{})
	session.mu.Unlock()
}

func (s *QuizService) getOrCreate(userID string) *quizSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		session = &quizSession{
			phase:       domain.QuizNotStarted,
			subscribers: make(map[chan domain.QuizSnapshot]struct{}),
		}
		s.sessions[userID] = session
	}
	return session
}

func (s *QuizService) snapshotLocked(session *quizSession) domain.QuizSnapshot {
	snap := domain.QuizSnapshot{
		Phase:         session.phase,
		QuestionIndex: session.index,
		QuestionCount: len(s.questions),
		TokenAwarded:  session.awarded,
	}
	if session.phase == domain.QuizInProgress {
		question := s.questions[session.index]
		snap.Question = question.Question
		snap.Options = append([]string(nil), question.Options...)
		if session.selected != nil {
			selected := *session.selected
			snap.SelectedOption = &selected
		}
	}
	return snap
}

func (qs *quizSession) broadcastLocked(snap domain.QuizSnapshot) {
	for ch := range qs.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
