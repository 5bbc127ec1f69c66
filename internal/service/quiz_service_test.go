package service

import (
	"context"
	"errors"
	"testing"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQuiz(t *testing.T) (*QuizService, *LedgerService, *repository.MemoryProfileRepository) {
	t.Helper()
	ledger, repo := newTestLedger(t)
	quiz := NewQuizService(ledger, domain.DefaultQuizQuestions(), 1, zap.NewNop())
	return quiz, ledger, repo
}

// completeQuiz answers every question correctly from the current state.
func completeQuiz(t *testing.T, quiz *QuizService, userID string) domain.QuizAdvanceResult {
	t.Helper()
	questions := domain.DefaultQuizQuestions()

	var result domain.QuizAdvanceResult
	for i := range questions {
		_, err := quiz.Select(userID, questions[i].AnswerIndex)
		require.NoError(t, err)

		var advErr error
		result, advErr = quiz.Advance(context.Background(), userID)
		require.NoError(t, advErr)
		require.True(t, result.Correct)
	}
	return result
}

func TestQuizStart(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)

	snap := quiz.Start("u-1")

	assert.Equal(t, domain.QuizInProgress, snap.Phase)
	assert.Equal(t, 0, snap.QuestionIndex)
	assert.Equal(t, 3, snap.QuestionCount)
	assert.NotEmpty(t, snap.Question)
	assert.Len(t, snap.Options, 4)
	assert.Nil(t, snap.SelectedOption)
	assert.False(t, snap.TokenAwarded)
}

func TestQuizInitialSnapshotNotStarted(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)

	snap := quiz.Snapshot("u-1")

	assert.Equal(t, domain.QuizNotStarted, snap.Phase)
	assert.Empty(t, snap.Question)
}

func TestQuizSelectRecordsOption(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)
	quiz.Start("u-1")

	snap, err := quiz.Select("u-1", 1)
	require.NoError(t, err)

	require.NotNil(t, snap.SelectedOption)
	assert.Equal(t, 1, *snap.SelectedOption)
	// Selecting never advances.
	assert.Equal(t, 0, snap.QuestionIndex)
}

func TestQuizSelectValidation(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)

	_, err := quiz.Select("u-1", 0)
	assert.ErrorIs(t, err, domain.ErrQuizNotInProgress)

	quiz.Start("u-1")

	_, err = quiz.Select("u-1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	_, err = quiz.Select("u-1", 4)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestQuizAdvanceWithoutSelection(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)
	quiz.Start("u-1")

	_, err := quiz.Advance(context.Background(), "u-1")
	assert.ErrorIs(t, err, domain.ErrNoOptionSelected)
}

func TestQuizWrongAnswerKeepsQuestion(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)
	quiz.Start("u-1")

	// Question 0 answer is Delhi (index 1); pick Mumbai.
	_, err := quiz.Select("u-1", 0)
	require.NoError(t, err)

	result, err := quiz.Advance(context.Background(), "u-1")
	require.NoError(t, err)

	assert.False(t, result.Correct)
	assert.Equal(t, domain.QuizInProgress, result.Snapshot.Phase)
	assert.Equal(t, 0, result.Snapshot.QuestionIndex)
	// The selection is cleared for the retry.
	assert.Nil(t, result.Snapshot.SelectedOption)

	// Correct answer proceeds after the retry.
	_, err = quiz.Select("u-1", 1)
	require.NoError(t, err)
	result, err = quiz.Advance(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.Snapshot.QuestionIndex)
}

func TestQuizCompletionCreditsRewardOnce(t *testing.T) {
	quiz, ledger, _ := newTestQuiz(t)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	quiz.Start("u-1")
	result := completeQuiz(t, quiz, "u-1")

	assert.Equal(t, domain.QuizCompleted, result.Snapshot.Phase)
	assert.True(t, result.Snapshot.TokenAwarded)

	snap, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Tokens)

	// Advancing past completion is rejected and credits nothing.
	_, err = quiz.Advance(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrQuizNotInProgress)

	snap, err = ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Tokens)
}

func TestQuizRestartAllowsNewRun(t *testing.T) {
	quiz, ledger, _ := newTestQuiz(t)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	quiz.Start("u-1")
	completeQuiz(t, quiz, "u-1")

	snap := quiz.Restart("u-1")
	assert.Equal(t, domain.QuizNotStarted, snap.Phase)
	assert.False(t, snap.TokenAwarded)

	// A fresh run earns a fresh reward.
	quiz.Start("u-1")
	completeQuiz(t, quiz, "u-1")

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, balance.Tokens)
}

func TestQuizCreditFailureLeavesRunRetryable(t *testing.T) {
	quiz, ledger, repo := newTestQuiz(t)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	questions := domain.DefaultQuizQuestions()
	quiz.Start("u-1")
	for i := 0; i < len(questions)-1; i++ {
		_, err := quiz.Select("u-1", questions[i].AnswerIndex)
		require.NoError(t, err)
		_, err = quiz.Advance(ctx, "u-1")
		require.NoError(t, err)
	}

	last := len(questions) - 1
	_, err = quiz.Select("u-1", questions[last].AnswerIndex)
	require.NoError(t, err)

	repo.FailNextWrite(errors.New("connection reset"))
	_, err = quiz.Advance(ctx, "u-1")
	require.Error(t, err)

	// The run stays on the last question with the award guard released.
	snap := quiz.Snapshot("u-1")
	assert.Equal(t, domain.QuizInProgress, snap.Phase)
	assert.Equal(t, last, snap.QuestionIndex)
	assert.False(t, snap.TokenAwarded)

	// Retrying succeeds and credits exactly once.
	_, err = quiz.Select("u-1", questions[last].AnswerIndex)
	require.NoError(t, err)
	result, err := quiz.Advance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.QuizCompleted, result.Snapshot.Phase)

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, balance.Tokens)
}

func TestQuizResetDropsState(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)

	quiz.Start("u-1")
	_, err := quiz.Select("u-1", 1)
	require.NoError(t, err)

	quiz.Reset("u-1")

	snap := quiz.Snapshot("u-1")
	assert.Equal(t, domain.QuizNotStarted, snap.Phase)
	assert.Equal(t, 0, snap.QuestionIndex)
}

func TestQuizSubscribeReceivesTransitions(t *testing.T) {
	quiz, _, _ := newTestQuiz(t)

	updates, cancel := quiz.Subscribe("u-1")
	defer cancel()

	quiz.Start("u-1")

	select {
	case snap := <-updates:
		assert.Equal(t, domain.QuizInProgress, snap.Phase)
	default:
		t.Fatal("expected a broadcast after start")
	}
}
