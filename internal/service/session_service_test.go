package service

import (
	"context"
	"testing"
	"time"

	"luckydraw-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T) (*SessionService, *LedgerService, *QuizService, *RewardService) {
	t.Helper()
	ledger, _ := newTestLedger(t)
	quiz := NewQuizService(ledger, domain.DefaultQuizQuestions(), 1, zap.NewNop())
	reward := NewRewardService(ledger, nil, 5, 1800*time.Second, zap.NewNop())
	cache := NewCacheService(nil, zap.NewNop())
	session := NewSessionService(ledger, quiz, reward, cache, 0, zap.NewNop())
	return session, ledger, quiz, reward
}

func TestSessionSignInOpensLedger(t *testing.T) {
	session, ledger, _, _ := newTestSession(t)
	ctx := context.Background()

	snap, err := session.SignIn(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Tokens)

	fromLedger, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, snap.UserID, fromLedger.UserID)
}

func TestSessionSignInResetsTransientState(t *testing.T) {
	session, _, quiz, _ := newTestSession(t)
	ctx := context.Background()

	_, err := session.SignIn(ctx, testIdentity("u-1"))
	require.NoError(t, err)

	quiz.Start("u-1")
	require.Equal(t, domain.QuizInProgress, quiz.Snapshot("u-1").Phase)

	// Re-auth wipes the half-finished run.
	_, err = session.SignIn(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.QuizNotStarted, quiz.Snapshot("u-1").Phase)
}

func TestSessionSignOutMakesLedgerInert(t *testing.T) {
	session, ledger, _, _ := newTestSession(t)
	ctx := context.Background()

	_, err := session.SignIn(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, "u-1", 3)
	require.NoError(t, err)

	session.SignOut(ctx, "u-1")

	_, err = ledger.Credit(ctx, "u-1", 1)
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)

	// The balance survives sign-out and the next sign-in sees it.
	snap, err := session.SignIn(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Tokens)
}

func TestSessionEnsureOpen(t *testing.T) {
	session, ledger, _, _ := newTestSession(t)
	ctx := context.Background()

	// No explicit sign-in: the first bearer-token request opens a session.
	snap, err := session.EnsureOpen(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", snap.UserID)

	_, err = ledger.Credit(ctx, "u-1", 2)
	require.NoError(t, err)

	// An open session is reused, not reopened.
	snap, err = session.EnsureOpen(ctx, testIdentity("u-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Tokens)
}
