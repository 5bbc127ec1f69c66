package repository

import (
	"context"
	"fmt"

	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresProfileRepository struct {
	db *database.PostgresDB
}

func NewProfileRepository(db *database.PostgresDB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetByUserID retrieves a profile by user ID
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	query := `
		SELECT user_id, email, display_name, tokens, entered_draws, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Email,
		&profile.DisplayName,
		&profile.Tokens,
		&profile.EnteredDraws,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if profile.EnteredDraws == nil {
		profile.EnteredDraws = []string{}
	}

	return &profile, nil
}

// Create creates a new profile record
func (r *PostgresProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, email, display_name, tokens, entered_draws)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Email,
		profile.DisplayName,
		profile.Tokens,
		profile.EnteredDraws,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err == pgx.ErrNoRows {
		// Concurrent first sign-in already created the record.
		existing, getErr := r.GetByUserID(ctx, profile.UserID)
		if getErr != nil {
			return getErr
		}
		if existing != nil {
			*profile = *existing
			return nil
		}
		return fmt.Errorf("failed to create profile: conflicting write")
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// AddTokens atomically increments the token balance
func (r *PostgresProfileRepository) AddTokens(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	query := `
		UPDATE profiles
		SET tokens = tokens + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING tokens
	`

	err := r.db.Pool.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, domain.ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add tokens: %w", err)
	}

	return balance, nil
}

// EnterDraw debits and records the entry in one statement. The WHERE
// clause is the remote guard: it re-checks balance and membership so a
// stale local snapshot can never drive tokens negative or double-enter.
func (r *PostgresProfileRepository) EnterDraw(ctx context.Context, userID, drawID string, cost int) (bool, error) {
	query := `
		UPDATE profiles
		SET tokens = tokens - $3,
		    entered_draws = array_append(entered_draws, $2),
		    updated_at = NOW()
		WHERE user_id = $1
		  AND tokens >= $3
		  AND NOT ($2 = ANY(entered_draws))
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, drawID, cost)
	if err != nil {
		return false, fmt.Errorf("failed to enter draw: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
