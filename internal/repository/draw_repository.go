package repository

import (
	"context"
	"fmt"

	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/database"
)

type PostgresDrawRepository struct {
	db *database.PostgresDB
}

func NewDrawRepository(db *database.PostgresDB) *PostgresDrawRepository {
	return &PostgresDrawRepository{db: db}
}

// ListActive returns the active draws in catalog order
func (r *PostgresDrawRepository) ListActive(ctx context.Context) ([]domain.Draw, error) {
	query := `
		SELECT id, prize, token_cost
		FROM draws
		WHERE is_active = true
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	defer rows.Close()

	draws := []domain.Draw{}
	for rows.Next() {
		var draw domain.Draw
		if err := rows.Scan(&draw.ID, &draw.Prize, &draw.TokenCost); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	return draws, rows.Err()
}
