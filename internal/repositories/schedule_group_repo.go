package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterline/rosterauth/internal/database"
	"github.com/rosterline/rosterauth/internal/models"
)

type ScheduleGroupRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleGroupRepository(db *database.DB) *ScheduleGroupRepository {
	return &ScheduleGroupRepository{pool: db.Pool}
}

func (r *ScheduleGroupRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.ScheduleGroup, error) {
	query := `
		SELECT g.group_id, g.name
		FROM account_schedule_groups ag
		JOIN schedule_groups g ON g.group_id = ag.group_id
		WHERE ag.user_id = $1
		ORDER BY g.name
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.ScheduleGroup, 0)
	for rows.Next() {
		var group models.ScheduleGroup
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, fmt.Errorf("failed to scan schedule group: %w", err)
		}
		groups = append(groups, &group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return groups, nil
}
