package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/citypulse/internal/models"
)

// ExclusionRepository persists per-user exclusion rules.
type ExclusionRepository struct {
	db *sql.DB
}

func NewExclusionRepository(db *sql.DB) *ExclusionRepository {
	return &ExclusionRepository{db: db}
}

// List returns a user's rules, newest first.
func (r *ExclusionRepository) List(ctx context.Context, userID string) ([]models.ExclusionRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, rule_type, value, created_at
		FROM exclusion_rules WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusion rules: %w", err)
	}
	defer rows.Close()

	rules := []models.ExclusionRule{}
	for rows.Next() {
		var rule models.ExclusionRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Type, &rule.Value, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclusion rules: %w", err)
	}
	return rules, nil
}

// Add inserts a rule; duplicate (type, value) pairs for a user are ignored.
func (r *ExclusionRepository) Add(ctx context.Context, rule *models.ExclusionRule) error {
	if !models.ValidExclusionType(rule.Type) {
		return fmt.Errorf("invalid exclusion type %q", rule.Type)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exclusion_rules (id, user_id, rule_type, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, rule_type, value) DO NOTHING
	`, rule.ID, rule.UserID, rule.Type, rule.Value, rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add exclusion rule: %w", err)
	}
	return nil
}

// Delete removes a rule owned by the user.
func (r *ExclusionRepository) Delete(ctx context.Context, userID, ruleID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM exclusion_rules WHERE id = $1 AND user_id = $2
	`, ruleID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete exclusion rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("exclusion rule %s not found", ruleID)
	}
	return nil
}
