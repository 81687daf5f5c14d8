package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// UsageRepository handles database operations for AI usage events
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Insert records a usage event. The executor lets callers bill inside the
// same transaction that persists the draft the event pays for.
func (r *UsageRepository) Insert(ctx context.Context, exec Executor, e *models.AiUsageEvent) (string, error) {
	if e.ID == "" {
		e.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, run_id, playbook_key, model, operation, input_tokens, output_tokens, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())
	`, constants.TableAiUsageEvent)

	_, err := exec.ExecContext(ctx, query,
		e.ID, e.ProjectID, e.RunID, e.PlaybookKey, e.Model, e.Operation,
		e.InputTokens, e.OutputTokens,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert usage event: %w", err)
	}
	return e.ID, nil
}

// CountGenerationsSince counts billable generations for a project since the
// period start. Quota checks run against this number.
func (r *UsageRepository) CountGenerationsSince(ctx context.Context, projectID string, since time.Time) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE project_id = ? AND operation = ? AND occurred_at >= ?
	`, constants.TableAiUsageEvent)

	var count int
	err := r.db.QueryRowContext(ctx, query, projectID, constants.UsageOpGeneration, since).Scan(&count)
	return count, err
}

// SummarizeSince returns period totals and the per-playbook breakdown
func (r *UsageRepository) SummarizeSince(ctx context.Context, projectID string, since time.Time) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{
		ProjectID:   projectID,
		PeriodStart: since,
	}

	query := fmt.Sprintf(`
		SELECT playbook_key, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM %s
		WHERE project_id = ? AND operation = ? AND occurred_at >= ?
		GROUP BY playbook_key
		ORDER BY COUNT(*) DESC
	`, constants.TableAiUsageEvent)

	rows, err := r.db.QueryContext(ctx, query, projectID, constants.UsageOpGeneration, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.PlaybookUsage
		if err := rows.Scan(&u.PlaybookKey, &u.Generations, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, err
		}
		summary.ByPlaybook = append(summary.ByPlaybook, u)
		summary.Generations += u.Generations
		summary.InputTokens += u.InputTokens
		summary.OutputTokens += u.OutputTokens
	}
	return summary, rows.Err()
}
