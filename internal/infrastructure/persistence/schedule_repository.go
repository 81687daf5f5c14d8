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

// ScheduleRepository handles database operations for scheduled tasks
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, project_id, task_type, playbook_key, cron_expr, timezone,
	is_running, enabled, last_run_at, next_run_at, created_at, updated_at`

// Insert creates a new scheduled task and returns its ID
func (r *ScheduleRepository) Insert(ctx context.Context, t *models.ScheduledTask) (string, error) {
	if t.ID == "" {
		t.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, task_type, playbook_key, cron_expr, timezone, is_running, enabled, next_run_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, NOW(), NOW())
	`, constants.TableScheduledTask)

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ProjectID, t.TaskType, t.PlaybookKey, t.CronExpr, t.Timezone, t.Enabled, t.NextRunAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert scheduled task: %w", err)
	}
	return t.ID, nil
}

// ListEnabled retrieves all enabled tasks across projects
func (r *ScheduleRepository) ListEnabled(ctx context.Context) ([]*models.ScheduledTask, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE enabled = 1", scheduleColumns, constants.TableScheduledTask)
	return r.queryTasks(ctx, query)
}

// ListByProject retrieves all tasks for a project
func (r *ScheduleRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ScheduledTask, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ? ORDER BY created_at ASC", scheduleColumns, constants.TableScheduledTask)
	return r.queryTasks(ctx, query, projectID)
}

// Delete removes a task by ID within a project
func (r *ScheduleRepository) Delete(ctx context.Context, projectID, taskID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND project_id = ?", constants.TableScheduledTask)
	res, err := r.db.ExecContext(ctx, query, taskID, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AcquireLock atomically sets is_running = 1 if not already running
func (r *ScheduleRepository) AcquireLock(ctx context.Context, taskID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_running = 1
		WHERE id = ? AND is_running = 0
	`, constants.TableScheduledTask)

	result, err := r.db.ExecContext(ctx, query, taskID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ReleaseLock sets is_running = 0
func (r *ScheduleRepository) ReleaseLock(ctx context.Context, taskID string) error {
	query := fmt.Sprintf("UPDATE %s SET is_running = 0 WHERE id = ?", constants.TableScheduledTask)
	_, err := r.db.ExecContext(ctx, query, taskID)
	return err
}

// UpdateRunTimes records the last execution and the computed next run
func (r *ScheduleRepository) UpdateRunTimes(ctx context.Context, taskID string, lastRun, nextRun time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_run_at = ?, next_run_at = ?, updated_at = NOW() WHERE id = ?", constants.TableScheduledTask)
	_, err := r.db.ExecContext(ctx, query, lastRun, nextRun, taskID)
	return err
}

func (r *ScheduleRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*models.ScheduledTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ScheduledTask
	for rows.Next() {
		var t models.ScheduledTask
		var playbookKey, timezone sql.NullString
		var lastRun, nextRun sql.NullTime
		var createdRaw, updatedRaw []byte

		err := rows.Scan(&t.ID, &t.ProjectID, &t.TaskType, &playbookKey, &t.CronExpr,
			&timezone, &t.IsRunning, &t.Enabled, &lastRun, &nextRun, &createdRaw, &updatedRaw)
		if err != nil {
			return nil, err
		}

		t.PlaybookKey = playbookKey.String
		t.Timezone = timezone.String
		t.LastRunAt = nullTimePtr(lastRun)
		t.NextRunAt = nullTimePtr(nextRun)
		t.CreatedAt = parseTime(createdRaw)
		t.UpdatedAt = parseTime(updatedRaw)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
