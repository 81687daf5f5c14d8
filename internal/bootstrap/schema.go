package bootstrap

import (
	"fmt"
	"log"

	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/pkg/constants"
)

// tableDDL maps table names to their CREATE TABLE statements. Order matters:
// referencing tables come after the tables they point at.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{constants.TableUser, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableUser + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'member',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE KEY uk_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableSession, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableSession + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			ip_address VARCHAR(64) NOT NULL DEFAULT '',
			user_agent VARCHAR(512) NOT NULL DEFAULT '',
			is_revoked TINYINT(1) NOT NULL DEFAULT 0,
			last_activity DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			KEY idx_sessions_user (user_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableProject, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableProject + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			shop_domain VARCHAR(255) NOT NULL,
			plan VARCHAR(32) NOT NULL DEFAULT 'free',
			owner_id CHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_projects_owner (owner_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableIntegration, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableIntegration + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			provider VARCHAR(32) NOT NULL,
			shop_domain VARCHAR(255) NOT NULL,
			access_token VARCHAR(512) NOT NULL,
			status VARCHAR(32) NOT NULL,
			connected_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE KEY uk_integrations_project_provider (project_id, provider)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableCrawlResult, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableCrawlResult + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			scope_type VARCHAR(32) NOT NULL,
			scope_id VARCHAR(64) NOT NULL,
			handle VARCHAR(255) NOT NULL,
			title VARCHAR(512) NOT NULL DEFAULT '',
			description TEXT,
			body MEDIUMTEXT,
			url VARCHAR(1024) NOT NULL DEFAULT '',
			seo_title VARCHAR(512) NOT NULL DEFAULT '',
			seo_description TEXT,
			crawled_at DATETIME NOT NULL,
			UNIQUE KEY uk_crawl_scope (project_id, scope_type, scope_id),
			KEY idx_crawl_handle (project_id, scope_type, handle)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableIssue, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableIssue + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			crawl_result_id CHAR(36) NOT NULL,
			playbook_key VARCHAR(64) NOT NULL,
			scope_type VARCHAR(32) NOT NULL,
			scope_id VARCHAR(64) NOT NULL,
			handle VARCHAR(255) NOT NULL,
			severity VARCHAR(16) NOT NULL,
			field VARCHAR(64) NOT NULL,
			message VARCHAR(512) NOT NULL,
			status VARCHAR(16) NOT NULL,
			detected_at DATETIME NOT NULL,
			resolved_at DATETIME NULL,
			UNIQUE KEY uk_issue_scope (project_id, playbook_key, scope_type, scope_id),
			KEY idx_issues_open (project_id, status, playbook_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TablePlaybookRun, `
		CREATE TABLE IF NOT EXISTS ` + constants.TablePlaybookRun + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			playbook_key VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			rules_hash CHAR(64) NOT NULL,
			scope_type VARCHAR(32) NOT NULL,
			total_items INT NOT NULL DEFAULT 0,
			processed_items INT NOT NULL DEFAULT 0,
			succeeded_items INT NOT NULL DEFAULT 0,
			failed_items INT NOT NULL DEFAULT 0,
			drafts_reused INT NOT NULL DEFAULT 0,
			ai_generated INT NOT NULL DEFAULT 0,
			error_message TEXT,
			requested_by VARCHAR(64) NOT NULL DEFAULT '',
			started_at DATETIME NULL,
			finished_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_runs_active (project_id, playbook_key, status),
			KEY idx_runs_history (project_id, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TablePlaybookDraft, `
		CREATE TABLE IF NOT EXISTS ` + constants.TablePlaybookDraft + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			playbook_key VARCHAR(64) NOT NULL,
			scope_type VARCHAR(32) NOT NULL,
			scope_id VARCHAR(64) NOT NULL,
			handle VARCHAR(255) NOT NULL,
			field VARCHAR(64) NOT NULL,
			work_key CHAR(64) NOT NULL,
			current_value MEDIUMTEXT,
			suggested_value MEDIUMTEXT,
			status VARCHAR(16) NOT NULL,
			model VARCHAR(64) NOT NULL DEFAULT '',
			run_id CHAR(36) NULL,
			applied_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_drafts_work_key (project_id, work_key, status),
			KEY idx_drafts_list (project_id, playbook_key, status, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableAiUsageEvent, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableAiUsageEvent + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			run_id CHAR(36) NULL,
			playbook_key VARCHAR(64) NOT NULL,
			model VARCHAR(64) NOT NULL,
			operation VARCHAR(32) NOT NULL,
			input_tokens INT NOT NULL DEFAULT 0,
			output_tokens INT NOT NULL DEFAULT 0,
			occurred_at DATETIME NOT NULL,
			KEY idx_usage_period (project_id, operation, occurred_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableJob, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableJob + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			queue VARCHAR(64) NOT NULL,
			payload JSON NOT NULL,
			status VARCHAR(16) NOT NULL,
			retry_count INT NOT NULL DEFAULT 0,
			error_message TEXT,
			scheduled_at DATETIME NOT NULL,
			processed_at DATETIME NULL,
			KEY idx_jobs_pending (queue, status, scheduled_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},

	{constants.TableScheduledTask, `
		CREATE TABLE IF NOT EXISTS ` + constants.TableScheduledTask + ` (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			task_type VARCHAR(32) NOT NULL,
			playbook_key VARCHAR(64) NULL,
			cron_expr VARCHAR(128) NOT NULL,
			timezone VARCHAR(64) NULL,
			is_running TINYINT(1) NOT NULL DEFAULT 0,
			enabled TINYINT(1) NOT NULL DEFAULT 1,
			last_run_at DATETIME NULL,
			next_run_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_schedules_project (project_id),
			KEY idx_schedules_due (enabled, next_run_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// InitializeSchema creates every table the backend needs. Statements are
// idempotent so startup is safe against an existing database.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing schema...")

	for _, t := range tableDDL {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	log.Printf("✅ Schema ready (%d tables)", len(tableDDL))
	return nil
}
