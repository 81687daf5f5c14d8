package main

import (
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Development helper that drops every EngineO table. Refuses to run unless
// ENGINEO_WIPE_CONFIRM=yes.
func main() {
	paths := []string{"../.env", ".env", "../../.env"}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded .env from %s", p)
			break
		}
	}

	if os.Getenv("ENGINEO_WIPE_CONFIRM") != "yes" {
		log.Fatal("Refusing to wipe: set ENGINEO_WIPE_CONFIRM=yes")
	}

	host := os.Getenv("ENGINEO_DB_HOST")
	port := os.Getenv("ENGINEO_DB_PORT")
	user := os.Getenv("ENGINEO_DB_USER")
	password := os.Getenv("ENGINEO_DB_PASSWORD")
	database := os.Getenv("ENGINEO_DB_NAME")

	if port == "" {
		port = "3306"
	}
	if database == "" {
		database = "engineo"
	}

	// TLS for managed MySQL hosts
	if err := mysql.RegisterTLSConfig("engineo", &tls.Config{MinVersion: tls.VersionTLS12}); err != nil {
		log.Fatalf("failed to register tls config: %v", err)
	}
	tlsParam := "&tls=engineo"
	if host == "127.0.0.1" || host == "localhost" {
		tlsParam = ""
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local%s",
		user, password, host, port, database, tlsParam)

	if host == "" || user == "" {
		log.Println("Warning: ENGINEO_DB_HOST or ENGINEO_DB_USER not set, connection might fail")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	tables := []string{
		"scheduled_tasks",
		"jobs",
		"ai_usage_events",
		"automation_playbook_drafts",
		"automation_playbook_runs",
		"issues",
		"crawl_results",
		"integrations",
		"projects",
		"sessions",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			log.Printf("⚠️ Failed to drop %s: %v", table, err)
			continue
		}
		log.Printf("🗑️ Dropped %s", table)
	}

	log.Println("✅ Database wiped")
}
