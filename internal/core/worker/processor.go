package worker

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/notifications"
)

const maxAttempts = 5

// StartNotificationWorker drains committed ledger entries queued in
// webhook_jobs and posts them to the configured subscriber URL.
// Failed deliveries back off and retry up to maxAttempts.
func StartNotificationWorker(db *pgxpool.Pool, webhookURL string) {
	if webhookURL == "" {
		slog.Info("No WEBHOOK_URL configured, notification worker disabled")
		return
	}

	go func() {
		slog.Info("👷 Notification worker started")
		for {
			processJobs(db, webhookURL)
			time.Sleep(5 * time.Second)
		}
	}()
}

func processJobs(db *pgxpool.Pool, webhookURL string) {
	ctx := context.Background()

	// SKIP LOCKED lets multiple instances drain the queue without
	// stepping on each other.
	query := `
		SELECT j.id, j.attempts,
		       t.id, t.from_account_id, t.to_account_id, t.amount, t.status, t.created_at
		FROM webhook_jobs j
		JOIN transactions t ON t.id = j.transaction_id
		WHERE j.status = 'PENDING' AND j.next_run_at <= NOW()
		ORDER BY j.created_at ASC
		LIMIT 1
		FOR UPDATE OF j SKIP LOCKED
	`

	var (
		jobID    string
		attempts int
		payload  struct {
			TransactionID string    `json:"transaction_id"`
			FromAccountID *int64    `json:"from_account_id"`
			ToAccountID   *int64    `json:"to_account_id"`
			Amount        int64     `json:"amount"`
			Status        string    `json:"status"`
			CreatedAt     time.Time `json:"created_at"`
		}
	)

	err := db.QueryRow(ctx, query).Scan(&jobID, &attempts,
		&payload.TransactionID, &payload.FromAccountID, &payload.ToAccountID,
		&payload.Amount, &payload.Status, &payload.CreatedAt)
	if err != nil {
		return
	}

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		slog.Warn("⚠️ WEBHOOK_SECRET is missing in .env, using default insecure key")
		secret = "default_insecure_key"
	}

	sendErr := notifications.SendWebhook(webhookURL, payload, secret)

	if sendErr != nil {
		slog.Error("Worker: notification failed", "error", sendErr, "attempts", attempts)
		nextRun := time.Now().Add(time.Duration(attempts*10+10) * time.Second)

		if attempts >= maxAttempts {
			db.Exec(ctx, "UPDATE webhook_jobs SET status = 'FAILED' WHERE id = $1", jobID)
			slog.Error("Worker: job marked as FAILED (max attempts reached)", "job_id", jobID)
		} else {
			db.Exec(ctx, "UPDATE webhook_jobs SET status = 'PENDING', attempts = attempts + 1, next_run_at = $2 WHERE id = $1", jobID, nextRun)
			slog.Info("Worker: scheduled retry", "next_run", nextRun)
		}
	} else {
		slog.Info("✅ Worker: notification sent", "job_id", jobID)
		db.Exec(ctx, "UPDATE webhook_jobs SET status = 'COMPLETED' WHERE id = $1", jobID)
	}
}
