package workers

import (
	"context"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/metrics"

	"gorm.io/gorm"
)

const resetTokenSweeperName = "reset_token_sweeper"

// resetTokenStore - часть UserRepository, которая нужна воркеру
type resetTokenStore interface {
	ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error)
}

// ResetTokenSweeper стирает просроченные токены сброса пароля.
// Просроченный токен и так не принимается, воркер только чистит таблицу.
type ResetTokenSweeper struct {
	db       *gorm.DB
	users    resetTokenStore
	interval time.Duration
	now      func() time.Time
}

func NewResetTokenSweeper(db *gorm.DB, users resetTokenStore, interval time.Duration) *ResetTokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ResetTokenSweeper{db: db, users: users, interval: interval, now: time.Now}
}

// Start запускает воркер в отдельной горутине
func (w *ResetTokenSweeper) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ResetTokenSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reset token sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep - один проход, возвращает число очищенных пользователей
func (w *ResetTokenSweeper) Sweep() (int64, error) {
	affected, err := w.users.ClearExpiredResetTokens(w.db, w.now())
	metrics.RecordWorkerRun(resetTokenSweeperName, err)
	if err != nil || affected > 0 {
		logger.WorkerLog(resetTokenSweeperName, "clear_expired_reset_tokens", affected, err)
	}
	return affected, err
}
