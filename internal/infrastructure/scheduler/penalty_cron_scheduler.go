package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appbilling "github.com/rentledger/backend/internal/application/billing"
)

// cronTickerInterval is the interval at which the cron scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// RunStatus represents the status of an accrual run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// AccrualRunner executes a penalty accrual batch over all overdue bills
type AccrualRunner interface {
	RunBatch(ctx context.Context, now time.Time) (*appbilling.BatchResult, error)
}

// PenaltyCronSchedulerConfig holds configuration for the cron-based accrual scheduler
type PenaltyCronSchedulerConfig struct {
	// Enabled indicates if the cron scheduler is enabled
	Enabled bool
	// RunHour is the hour (0-23) to run the daily accrual
	RunHour int
	// RunMinute is the minute (0-59) to run the daily accrual
	RunMinute int
	// DailyCronSchedule is the cron expression (parsed to extract hour/minute)
	DailyCronSchedule string
	// RunTimeout is the maximum time a single accrual run can take
	RunTimeout time.Duration
}

// DefaultPenaltyCronSchedulerConfig returns default cron scheduler configuration
// Defaults to running at 2:00 AM daily
func DefaultPenaltyCronSchedulerConfig() PenaltyCronSchedulerConfig {
	return PenaltyCronSchedulerConfig{
		Enabled:           true,
		RunHour:           2,
		RunMinute:         0,
		DailyCronSchedule: "0 2 * * *",
		RunTimeout:        30 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute
// Returns defaults (2:00) if parsing fails or expression is empty
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 2
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 2); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 2, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 2, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// AccrualRunRecord represents a record of an accrual run execution
type AccrualRunRecord struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Status           string     `gorm:"column:status;size:20"`
	Error            string     `gorm:"column:error;type:text"`
	ProcessedBills   int        `gorm:"column:processed_bills"`
	PenaltiesApplied int        `gorm:"column:penalties_applied"`
	FailedBills      int        `gorm:"column:failed_bills"`
	StartedAt        *time.Time `gorm:"column:started_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (AccrualRunRecord) TableName() string {
	return "penalty_accrual_runs"
}

// AccrualRunRepository handles persistence of accrual run records
type AccrualRunRepository struct {
	db *gorm.DB
}

// NewAccrualRunRepository creates a new AccrualRunRepository
func NewAccrualRunRepository(db *gorm.DB) *AccrualRunRepository {
	return &AccrualRunRepository{db: db}
}

// RecordRunStart records the start of an accrual run
func (r *AccrualRunRepository) RecordRunStart(ctx context.Context) (uuid.UUID, error) {
	now := time.Now()
	record := &AccrualRunRecord{
		ID:        uuid.New(),
		Status:    string(RunStatusRunning),
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordRunComplete records the completion of an accrual run
func (r *AccrualRunRepository) RecordRunComplete(ctx context.Context, runID uuid.UUID, result *appbilling.BatchResult, runErr error) error {
	now := time.Now()
	updates := map[string]any{
		"status":       string(RunStatusSuccess),
		"completed_at": now,
		"updated_at":   now,
	}
	if runErr != nil {
		updates["status"] = string(RunStatusFailed)
		updates["error"] = runErr.Error()
	}
	if result != nil {
		updates["processed_bills"] = result.ProcessedBills
		updates["penalties_applied"] = result.PenaltiesApplied
		updates["failed_bills"] = len(result.Failed)
	}
	return r.db.WithContext(ctx).
		Model(&AccrualRunRecord{}).
		Where("id = ?", runID).
		Updates(updates).Error
}

// GetLastRun returns the most recent accrual run record
func (r *AccrualRunRepository) GetLastRun(ctx context.Context) (*AccrualRunRecord, error) {
	var record AccrualRunRecord
	if err := r.db.WithContext(ctx).Order("started_at DESC").First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// PenaltyCronScheduler runs the daily penalty accrual batch on a fixed schedule
type PenaltyCronScheduler struct {
	config  PenaltyCronSchedulerConfig
	runner  AccrualRunner
	runRepo *AccrualRunRepository
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	accruing  bool

	// Last execution tracking
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewPenaltyCronScheduler creates a new cron-based accrual scheduler
func NewPenaltyCronScheduler(
	config PenaltyCronSchedulerConfig,
	runner AccrualRunner,
	runRepo *AccrualRunRepository,
	logger *zap.Logger,
) *PenaltyCronScheduler {
	return &PenaltyCronScheduler{
		config:  config,
		runner:  runner,
		runRepo: runRepo,
		logger:  logger,
	}
}

// Start starts the cron scheduler
func (s *PenaltyCronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Penalty cron scheduler started",
		zap.Int("run_hour", s.config.RunHour),
		zap.Int("run_minute", s.config.RunMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron scheduler
func (s *PenaltyCronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Penalty cron scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Penalty cron scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *PenaltyCronScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	// Check every minute whether the configured run time has arrived
	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runAccrual(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the cron should run at the given time
func (s *PenaltyCronScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.config.RunHour && now.Minute() == s.config.RunMinute
}

// calculateNextRunTime calculates the next run time
func (s *PenaltyCronScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.RunHour, s.config.RunMinute, 0, 0, now.Location())

	// If we've already passed today's run time, schedule for tomorrow
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runAccrual executes a single accrual run with overlap protection
func (s *PenaltyCronScheduler) runAccrual(ctx context.Context) {
	s.mu.Lock()
	if s.accruing {
		s.mu.Unlock()
		s.logger.Warn("Skipping accrual run, previous run still in progress")
		return
	}
	s.accruing = true
	now := time.Now()
	s.lastRunAt = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.accruing = false
		s.mu.Unlock()
	}()

	s.logger.Info("Starting scheduled penalty accrual run")

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	var runID uuid.UUID
	if s.runRepo != nil {
		var recordErr error
		runID, recordErr = s.runRepo.RecordRunStart(runCtx)
		if recordErr != nil {
			s.logger.Warn("Failed to record accrual run start", zap.Error(recordErr))
		}
	}

	result, err := s.runner.RunBatch(runCtx, now)
	if err != nil {
		s.logger.Error("Scheduled penalty accrual run failed", zap.Error(err))
	} else {
		s.logger.Info("Scheduled penalty accrual run completed",
			zap.Int("processed_bills", result.ProcessedBills),
			zap.Int("penalties_applied", result.PenaltiesApplied),
			zap.Int("failed_bills", len(result.Failed)),
		)
	}

	if s.runRepo != nil && runID != uuid.Nil {
		if recordErr := s.runRepo.RecordRunComplete(runCtx, runID, result, err); recordErr != nil {
			s.logger.Warn("Failed to record accrual run completion", zap.Error(recordErr))
		}
	}
}

// TriggerManualRun triggers a manual accrual run
// Note: Uses background context to avoid premature cancellation when HTTP request completes
func (s *PenaltyCronScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.accruing {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.mu.Unlock()

	go s.runAccrual(context.Background())
	return nil
}

// GetStatus returns the current status of the cron scheduler
func (s *PenaltyCronScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":       s.config.Enabled,
		"is_running":    s.isRunning,
		"accruing":      s.accruing,
		"run_hour":      s.config.RunHour,
		"run_minute":    s.config.RunMinute,
		"cron_schedule": "Daily",
		"last_run_at":   s.lastRunAt,
		"next_run_at":   s.nextRunAt,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *PenaltyCronScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *PenaltyCronScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
