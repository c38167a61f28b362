package jobs

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// integrityCron fires the totals scan at 01:00 business time every night.
const integrityCron = "0 1 * * *"

// Worker wraps the asynq server and scheduler behind one Run/Shutdown pair.
type Worker struct {
	logger    *slog.Logger
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

// NewWorker wires the task handlers and the nightly schedule against the
// given Redis instance.
func NewWorker(logger *slog.Logger, redisAddr string, checker *IntegrityChecker) *Worker {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Logger:      newAsynqLogger(logger),
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTotalsIntegrity, checker)

	return &Worker{logger: logger, server: server, scheduler: scheduler, mux: mux}
}

// Run registers the schedule and blocks serving tasks until Shutdown.
func (w *Worker) Run() error {
	if _, err := w.scheduler.Register(integrityCron, asynq.NewTask(TaskTotalsIntegrity, nil)); err != nil {
		return fmt.Errorf("jobs: register schedule: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("jobs: start scheduler: %w", err)
	}
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("jobs: run server: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler and drains the server.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// asynqLogger adapts slog to asynq's logger interface.
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{logger: logger}
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
