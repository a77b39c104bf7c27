package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/routecache"
	"github.com/carboncycle/carboncycle/internal/schedule"
)

// PrewarmJob warms the route cache for the configured commute corridors so
// estimate passes hit the store instead of the routing provider.
type PrewarmJob struct {
	config   PrewarmConfig
	logger   zerolog.Logger
	cache    *routecache.Service
	resolver *schedule.Resolver

	metrics *PrewarmMetrics
}

// PrewarmMetrics tracks pre-warm job statistics.
type PrewarmMetrics struct {
	mu sync.RWMutex

	TotalRuns   int64
	WarmedSlots int64
	FailedSlots int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// PrewarmJobConfig holds configuration for creating a PrewarmJob.
type PrewarmJobConfig struct {
	Config   PrewarmConfig
	Logger   zerolog.Logger
	Cache    *routecache.Service
	Resolver *schedule.Resolver
}

// NewPrewarmJob creates a new pre-warm job processor.
func NewPrewarmJob(cfg PrewarmJobConfig) *PrewarmJob {
	config := cfg.Config
	if len(config.Routes) == 0 {
		config = DefaultPrewarmConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = schedule.NewResolver()
	}

	return &PrewarmJob{
		config:   config,
		logger:   cfg.Logger,
		cache:    cfg.Cache,
		resolver: resolver,
		metrics:  &PrewarmMetrics{},
	}
}

// PrewarmResult contains the result of one pre-warm run.
type PrewarmResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalSlots int
	Warmed     int
	Failed     int
	Errors     []PrewarmError
}

// PrewarmError represents a failed slot fetch.
type PrewarmError struct {
	Route string
	Slot  string
	Error string
}

// slotTask is one (corridor, departure slot) pair to warm.
type slotTask struct {
	route PrewarmRoute
	slot  schedule.Slot
}

// Run executes the pre-warm job for all configured corridors.
func (j *PrewarmJob) Run(ctx context.Context) *PrewarmResult {
	startTime := time.Now()
	result := &PrewarmResult{StartTime: startTime}

	tasks := j.buildTasks(result)
	result.TotalSlots = len(tasks)

	j.logger.Info().
		Int("routes", j.config.TotalRoutes()).
		Int("total_slots", result.TotalSlots).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache prewarm job")

	tasksChan := make(chan slotTask, len(tasks))
	resultsChan := make(chan taskResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, tasksChan, resultsChan)
		}()
	}

	for _, t := range tasks {
		tasksChan <- t
	}
	close(tasksChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.err == nil {
			result.Warmed++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, PrewarmError{
			Route: tr.task.route.Name,
			Slot:  tr.task.slot.Label,
			Error: tr.err.Error(),
		})
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("warmed", result.Warmed).
		Int("failed", result.Failed).
		Msg("cache prewarm job completed")

	return result
}

// buildTasks resolves every corridor's schedule into slot tasks. Corridors
// with malformed schedules are reported as failures rather than aborting
// the run.
func (j *PrewarmJob) buildTasks(result *PrewarmResult) []slotTask {
	var tasks []slotTask
	for _, route := range j.config.Routes {
		week := route.Week
		if week == nil {
			week = schedule.DefaultWeek()
		}

		slots, err := j.resolver.Slots(week)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, PrewarmError{
				Route: route.Name,
				Error: err.Error(),
			})
			continue
		}

		for _, slot := range slots {
			tasks = append(tasks, slotTask{route: route, slot: slot})
		}
	}
	return tasks
}

type taskResult struct {
	task slotTask
	err  error
}

func (j *PrewarmJob) warmWorker(ctx context.Context, tasks <-chan slotTask, results chan<- taskResult) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- taskResult{task: task, err: ctx.Err()}
		default:
			results <- taskResult{task: task, err: j.warmSlot(ctx, task)}
		}
	}
}

func (j *PrewarmJob) warmSlot(ctx context.Context, task slotTask) error {
	slotCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.cache.GetOrFetch(slotCtx, task.route.Origin, task.route.Destination, task.slot.DepartAt)
	return err
}

func (j *PrewarmJob) updateMetrics(result *PrewarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.WarmedSlots += int64(result.Warmed)
	j.metrics.FailedSlots += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *PrewarmJob) GetMetrics() PrewarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PrewarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		WarmedSlots:     j.metrics.WarmedSlots,
		FailedSlots:     j.metrics.FailedSlots,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PrewarmJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"warmed_slots":      m.WarmedSlots,
		"failed_slots":      m.FailedSlots,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
