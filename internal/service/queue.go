package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	apperrors "github.com/target/mmk-jobqueue/internal/errors"
	"github.com/target/mmk-jobqueue/internal/queue/job"
)

// AdminListLimit is the number of items returned by List.
const AdminListLimit = 100

// QueueEngine is the part of queue.Queue the admin surface drives.
type QueueEngine interface {
	Enqueue(ctx context.Context, job *model.EnqueueJob) (*model.QueueItem, error)
	ScheduleRecurring(ctx context.Context) error
	LiveWorkers() int
	WorkerCount() int
	Running() bool
}

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Store  core.QueueStore // Required: queue record store
	Engine QueueEngine     // Required: enqueue and pool status
	Logger *slog.Logger    // Optional: structured logger
}

// QueueService implements the administrative queue operations.
type QueueService struct {
	store  core.QueueStore
	engine QueueEngine
	logger *slog.Logger
}

// NewQueueService constructs a new QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	if opts.Store == nil {
		return nil, errors.New("QueueStore is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("QueueEngine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueService{store: opts.Store, engine: opts.Engine, logger: logger.With("component", "queue_service")}, nil
}

// List returns the most recently updated items, optionally filtered by status name.
func (s *QueueService) List(ctx context.Context, status string) ([]*model.QueueItem, error) {
	opts := model.ListQueueOptions{Limit: AdminListLimit}
	if strings.TrimSpace(status) != "" {
		st, err := model.ParseQueueStatus(status)
		if err != nil {
			return nil, apperrors.ValidationField("status", "status must be one of: pending, success, failed")
		}
		opts.Status = &st
	}
	items, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", apperrors.MapDBError(err))
	}
	return items, nil
}

// Get returns one item. Malformed ids are reported as not found.
func (s *QueueService) Get(ctx context.Context, id string) (*model.QueueItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundf("queue item %q not found", id)
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", apperrors.MapDBError(err))
	}
	return item, nil
}

// Delete removes one item. Malformed ids are reported as not found.
func (s *QueueService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NotFoundf("queue item %q not found", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete queue item: %w", apperrors.MapDBError(err))
	}
	s.logger.InfoContext(ctx, "queue item deleted", "queue_item_id", id)
	return nil
}

// EnqueueInvitation starts the invitation chain for a membership.
func (s *QueueService) EnqueueInvitation(ctx context.Context, membershipID string) (*model.QueueItem, error) {
	if strings.TrimSpace(membershipID) == "" {
		return nil, apperrors.ValidationField("membership_id", "membership_id is required")
	}
	req, err := job.InvitationFlow(membershipID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid invitation")
	}
	item, err := s.engine.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enqueue invitation: %w", apperrors.MapDBError(err))
	}
	s.logger.InfoContext(ctx, "invitation enqueued", "queue_item_id", item.ID, "membership_id", membershipID)
	return item, nil
}

// ScheduleRecurring seeds the recurring jobs.
func (s *QueueService) ScheduleRecurring(ctx context.Context) error {
	return s.engine.ScheduleRecurring(ctx)
}

// PoolStatus reports the worker pool state for health checks.
type PoolStatus struct {
	Running     bool `json:"running"`
	LiveWorkers int  `json:"live_workers"`
	Workers     int  `json:"workers"`
}

// Status returns the current worker pool state.
func (s *QueueService) Status() PoolStatus {
	return PoolStatus{
		Running:     s.engine.Running(),
		LiveWorkers: s.engine.LiveWorkers(),
		Workers:     s.engine.WorkerCount(),
	}
}
