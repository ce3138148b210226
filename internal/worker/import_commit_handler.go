package worker

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

type ImportCommitHandler struct {
	committers map[string]importer.Committer
	logger     *logrus.Logger
}

func NewImportCommitHandler(committers map[string]importer.Committer, logger *logrus.Logger) *ImportCommitHandler {
	return &ImportCommitHandler{
		committers: committers,
		logger:     logger,
	}
}

// Handle applies the records to the dataset's store. Errors caused by the
// data itself are not retried.
func (h *ImportCommitHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportCommitPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.logger.WithFields(logrus.Fields{
		"session_id": payload.SessionID,
		"dataset":    payload.Dataset,
		"method":     payload.Method,
		"records":    len(payload.Records),
	})

	committer, ok := h.committers[payload.Dataset]
	if !ok {
		return fmt.Errorf("unknown dataset %q: %w", payload.Dataset, asynq.SkipRetry)
	}

	log.Info("Starting import commit")
	summary, err := committer.Apply(ctx, payload.Records, payload.Method)
	if err != nil {
		log.WithError(err).Error("Import commit failed")
		if errors.Is(err, repository.ErrDuplicateCode) ||
			errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, importer.ErrParentCycle) ||
			errors.Is(err, importer.ErrInvalidMethod) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	log.WithFields(logrus.Fields{
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
		"deleted":  summary.Deleted,
	}).Info("Import commit completed")
	return nil
}
