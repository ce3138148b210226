package service

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/worker"
	"context"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskQueue is the subset of *asynq.Client used to hand commits to the worker.
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type ImportOptions struct {
	MaxRows        int
	AsyncThreshold int
}

type requesterKey struct{}

// WithRequester tags ctx with the user driving an import. Sessions are only
// visible to the user that started them.
func WithRequester(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, requesterKey{}, username)
}

func requester(ctx context.Context) string {
	username, _ := ctx.Value(requesterKey{}).(string)
	return username
}

// ImportService drives the import wizard. Every operation loads the session,
// applies one step and saves it only when the step succeeded.
type ImportService struct {
	datasets DatasetRegistry
	sessions repository.ImportSessionStore
	queue    TaskQueue
	opts     ImportOptions
	logger   *logrus.Logger
}

func NewImportService(datasets DatasetRegistry, sessions repository.ImportSessionStore, queue TaskQueue, opts ImportOptions, logger *logrus.Logger) *ImportService {
	return &ImportService{
		datasets: datasets,
		sessions: sessions,
		queue:    queue,
		opts:     opts,
		logger:   logger,
	}
}

// Start snapshots the dataset's existing keys and opens a new session.
func (s *ImportService) Start(ctx context.Context, dataset string) (*importer.Session, error) {
	ds, err := s.datasets.Get(dataset)
	if err != nil {
		return nil, err
	}

	existing, err := ds.ImportKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing %s: %w", dataset, err)
	}

	session := importer.NewSession(ds.Schema(), existing, s.opts.MaxRows)
	session.Owner = requester(ctx)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"dataset":    dataset,
		"owner":      session.Owner,
		"existing":   len(existing),
	}).Info("Import session started")
	return session, nil
}

// Get loads a session of the given dataset owned by the requester in ctx and
// rebuilds its derived state. Sessions of other users are reported as missing.
func (s *ImportService) Get(ctx context.Context, dataset, id string) (*importer.Session, error) {
	ds, err := s.datasets.Get(dataset)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Dataset != ds.Name() {
		return nil, importer.ErrSessionNotFound
	}
	if session.Owner != requester(ctx) {
		s.logger.WithFields(logrus.Fields{
			"session_id": id,
			"owner":      session.Owner,
			"requester":  requester(ctx),
		}).Warn("Import session requested by another user")
		return nil, importer.ErrSessionNotFound
	}
	if err := session.Restore(ds.Schema()); err != nil {
		return nil, fmt.Errorf("failed to restore import session: %w", err)
	}
	return session, nil
}

func (s *ImportService) mutate(ctx context.Context, dataset, id string, step func(*importer.Session) error) (*importer.Session, error) {
	session, err := s.Get(ctx, dataset, id)
	if err != nil {
		return nil, err
	}
	if err := step(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ImportService) UploadFile(ctx context.Context, dataset, id, fileName string, data []byte) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		if err := session.LoadFile(fileName, data); err != nil {
			s.logger.WithError(err).WithField("session_id", id).Warn("Rejected import file")
			return err
		}
		return nil
	})
}

func (s *ImportService) ChooseSheet(ctx context.Context, dataset, id, sheet string, headerRow int) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.ChooseSheet(sheet, headerRow)
	})
}

func (s *ImportService) NextToMapping(ctx context.Context, dataset, id string) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.ToMapColumns()
	})
}

func (s *ImportService) SetMapping(ctx context.Context, dataset, id string, mappings map[string]string) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		for field, column := range mappings {
			if err := session.SetMapping(field, column); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ImportService) SetMethod(ctx context.Context, dataset, id, method string) (*importer.Session, error) {
	m, err := importer.ParseImportMethod(method)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.SetMethod(m)
	})
}

func (s *ImportService) Review(ctx context.Context, dataset, id string) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.ToReview()
	})
}

func (s *ImportService) Back(ctx context.Context, dataset, id string) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.Back()
	})
}

func (s *ImportService) Select(ctx context.Context, dataset, id string, mode importer.SelectionMode, toggle []int) (*importer.Session, error) {
	return s.mutate(ctx, dataset, id, func(session *importer.Session) error {
		return session.Select(mode, toggle)
	})
}

// Commit applies the selected valid rows. Large selections are queued for
// the worker when a queue is configured. The session is discarded once the
// records were handed over.
func (s *ImportService) Commit(ctx context.Context, dataset, id string) (importer.CommitSummary, error) {
	ds, err := s.datasets.Get(dataset)
	if err != nil {
		return importer.CommitSummary{}, err
	}
	session, err := s.Get(ctx, dataset, id)
	if err != nil {
		return importer.CommitSummary{}, err
	}

	requestedBy := session.Owner
	committer := ds.Committer()
	if s.queue != nil && len(session.SelectedRecords()) > s.opts.AsyncThreshold {
		committer = &queueCommitter{
			queue:       s.queue,
			sessionID:   session.ID,
			dataset:     dataset,
			requestedBy: requestedBy,
		}
	}

	log := s.logger.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"dataset":      dataset,
		"method":       session.Method,
		"requested_by": requestedBy,
	})

	summary, err := session.Commit(ctx, committer)
	if err != nil {
		log.WithError(err).Error("Import commit failed")
		return importer.CommitSummary{}, err
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		log.WithError(err).Warn("Failed to discard committed import session")
	}

	log.WithFields(logrus.Fields{
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
		"deleted":  summary.Deleted,
		"queued":   summary.Queued,
	}).Info("Import committed")
	return summary, nil
}

// ErrorReport writes the invalid rows of a reviewed session as xlsx or csv.
func (s *ImportService) ErrorReport(ctx context.Context, dataset, id, format string, w io.Writer) error {
	session, err := s.Get(ctx, dataset, id)
	if err != nil {
		return err
	}
	if session.Step != importer.StepReview {
		return &importer.StepError{Action: "download the error report", Step: session.Step}
	}

	if format == "csv" {
		return importer.WriteErrorReportCSV(w, session.Columns(), session.Rows(), session.Results())
	}
	return importer.WriteErrorReport(w, session.Columns(), session.Rows(), session.Results())
}

func (s *ImportService) Discard(ctx context.Context, dataset, id string) error {
	if _, err := s.Get(ctx, dataset, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

type queueCommitter struct {
	queue       TaskQueue
	sessionID   string
	dataset     string
	requestedBy string
}

func (q *queueCommitter) Apply(ctx context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error) {
	task, err := worker.NewImportCommitTask(worker.ImportCommitPayload{
		SessionID:   q.sessionID,
		Dataset:     q.dataset,
		Method:      method,
		Records:     records,
		RequestedBy: q.requestedBy,
	})
	if err != nil {
		return importer.CommitSummary{}, fmt.Errorf("failed to create commit task: %w", err)
	}

	if _, err := q.queue.EnqueueContext(ctx, task); err != nil {
		return importer.CommitSummary{}, fmt.Errorf("failed to enqueue commit task: %w", err)
	}
	return importer.CommitSummary{Method: method, Queued: true}, nil
}
