package worker

import (
	"accounting-admin/internal/importer"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeImportCommit = "import:commit"

// ImportCommitPayload carries the selected records of a reviewed import session.
type ImportCommitPayload struct {
	SessionID   string                `json:"session_id"`
	Dataset     string                `json:"dataset"`
	Method      importer.ImportMethod `json:"method"`
	Records     []importer.Record     `json:"records"`
	RequestedBy string                `json:"requested_by"`
}

func NewImportCommitTask(payload ImportCommitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImportCommit, data,
		asynq.Queue("critical"),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	), nil
}
