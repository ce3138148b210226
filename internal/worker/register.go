package worker

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// DatasetCommitters maps every importable dataset to its MySQL store.
func DatasetCommitters(db *sqlx.DB) map[string]importer.Committer {
	return map[string]importer.Committer{
		models.DatasetBankAccounts: repository.NewBankAccountRepository(db),
		models.DatasetCostObjects:  repository.NewCostObjectRepository(db),
	}
}

func RegisterHandlers(mux *asynq.ServeMux, committers map[string]importer.Committer, logger *logrus.Logger) {
	commitHandler := NewImportCommitHandler(committers, logger)

	// Register task handlers
	mux.HandleFunc(TypeImportCommit, commitHandler.Handle)
}
