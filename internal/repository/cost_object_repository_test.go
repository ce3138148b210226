package repository

import (
	"accounting-admin/internal/importer"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostObjectRepository_HasChildren(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCostObjectRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cost_objects WHERE parent_id = \?`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	has, err := repo.HasChildren(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCostObjectRepository_ImportKeys(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCostObjectRepository(db)

	mock.ExpectQuery(`SELECT CAST\(id AS CHAR\) AS id, code, CAST\(parent_id AS CHAR\) AS parent FROM cost_objects`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "parent"}).AddRow("1", "CC001", "0").AddRow("2", "CC002", "1"))

	keys, err := repo.ImportKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []importer.ExistingRecord{{ID: "1", Code: "CC001", Parent: "0"}, {ID: "2", Code: "CC002", Parent: "1"}}, keys)
}

func TestCostObjectRepository_Apply(t *testing.T) {
	stored := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "code", "parent_id"}).AddRow(1, "CC001", 0).AddRow(7, "CC007", 1)
	}

	t.Run("insert resolves parents by id and by code", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewCostObjectRepository(db)
		records := []importer.Record{
			{"code": "CC010", "name_vi": "A", "parent_id": "7"},
			{"code": "CC011", "name_vi": "B", "parent_id": "CC001"},
			{"code": "CC012", "name_vi": "C", "parent_id": "0"},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, code, parent_id FROM cost_objects`).WillReturnRows(stored())
		mock.ExpectExec(`INSERT INTO cost_objects`).
			WithArgs("CC010", "A", "", "", 7, "", true).
			WillReturnResult(sqlmock.NewResult(10, 1))
		mock.ExpectExec(`INSERT INTO cost_objects`).
			WithArgs("CC011", "B", "", "", 1, "", true).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec(`INSERT INTO cost_objects`).
			WithArgs("CC012", "C", "", "", 0, "", true).
			WillReturnResult(sqlmock.NewResult(12, 1))
		mock.ExpectCommit()

		summary, err := repo.Apply(context.Background(), records, importer.MethodInsert)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown parent aborts before writing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewCostObjectRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, code, parent_id FROM cost_objects`).WillReturnRows(stored())
		mock.ExpectRollback()

		_, err := repo.Apply(context.Background(), []importer.Record{{"code": "X", "name_vi": "x", "parent_id": "99"}}, importer.MethodInsert)
		assert.ErrorContains(t, err, "does not exist")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overwrite detaches orphans", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewCostObjectRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, code, parent_id FROM cost_objects`).WillReturnRows(stored())
		mock.ExpectExec(`DELETE FROM cost_objects WHERE code NOT IN \(\?\)`).
			WithArgs("CC007").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`ON DUPLICATE KEY UPDATE`).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`LEFT JOIN cost_objects p`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		summary, err := repo.Apply(context.Background(), []importer.Record{{"code": "CC007", "name_vi": "x", "parent_id": "0"}}, importer.MethodOverwrite)
		require.NoError(t, err)
		assert.Equal(t, importer.CommitSummary{Method: importer.MethodOverwrite, Updated: 1, Deleted: 1}, summary)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update matches codes case-insensitively", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewCostObjectRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, code, parent_id FROM cost_objects`).WillReturnRows(stored())
		mock.ExpectExec(`UPDATE cost_objects`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		summary, err := repo.Apply(context.Background(), []importer.Record{{"code": "cc007", "name_vi": "x", "parent_id": "0"}}, importer.MethodUpdate)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update rejects a parent cycle before writing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewCostObjectRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, code, parent_id FROM cost_objects`).WillReturnRows(stored())
		mock.ExpectRollback()

		_, err := repo.Apply(context.Background(), []importer.Record{{"code": "CC001", "name_vi": "x", "parent_id": "7"}}, importer.MethodUpdate)
		assert.ErrorIs(t, err, importer.ErrParentCycle)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
