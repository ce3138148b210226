package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const costObjectColumns = `id,
		       code,
		       name_vi,
		       COALESCE(name_en, '') as name_en,
		       COALESCE(name_ko, '') as name_ko,
		       parent_id,
		       COALESCE(notes, '') as notes,
		       is_active,
		       created_at,
		       updated_at`

const (
	insertCostObjectQuery = `INSERT INTO cost_objects (code, name_vi, name_en, name_ko, parent_id, notes, is_active)
	          VALUES (:code, :name_vi, :name_en, :name_ko, :parent_id, :notes, :is_active)`

	upsertCostObjectQuery = insertCostObjectQuery + `
	          ON DUPLICATE KEY UPDATE
	          name_vi = VALUES(name_vi),
	          name_en = VALUES(name_en),
	          name_ko = VALUES(name_ko),
	          parent_id = VALUES(parent_id),
	          notes = VALUES(notes)`

	updateCostObjectByCodeQuery = `UPDATE cost_objects SET name_vi = :name_vi, name_en = :name_en,
	          name_ko = :name_ko, parent_id = :parent_id, notes = :notes
	          WHERE code = :code`

	// Objects whose parent was removed become roots.
	detachOrphansQuery = `UPDATE cost_objects c
	          LEFT JOIN cost_objects p ON c.parent_id = p.id
	          SET c.parent_id = 0
	          WHERE c.parent_id <> 0 AND p.id IS NULL`
)

type CostObjectRepository struct {
	db *sqlx.DB
}

func NewCostObjectRepository(db *sqlx.DB) *CostObjectRepository {
	return &CostObjectRepository{db: db}
}

func (r *CostObjectRepository) FindAll(ctx context.Context, limit, offset int, search string) ([]models.CostObject, int, error) {
	var objects []models.CostObject
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE code LIKE ? OR name_vi LIKE ? OR name_en LIKE ? OR name_ko LIKE ?"
		searchPattern := "%" + search + "%"
		args = append(args, searchPattern, searchPattern, searchPattern, searchPattern)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cost_objects %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM cost_objects %s
		ORDER BY code
		LIMIT ? OFFSET ?`, costObjectColumns, whereClause)
	args = append(args, limit, offset)
	if err := r.db.SelectContext(ctx, &objects, query, args...); err != nil {
		return nil, 0, err
	}

	return objects, total, nil
}

func (r *CostObjectRepository) FindByID(ctx context.Context, id int) (*models.CostObject, error) {
	var obj models.CostObject
	query := fmt.Sprintf("SELECT %s FROM cost_objects WHERE id = ? LIMIT 1", costObjectColumns)
	if err := r.db.GetContext(ctx, &obj, query, id); err != nil {
		return nil, mapError(err)
	}
	return &obj, nil
}

func (r *CostObjectRepository) FindByCode(ctx context.Context, code string) (*models.CostObject, error) {
	var obj models.CostObject
	query := fmt.Sprintf("SELECT %s FROM cost_objects WHERE code = ? LIMIT 1", costObjectColumns)
	if err := r.db.GetContext(ctx, &obj, query, code); err != nil {
		return nil, mapError(err)
	}
	return &obj, nil
}

func (r *CostObjectRepository) Create(ctx context.Context, obj *models.CostObject) error {
	result, err := r.db.NamedExecContext(ctx, insertCostObjectQuery, obj)
	if err != nil {
		return mapError(err)
	}
	id, _ := result.LastInsertId()
	obj.ID = int(id)
	return nil
}

func (r *CostObjectRepository) Update(ctx context.Context, obj *models.CostObject) error {
	query := `UPDATE cost_objects SET code = :code, name_vi = :name_vi, name_en = :name_en,
	          name_ko = :name_ko, parent_id = :parent_id, notes = :notes, is_active = :is_active
	          WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, obj)
	return mapError(err)
}

func (r *CostObjectRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cost_objects WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CostObjectRepository) HasChildren(ctx context.Context, id int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cost_objects WHERE parent_id = ?", id)
	return count > 0, err
}

func (r *CostObjectRepository) All(ctx context.Context) ([]models.CostObject, error) {
	var objects []models.CostObject
	query := fmt.Sprintf("SELECT %s FROM cost_objects ORDER BY code", costObjectColumns)
	err := r.db.SelectContext(ctx, &objects, query)
	return objects, err
}

func (r *CostObjectRepository) ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error) {
	var keys []importer.ExistingRecord
	err := r.db.SelectContext(ctx, &keys, "SELECT CAST(id AS CHAR) AS id, code, CAST(parent_id AS CHAR) AS parent FROM cost_objects")
	return keys, err
}

// Apply writes committed import records in one transaction. Parent
// references are resolved against the objects stored before the import.
func (r *CostObjectRepository) Apply(ctx context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error) {
	summary := importer.CommitSummary{Method: method}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, err
	}
	defer tx.Rollback()

	var stored []models.CostObject
	if err := tx.SelectContext(ctx, &stored, "SELECT id, code, parent_id FROM cost_objects"); err != nil {
		return summary, err
	}
	existing := make(map[string]bool, len(stored))
	for _, o := range stored {
		existing[importer.NormalizeKey(o.Code)] = true
	}
	resolve := models.ParentResolver(stored)

	objects := make([]models.CostObject, 0, len(records))
	codes := make([]string, 0, len(records))
	for _, rec := range records {
		obj, err := models.CostObjectFromRecord(rec, resolve)
		if err != nil {
			return summary, err
		}
		objects = append(objects, obj)
		codes = append(codes, obj.Code)
	}
	if method != importer.MethodInsert {
		if code, ok := models.HierarchyCycle(stored, objects, method == importer.MethodOverwrite); ok {
			return summary, fmt.Errorf("cost object %s: %w", code, importer.ErrParentCycle)
		}
	}

	switch method {
	case importer.MethodInsert:
		for i := range objects {
			if _, err := tx.NamedExecContext(ctx, insertCostObjectQuery, &objects[i]); err != nil {
				return summary, fmt.Errorf("failed to insert cost object %s: %w", objects[i].Code, mapError(err))
			}
			summary.Inserted++
		}

	case importer.MethodUpdate:
		for i := range objects {
			if !existing[importer.NormalizeKey(objects[i].Code)] {
				return summary, fmt.Errorf("failed to update cost object %s: %w", objects[i].Code, ErrNotFound)
			}
			if _, err := tx.NamedExecContext(ctx, updateCostObjectByCodeQuery, &objects[i]); err != nil {
				return summary, fmt.Errorf("failed to update cost object %s: %w", objects[i].Code, err)
			}
			summary.Updated++
		}

	case importer.MethodOverwrite:
		query, args, err := sqlx.In("DELETE FROM cost_objects WHERE code NOT IN (?)", codes)
		if err != nil {
			return summary, err
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return summary, fmt.Errorf("failed to clear cost objects: %w", err)
		}
		deleted, _ := result.RowsAffected()
		summary.Deleted = int(deleted)

		for i := range objects {
			if _, err := tx.NamedExecContext(ctx, upsertCostObjectQuery, &objects[i]); err != nil {
				return summary, fmt.Errorf("failed to write cost object %s: %w", objects[i].Code, err)
			}
			if existing[importer.NormalizeKey(objects[i].Code)] {
				summary.Updated++
			} else {
				summary.Inserted++
			}
		}

		if _, err := tx.ExecContext(ctx, detachOrphansQuery); err != nil {
			return summary, fmt.Errorf("failed to detach orphaned cost objects: %w", err)
		}

	default:
		return summary, importer.ErrInvalidMethod
	}

	if err := tx.Commit(); err != nil {
		return importer.CommitSummary{Method: method}, err
	}
	return summary, nil
}
