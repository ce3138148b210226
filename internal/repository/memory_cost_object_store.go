package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryCostObjectStore keeps cost objects in process memory.
type MemoryCostObjectStore struct {
	mu      sync.RWMutex
	objects []models.CostObject
	nextID  int
}

func NewMemoryCostObjectStore(seed []models.CostObject) *MemoryCostObjectStore {
	s := &MemoryCostObjectStore{nextID: 1}
	for _, o := range seed {
		if o.ID >= s.nextID {
			s.nextID = o.ID + 1
		}
		s.objects = append(s.objects, o)
	}
	for i := range s.objects {
		if s.objects[i].ID == 0 {
			s.objects[i].ID = s.nextID
			s.nextID++
		}
	}
	return s
}

func SeedCostObjects() []models.CostObject {
	now := time.Now()
	return []models.CostObject{
		{ID: 1, Code: "CC001", NameVi: "Chi phí quản lý", NameEn: "Administrative expenses", NameKo: "관리비",
			IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Code: "CC002", NameVi: "Chi phí bán hàng", NameEn: "Selling expenses", NameKo: "판매비",
			IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 3, Code: "CC003", NameVi: "Phòng kế toán", NameEn: "Accounting department", NameKo: "회계부",
			ParentID: 1, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 4, Code: "CC004", NameVi: "Phòng nhân sự", NameEn: "Human resources", NameKo: "인사부",
			ParentID: 1, Notes: "HR", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 5, Code: "CC005", NameVi: "Kênh bán lẻ", NameEn: "Retail channel", NameKo: "소매 채널",
			ParentID: 2, IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
}

func (s *MemoryCostObjectStore) FindAll(_ context.Context, limit, offset int, search string) ([]models.CostObject, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(search)
	var matched []models.CostObject
	for _, o := range s.objects {
		if search == "" || containsFold(search, o.Code, o.NameVi, o.NameEn, o.NameKo) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	return page(matched, limit, offset), len(matched), nil
}

func (s *MemoryCostObjectStore) FindByID(_ context.Context, id int) (*models.CostObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(func(o models.CostObject) bool { return o.ID == id }); i >= 0 {
		o := s.objects[i]
		return &o, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryCostObjectStore) FindByCode(_ context.Context, code string) (*models.CostObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(func(o models.CostObject) bool { return strings.EqualFold(o.Code, code) }); i >= 0 {
		o := s.objects[i]
		return &o, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryCostObjectStore) Create(_ context.Context, obj *models.CostObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(func(o models.CostObject) bool { return strings.EqualFold(o.Code, obj.Code) }) >= 0 {
		return ErrDuplicateCode
	}
	s.insert(obj)
	return nil
}

func (s *MemoryCostObjectStore) insert(obj *models.CostObject) {
	now := time.Now()
	obj.ID = s.nextID
	obj.CreatedAt = now
	obj.UpdatedAt = now
	s.nextID++
	s.objects = append(s.objects, *obj)
}

func (s *MemoryCostObjectStore) Update(_ context.Context, obj *models.CostObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(func(o models.CostObject) bool { return o.ID == obj.ID })
	if i < 0 {
		return ErrNotFound
	}
	if j := s.indexOf(func(o models.CostObject) bool { return strings.EqualFold(o.Code, obj.Code) }); j >= 0 && j != i {
		return ErrDuplicateCode
	}
	obj.CreatedAt = s.objects[i].CreatedAt
	obj.UpdatedAt = time.Now()
	s.objects[i] = *obj
	return nil
}

func (s *MemoryCostObjectStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(func(o models.CostObject) bool { return o.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	return nil
}

func (s *MemoryCostObjectStore) HasChildren(_ context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.indexOf(func(o models.CostObject) bool { return o.ParentID == id }) >= 0, nil
}

func (s *MemoryCostObjectStore) All(ctx context.Context) ([]models.CostObject, error) {
	objects, _, err := s.FindAll(ctx, 0, 0, "")
	return objects, err
}

func (s *MemoryCostObjectStore) ImportKeys(_ context.Context) ([]importer.ExistingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]importer.ExistingRecord, 0, len(s.objects))
	for _, o := range s.objects {
		keys = append(keys, importer.ExistingRecord{ID: strconv.Itoa(o.ID), Code: o.Code, Parent: strconv.Itoa(o.ParentID)})
	}
	return keys, nil
}

// Apply mirrors the MySQL repository: either every record is applied or none is.
func (s *MemoryCostObjectStore) Apply(_ context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error) {
	summary := importer.CommitSummary{Method: method}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolve := models.ParentResolver(s.objects)
	incoming := make([]models.CostObject, 0, len(records))
	for _, rec := range records {
		obj, err := models.CostObjectFromRecord(rec, resolve)
		if err != nil {
			return summary, err
		}
		incoming = append(incoming, obj)
	}

	if method != importer.MethodInsert {
		if code, ok := models.HierarchyCycle(s.objects, incoming, method == importer.MethodOverwrite); ok {
			return summary, fmt.Errorf("cost object %s: %w", code, importer.ErrParentCycle)
		}
	}

	byCode := s.codeIndex()

	switch method {
	case importer.MethodInsert:
		for _, o := range incoming {
			if _, ok := byCode[importer.NormalizeKey(o.Code)]; ok {
				return summary, ErrDuplicateCode
			}
		}
		for i := range incoming {
			s.insert(&incoming[i])
			summary.Inserted++
		}

	case importer.MethodUpdate:
		for _, o := range incoming {
			if _, ok := byCode[importer.NormalizeKey(o.Code)]; !ok {
				return summary, ErrNotFound
			}
		}
		for _, o := range incoming {
			s.overlay(byCode[importer.NormalizeKey(o.Code)], o)
			summary.Updated++
		}

	case importer.MethodOverwrite:
		keep := make(map[string]bool, len(incoming))
		for _, o := range incoming {
			keep[importer.NormalizeKey(o.Code)] = true
		}
		var kept []models.CostObject
		for _, o := range s.objects {
			if keep[importer.NormalizeKey(o.Code)] {
				kept = append(kept, o)
			} else {
				summary.Deleted++
			}
		}
		s.objects = kept

		byCode = s.codeIndex()
		for i := range incoming {
			if idx, ok := byCode[importer.NormalizeKey(incoming[i].Code)]; ok {
				s.overlay(idx, incoming[i])
				summary.Updated++
			} else {
				s.insert(&incoming[i])
				summary.Inserted++
			}
		}
		s.detachOrphans()

	default:
		return summary, importer.ErrInvalidMethod
	}

	return summary, nil
}

func (s *MemoryCostObjectStore) codeIndex() map[string]int {
	byCode := make(map[string]int, len(s.objects))
	for i, o := range s.objects {
		byCode[importer.NormalizeKey(o.Code)] = i
	}
	return byCode
}

func (s *MemoryCostObjectStore) overlay(i int, o models.CostObject) {
	stored := &s.objects[i]
	stored.NameVi = o.NameVi
	stored.NameEn = o.NameEn
	stored.NameKo = o.NameKo
	stored.ParentID = o.ParentID
	stored.Notes = o.Notes
	stored.UpdatedAt = time.Now()
}

func (s *MemoryCostObjectStore) detachOrphans() {
	ids := make(map[int]bool, len(s.objects))
	for _, o := range s.objects {
		ids[o.ID] = true
	}
	for i := range s.objects {
		if s.objects[i].ParentID != 0 && !ids[s.objects[i].ParentID] {
			s.objects[i].ParentID = 0
		}
	}
}

func (s *MemoryCostObjectStore) indexOf(match func(models.CostObject) bool) int {
	for i, o := range s.objects {
		if match(o) {
			return i
		}
	}
	return -1
}
