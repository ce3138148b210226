package models

import (
	"accounting-admin/internal/importer"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DatasetCostObjects = "cost_objects"

// CostObject is a cost-center object. ParentID 0 means a root object.
type CostObject struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	NameVi    string    `db:"name_vi" json:"name_vi"`
	NameEn    string    `db:"name_en" json:"name_en"`
	NameKo    string    `db:"name_ko" json:"name_ko"`
	ParentID  int       `db:"parent_id" json:"parent_id"`
	Notes     string    `db:"notes" json:"notes"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CostObjectRequest struct {
	Code     string `json:"code" validate:"required,max=50"`
	NameVi   string `json:"name_vi" validate:"required,max=200"`
	NameEn   string `json:"name_en" validate:"max=200"`
	NameKo   string `json:"name_ko" validate:"max=200"`
	ParentID int    `json:"parent_id" validate:"gte=0"`
	Notes    string `json:"notes" validate:"max=500"`
	IsActive *bool  `json:"is_active"`
}

func (r CostObjectRequest) Apply(o *CostObject) {
	o.Code = strings.TrimSpace(r.Code)
	o.NameVi = strings.TrimSpace(r.NameVi)
	o.NameEn = strings.TrimSpace(r.NameEn)
	o.NameKo = strings.TrimSpace(r.NameKo)
	o.ParentID = r.ParentID
	o.Notes = strings.TrimSpace(r.Notes)
	if r.IsActive != nil {
		o.IsActive = *r.IsActive
	}
}

// CostObjectSchema is the import destination schema for cost objects.
var CostObjectSchema = importer.Schema{
	Dataset:     DatasetCostObjects,
	KeyField:    "code",
	ParentField: "parent_id",
	Fields: []importer.FieldSpec{
		{Name: "code", Label: "Code", Required: true, MaxLength: 50,
			Description: "Unique cost object code", Example: "CC001"},
		{Name: "name_vi", Label: "Vietnamese name", Required: true, MaxLength: 200,
			Description: "Name in Vietnamese", Example: "Chi phí quản lý"},
		{Name: "name_en", Label: "English name", MaxLength: 200,
			Description: "Name in English", Example: "Administrative expenses"},
		{Name: "name_ko", Label: "Korean name", MaxLength: 200,
			Description: "Name in Korean", Example: "관리비"},
		{Name: "parent_id", Label: "Parent object",
			Description: "ID of the parent object, 0 for none", Example: "0"},
		{Name: "notes", Label: "Notes", MaxLength: 500,
			Description: "Free text notes"},
	},
}

var CostObjectTemplateSamples = []importer.Record{
	{"code": "CC001", "name_vi": "Chi phí quản lý", "name_en": "Administrative expenses",
		"name_ko": "관리비", "parent_id": "0", "notes": ""},
	{"code": "CC002", "name_vi": "Chi phí bán hàng", "name_en": "Selling expenses",
		"name_ko": "판매비", "parent_id": "0", "notes": "Sales department"},
}

// CostObjectFromRecord converts a validated import record. resolveParent maps
// the parent reference (an ID or a code) to a stored ID.
func CostObjectFromRecord(rec importer.Record, resolveParent func(string) (int, bool)) (CostObject, error) {
	obj := CostObject{
		Code:     rec["code"],
		NameVi:   rec["name_vi"],
		NameEn:   rec["name_en"],
		NameKo:   rec["name_ko"],
		Notes:    rec["notes"],
		IsActive: true,
	}

	parent := rec["parent_id"]
	if parent == "" || parent == importer.NoParent {
		return obj, nil
	}
	id, ok := resolveParent(parent)
	if !ok {
		return CostObject{}, fmt.Errorf("parent object %q does not exist", parent)
	}
	obj.ParentID = id
	return obj, nil
}

func (o CostObject) ToRecord() importer.Record {
	return importer.Record{
		"code":      o.Code,
		"name_vi":   o.NameVi,
		"name_en":   o.NameEn,
		"name_ko":   o.NameKo,
		"parent_id": strconv.Itoa(o.ParentID),
		"notes":     o.Notes,
	}
}

// ParentResolver builds a lookup from parent reference to ID over the given
// objects. Numeric IDs win over codes.
func ParentResolver(objects []CostObject) func(string) (int, bool) {
	byID := make(map[string]int, len(objects))
	byCode := make(map[string]int, len(objects))
	for _, o := range objects {
		byID[strconv.Itoa(o.ID)] = o.ID
		byCode[importer.NormalizeKey(o.Code)] = o.ID
	}
	return func(ref string) (int, bool) {
		if id, ok := byID[ref]; ok {
			return id, true
		}
		id, ok := byCode[importer.NormalizeKey(ref)]
		return id, ok
	}
}

// HierarchyCycle applies incoming over stored and returns the code of the
// first incoming object that ends up as its own ancestor. With replace set
// only the incoming objects keep their parents, the rest are deleted.
func HierarchyCycle(stored, incoming []CostObject, replace bool) (string, bool) {
	ids := make(map[string]int, len(stored))
	parents := make(map[int]int, len(stored))
	for _, o := range stored {
		ids[importer.NormalizeKey(o.Code)] = o.ID
		if !replace {
			parents[o.ID] = o.ParentID
		}
	}

	touched := make([]int, 0, len(incoming))
	codes := make(map[int]string, len(incoming))
	for _, o := range incoming {
		id, ok := ids[importer.NormalizeKey(o.Code)]
		if !ok {
			continue
		}
		parents[id] = o.ParentID
		touched = append(touched, id)
		codes[id] = o.Code
	}

	for _, id := range touched {
		seen := map[int]bool{}
		for cur := parents[id]; cur != 0 && !seen[cur]; cur = parents[cur] {
			if cur == id {
				return codes[id], true
			}
			seen[cur] = true
		}
	}
	return "", false
}
