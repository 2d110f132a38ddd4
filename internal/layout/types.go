// Package layout defines the import-layout data model and the pure
// operations over it: structural validation, derived metadata, and
// file-backed persistence. A layout describes how columns of a source
// spreadsheet bind to fields of the target employee schema; it carries
// no behavior of its own and round-trips through JSON.
package layout

import "time"

// Configuration is the persisted unit: a named mapping from source-file
// columns to catalog fields, plus business rules and derived metadata.
type Configuration struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Version        string         `json:"version,omitempty"`
	CreatedAt      time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt,omitempty"`
	SourceFileName string         `json:"sourceFileName,omitempty"`
	HeaderRowIndex int            `json:"headerRowIndex"`
	BusinessRules  BusinessRules  `json:"businessRules"`
	Mappings       []FieldMapping `json:"mappings"`
	Metadata       Metadata       `json:"metadata"`
}

// CurrentVersion is stamped on configurations written by this build.
const CurrentVersion = "1.0.0"

// BusinessRules are boolean switches consumed by the import execution
// step. They are plain data here; no behavior is attached at this layer.
type BusinessRules struct {
	CreateEmployee        bool `json:"createEmployee"`
	CreatePosition        bool `json:"createPosition"`
	CreateDepartment      bool `json:"createDepartment"`
	CreateCostCenter      bool `json:"createCostCenter"`
	CreateUnit            bool `json:"createUnit"`
	CreateShift           bool `json:"createShift"`
	CreateLeaveReason     bool `json:"createLeaveReason"`
	CreateContractingUnit bool `json:"createContractingUnit"`

	UpdateEmployee    bool `json:"updateEmployee"`
	UpdatePosition    bool `json:"updatePosition"`
	UpdateDepartment  bool `json:"updateDepartment"`
	UpdateCostCenter  bool `json:"updateCostCenter"`
	UpdateUnit        bool `json:"updateUnit"`
	UpdateShift       bool `json:"updateShift"`
	UpdateLeaveReason bool `json:"updateLeaveReason"`

	CreateHistory          bool `json:"createHistory"`
	UnlockBlocked          bool `json:"unlockBlocked"`
	RejectWithoutHierarchy bool `json:"rejectWithoutHierarchy"`
}

// DefaultBusinessRules returns the fixed default switch positions.
func DefaultBusinessRules() BusinessRules {
	return BusinessRules{
		CreateEmployee:         true,
		CreatePosition:         true,
		CreateDepartment:       true,
		CreateCostCenter:       true,
		CreateUnit:             true,
		CreateShift:            true,
		UpdateEmployee:         true,
		CreateHistory:          true,
		RejectWithoutHierarchy: true,
	}
}

// UnboundColumn is the sentinel index for a mapping with no source column.
const UnboundColumn = -1

// FieldMapping binds one catalog field to one source column.
// Duplicate target bindings are legal at this layer; the validator
// flags structural problems, not storage.
type FieldMapping struct {
	TargetField       string          `json:"targetField"`
	SourceColumnName  string          `json:"sourceColumnName,omitempty"`
	SourceColumnIndex int             `json:"sourceColumnIndex"`
	DefaultValue      string          `json:"defaultValue,omitempty"`
	Required          bool            `json:"required"`
	DataType          string          `json:"dataType"`
	Format            string          `json:"format,omitempty"`
	AllowedValues     []string        `json:"allowedValues,omitempty"`
	Transformation    *Transformation `json:"transformation,omitempty"`
}

// Bound reports whether the mapping points at a real source column.
func (m FieldMapping) Bound() bool {
	return m.SourceColumnIndex >= 0
}

// Transformation names a data-shaping operation applied at import time.
// The layout core only stores and round-trips it; execution lives in the
// transform registry.
type Transformation struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Metadata is fully derived from Mappings and the field catalog.
// It is recomputed before every save and never hand-edited.
// LastTestResult, TestPerformed and Notes are informational and
// preserved verbatim across saves.
type Metadata struct {
	TotalColumns              int            `json:"totalColumns"`
	MappedFieldCount          int            `json:"mappedFieldCount"`
	RequiredFieldCount        int            `json:"requiredFieldCount"`
	RequiredFieldsMappedCount int            `json:"requiredFieldsMappedCount"`
	CategoryCounts            map[string]int `json:"categoryCounts,omitempty"`
	Categories                []string       `json:"categories,omitempty"`
	LastTestResult            string         `json:"lastTestResult,omitempty"`
	TestPerformed             bool           `json:"testPerformed,omitempty"`
	Notes                     []string       `json:"notes,omitempty"`
}

// ValidationResult is the outcome of validating a Configuration.
// Errors block save; warnings do not.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Fields   []FieldValidation `json:"fields,omitempty"`
}

// FieldValidation describes one problematic field.
type FieldValidation struct {
	Field      string `json:"field"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
