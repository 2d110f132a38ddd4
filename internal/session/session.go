// Package session drives the interactive layout-editing workflow: pick
// a source file, identify its columns, bind columns to catalog fields,
// and save the result as a layout configuration. A session is owned by
// exactly one logical caller at a time; it holds the only mutable state
// in the system and exposes it through discrete mutations plus pure,
// recomputed-on-demand queries.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"importador/internal/ingest"
	"importador/internal/layout"
)

// State identifies where a session is in the editing workflow.
// Saved is not terminal; a session may keep editing and re-save.
type State string

const (
	StateEmpty             State = "empty"
	StateFileSelected      State = "file_selected"
	StateColumnsIdentified State = "columns_identified"
	StateEditing           State = "editing"
	StateReadyToSave       State = "ready_to_save"
	StateSaved             State = "saved"
)

// Column is one detected source column: display name plus zero-based
// index. Columns live only for the duration of a session and are never
// persisted.
type Column struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// ErrNotReady is returned by Save before columns have been identified
// or while the layout name is blank.
var ErrNotReady = errors.New("layout is not ready to save")

// ValidationFailedError carries the full validation result when a save
// is blocked by structural errors.
type ValidationFailedError struct {
	Result layout.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("layout validation failed: %s", strings.Join(e.Result.Errors, "; "))
}

// Session is the stateful orchestrator of one editing workflow.
// Binding a column that is already used by another field is allowed
// here; the conflict is reported at validation time instead, so the
// user is not interrupted mid-edit.
type Session struct {
	ingestor *ingest.Ingestor
	store    *layout.Store
	catalog  layout.Catalog

	state          State
	filePath       string
	sourceFileName string
	headerRowIndex int
	columns        []Column
	mappings       []layout.FieldMapping

	layoutID      string
	createdAt     time.Time
	name          string
	description   string
	businessRules layout.BusinessRules
	metadata      layout.Metadata

	status  string
	onSaved []func(layout.Configuration)
}

// New creates an empty session over the given collaborators.
func New(ingestor *ingest.Ingestor, store *layout.Store, catalog layout.Catalog) *Session {
	s := &Session{
		ingestor: ingestor,
		store:    store,
		catalog:  catalog,
	}
	s.Reset()
	return s
}

// State returns the session's current workflow state. ReadyToSave is
// derived: an editing session reports it as soon as readiness holds.
func (s *Session) State() State {
	if (s.state == StateColumnsIdentified || s.state == StateEditing) && s.Ready() {
		return StateReadyToSave
	}
	return s.state
}

// Ready reports whether saving is permitted: columns have been
// identified and the layout has a non-blank name. It is recomputed on
// every call, never cached.
func (s *Session) Ready() bool {
	return len(s.columns) > 0 && strings.TrimSpace(s.name) != ""
}

// Status returns the last session-level status or error message.
func (s *Session) Status() string { return s.status }

// Columns returns the detected source columns in file order.
func (s *Session) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Mappings returns the current field mappings in catalog order.
func (s *Session) Mappings() []layout.FieldMapping {
	out := make([]layout.FieldMapping, len(s.mappings))
	copy(out, s.mappings)
	return out
}

// SelectFile records the source file path. Content is not read until
// ProcessFile.
func (s *Session) SelectFile(path string) {
	s.filePath = path
	s.sourceFileName = filepath.Base(path)
	s.columns = nil
	s.state = StateFileSelected
	s.status = ""
}

// SetHeaderRowIndex changes the 1-based header row used by the next
// ProcessFile call.
func (s *Session) SetHeaderRowIndex(row int) {
	s.headerRowIndex = row
}

// HeaderRowIndex returns the current 1-based header row.
func (s *Session) HeaderRowIndex() int { return s.headerRowIndex }

// SetName sets the layout display name, part of save readiness.
func (s *Session) SetName(name string) { s.name = name }

// Name returns the layout display name.
func (s *Session) Name() string { return s.name }

// SetDescription sets the optional layout description.
func (s *Session) SetDescription(d string) { s.description = d }

// Description returns the optional layout description.
func (s *Session) Description() string { return s.description }

// FilePath returns the selected source file path, empty before
// SelectFile.
func (s *Session) FilePath() string { return s.filePath }

// SetBusinessRules replaces the session's business-rule switches.
func (s *Session) SetBusinessRules(rules layout.BusinessRules) {
	s.businessRules = rules
}

// BusinessRules returns the session's current business-rule switches.
func (s *Session) BusinessRules() layout.BusinessRules { return s.businessRules }

// ProcessFile reads the header of the selected file at the current
// header row and populates the column list. On failure the session
// stays in its prior state and the error text is kept for the caller;
// lower-layer error types do not cross this boundary. It may be called
// again after changing the header row index.
func (s *Session) ProcessFile() error {
	if s.filePath == "" {
		return s.fail("no file selected")
	}

	header, err := s.ingestor.ReadHeader(s.filePath, s.headerRowIndex)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return s.fail(fmt.Sprintf("unsupported file format: %s", filepath.Ext(s.filePath)))
		}
		return s.fail(fmt.Sprintf("could not read file: %v", err))
	}
	if len(header) == 0 {
		return s.fail(fmt.Sprintf("no header found at row %d", s.headerRowIndex))
	}

	s.columns = make([]Column, len(header))
	for i, name := range header {
		s.columns[i] = Column{Name: name, Index: i}
	}
	s.state = StateColumnsIdentified
	s.status = fmt.Sprintf("%d columns identified", len(header))
	return nil
}

// BindField updates the mapping for a catalog field. A nil column
// unbinds the field. overrideRequired, when non-nil, replaces the
// catalog's required flag for this mapping only. The first binding
// moves the session into the editing state.
func (s *Session) BindField(targetField string, column *Column, defaultValue string, overrideRequired *bool) error {
	i := s.mappingIndex(targetField)
	if i < 0 {
		return fmt.Errorf("unknown target field: %s", targetField)
	}

	m := &s.mappings[i]
	if column != nil {
		m.SourceColumnName = column.Name
		m.SourceColumnIndex = column.Index
	} else {
		m.SourceColumnName = ""
		m.SourceColumnIndex = layout.UnboundColumn
	}
	m.DefaultValue = defaultValue
	if overrideRequired != nil {
		m.Required = *overrideRequired
	}

	if s.state == StateColumnsIdentified || s.state == StateSaved {
		s.state = StateEditing
	}
	return nil
}

// SetTransformation attaches (or, with nil, removes) a transformation
// descriptor on a field's mapping. The session only stores the
// descriptor; execution belongs to the transform registry.
func (s *Session) SetTransformation(targetField string, t *layout.Transformation) error {
	i := s.mappingIndex(targetField)
	if i < 0 {
		return fmt.Errorf("unknown target field: %s", targetField)
	}
	s.mappings[i].Transformation = t
	if s.state == StateColumnsIdentified || s.state == StateSaved {
		s.state = StateEditing
	}
	return nil
}

// CurrentErrors validates the configuration the session would save
// right now. It is a pure query; session state does not change.
func (s *Session) CurrentErrors() layout.ValidationResult {
	cfg := s.buildConfiguration()
	return layout.Validate(cfg, s.catalog)
}

// Save validates and persists the current configuration. A blocked
// validation returns a ValidationFailedError with the full error list
// and leaves the session state unchanged; a persistence failure does
// the same with a session-level message. On success the session moves
// to Saved and registered callbacks receive the saved configuration.
func (s *Session) Save() (layout.Configuration, error) {
	if !s.Ready() {
		return layout.Configuration{}, ErrNotReady
	}

	cfg := s.buildConfiguration()
	if result := layout.Validate(cfg, s.catalog); !result.Valid {
		s.status = "validation failed"
		return layout.Configuration{}, &ValidationFailedError{Result: result}
	}

	if err := s.store.Save(&cfg); err != nil {
		s.status = "could not save layout"
		return layout.Configuration{}, fmt.Errorf("could not save layout %q: %v", cfg.Name, err)
	}

	// Keep identity and server-assigned fields so a re-save updates the
	// same document without losing its creation timestamp.
	s.layoutID = cfg.ID
	s.createdAt = cfg.CreatedAt
	s.metadata = cfg.Metadata
	s.state = StateSaved
	s.status = "layout saved"

	for _, fn := range s.onSaved {
		fn(cfg)
	}
	return cfg, nil
}

// OnSaved registers a callback invoked with every successfully saved
// configuration.
func (s *Session) OnSaved(fn func(layout.Configuration)) {
	s.onSaved = append(s.onSaved, fn)
}

// Reset clears the file selection, columns, bindings, and identity,
// returning the session to Empty. Registered callbacks survive.
func (s *Session) Reset() {
	s.state = StateEmpty
	s.filePath = ""
	s.sourceFileName = ""
	s.headerRowIndex = 1
	s.columns = nil
	s.layoutID = ""
	s.createdAt = time.Time{}
	s.name = ""
	s.description = ""
	s.status = ""
	s.businessRules = layout.DefaultBusinessRules()
	s.metadata = layout.Metadata{}

	fields := s.catalog.Fields()
	s.mappings = make([]layout.FieldMapping, len(fields))
	for i, f := range fields {
		s.mappings[i] = layout.FieldMapping{
			TargetField:       f.Name,
			SourceColumnIndex: layout.UnboundColumn,
			Required:          f.Required,
			DataType:          f.DataType,
			Format:            f.Format,
			AllowedValues:     f.AllowedValues,
		}
	}
}

// buildConfiguration assembles the configuration the session would
// persist from its current state.
func (s *Session) buildConfiguration() layout.Configuration {
	mappings := make([]layout.FieldMapping, len(s.mappings))
	copy(mappings, s.mappings)

	return layout.Configuration{
		ID:             s.layoutID,
		CreatedAt:      s.createdAt,
		Name:           s.name,
		Description:    s.description,
		SourceFileName: s.sourceFileName,
		HeaderRowIndex: s.headerRowIndex,
		BusinessRules:  s.businessRules,
		Mappings:       mappings,
		Metadata:       s.metadata,
	}
}

func (s *Session) mappingIndex(targetField string) int {
	for i := range s.mappings {
		if s.mappings[i].TargetField == targetField {
			return i
		}
	}
	return -1
}

// fail records a status message and returns it as a session-level
// error.
func (s *Session) fail(msg string) error {
	s.status = msg
	return errors.New(msg)
}
