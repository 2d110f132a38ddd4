package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importador/internal/ingest"
	"importador/internal/layout"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	store, err := layout.NewStore(t.TempDir(), layout.NewCatalog())
	require.NoError(t, err)
	return New(ingest.New(), store, layout.NewCatalog())
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "funcionarios.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// processFixture walks a fresh session through file selection and
// column identification.
func processFixture(t *testing.T, sess *Session, content string) {
	t.Helper()
	sess.SelectFile(writeFixture(t, content))
	require.NoError(t, sess.ProcessFile())
}

func TestSession_InitialState(t *testing.T) {
	sess := newTestSession(t)

	assert.Equal(t, StateEmpty, sess.State())
	assert.False(t, sess.Ready())
	assert.Equal(t, 1, sess.HeaderRowIndex())
	assert.Equal(t, layout.DefaultBusinessRules(), sess.BusinessRules())
	// One mapping per catalog field, all unbound.
	assert.Len(t, sess.Mappings(), layout.NewCatalog().Len())
	for _, m := range sess.Mappings() {
		assert.False(t, m.Bound(), "field %s should start unbound", m.TargetField)
	}
}

func TestSession_SelectFile(t *testing.T) {
	sess := newTestSession(t)

	sess.SelectFile("/tmp/qualquer/folha.csv")

	assert.Equal(t, StateFileSelected, sess.State())
	assert.Equal(t, "/tmp/qualquer/folha.csv", sess.FilePath())
	assert.Empty(t, sess.Columns(), "columns are read only on process")
}

func TestSession_ProcessFile(t *testing.T) {
	sess := newTestSession(t)

	processFixture(t, sess, "Nome,CPF,Cargo\nAna,123,Analista\n")

	assert.Equal(t, StateColumnsIdentified, sess.State())
	require.Len(t, sess.Columns(), 3)
	assert.Equal(t, Column{Name: "Nome", Index: 0}, sess.Columns()[0])
	assert.Equal(t, Column{Name: "Cargo", Index: 2}, sess.Columns()[2])
	assert.Equal(t, "3 columns identified", sess.Status())
}

func TestSession_ProcessFileWithoutSelection(t *testing.T) {
	sess := newTestSession(t)

	err := sess.ProcessFile()

	require.Error(t, err)
	assert.Equal(t, "no file selected", err.Error())
	assert.Equal(t, StateEmpty, sess.State())
}

func TestSession_ProcessFileNoHeader(t *testing.T) {
	sess := newTestSession(t)
	sess.SelectFile(writeFixture(t, "Nome,Cargo\nAna,Analista\n"))
	sess.SetHeaderRowIndex(9)

	err := sess.ProcessFile()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header found at row 9")
	assert.Equal(t, StateFileSelected, sess.State(), "failure keeps the prior state")
	assert.Equal(t, err.Error(), sess.Status())

	// Correcting the header row recovers without reselecting the file.
	sess.SetHeaderRowIndex(1)
	require.NoError(t, sess.ProcessFile())
	assert.Equal(t, StateColumnsIdentified, sess.State())
}

func TestSession_ProcessFileUnsupportedFormat(t *testing.T) {
	sess := newTestSession(t)
	path := filepath.Join(t.TempDir(), "dados.txt")
	require.NoError(t, os.WriteFile(path, []byte("Nome\nAna\n"), 0o644))
	sess.SelectFile(path)

	err := sess.ProcessFile()

	require.Error(t, err)
	assert.Equal(t, "unsupported file format: .txt", err.Error())
}

func TestSession_BindField(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome,CPF\nAna,123\n")
	col := sess.Columns()[0]

	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))

	assert.Equal(t, StateEditing, sess.State())
	m := sess.Mappings()[mappingFor(t, sess, "nomeFuncionario")]
	assert.Equal(t, "Nome", m.SourceColumnName)
	assert.Equal(t, 0, m.SourceColumnIndex)
	assert.True(t, m.Bound())
}

func TestSession_BindFieldUnknownTarget(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	col := sess.Columns()[0]

	err := sess.BindField("campoInexistente", &col, "", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target field")
}

func TestSession_BindFieldUnbind(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	col := sess.Columns()[0]
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))

	require.NoError(t, sess.BindField("nomeFuncionario", nil, "", nil))

	m := sess.Mappings()[mappingFor(t, sess, "nomeFuncionario")]
	assert.False(t, m.Bound())
	assert.Empty(t, m.SourceColumnName)
}

func TestSession_BindFieldDuplicateColumnAllowed(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	col := sess.Columns()[0]

	// Binding the same column twice is not rejected here; it surfaces
	// as a validation error instead.
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))
	require.NoError(t, sess.BindField("cargo.nome", &col, "", nil))

	result := sess.CurrentErrors()
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "mapped to multiple fields") {
			found = true
		}
	}
	assert.True(t, found, "expected duplicate-column validation error, got %v", result.Errors)
}

func TestSession_BindFieldRequiredOverride(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	col := sess.Columns()[0]

	override := false
	require.NoError(t, sess.BindField("sexo", &col, "MASCULINO", &override))

	m := sess.Mappings()[mappingFor(t, sess, "sexo")]
	assert.False(t, m.Required)
	assert.Equal(t, "MASCULINO", m.DefaultValue)
}

func TestSession_SetTransformation(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome,Admissao\nAna,01/02/2024\n")

	tr := &layout.Transformation{
		Type:   "format_date",
		Params: map[string]any{"from": "dd/MM/yyyy", "to": "yyyy-MM-dd"},
	}
	require.NoError(t, sess.SetTransformation("dataAdmissao", tr))

	m := sess.Mappings()[mappingFor(t, sess, "dataAdmissao")]
	require.NotNil(t, m.Transformation)
	assert.Equal(t, "format_date", m.Transformation.Type)

	require.NoError(t, sess.SetTransformation("dataAdmissao", nil))
	assert.Nil(t, sess.Mappings()[mappingFor(t, sess, "dataAdmissao")].Transformation)
}

func TestSession_ReadyToSaveIsDerived(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")

	assert.Equal(t, StateColumnsIdentified, sess.State())
	assert.False(t, sess.Ready())

	sess.SetName("Folha mensal")
	assert.True(t, sess.Ready())
	assert.Equal(t, StateReadyToSave, sess.State())

	// Blanking the name drops readiness again.
	sess.SetName("   ")
	assert.False(t, sess.Ready())
	assert.Equal(t, StateColumnsIdentified, sess.State())
}

func TestSession_SaveNotReady(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Save()

	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSession_SaveValidationFailure(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	sess.SetName("Folha")
	col := sess.Columns()[0]
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))
	require.NoError(t, sess.BindField("cargo.nome", &col, "", nil))

	_, err := sess.Save()

	var vErr *ValidationFailedError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Result.Errors)
	assert.NotEqual(t, StateSaved, sess.State())
	assert.Equal(t, "validation failed", sess.Status())
}

func TestSession_SaveAndResave(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome,CPF\nAna,123\n")
	sess.SetName("Folha mensal")
	sess.SetDescription("importa a folha")
	col := sess.Columns()[0]
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))

	var notified []layout.Configuration
	sess.OnSaved(func(cfg layout.Configuration) { notified = append(notified, cfg) })

	cfg, err := sess.Save()
	require.NoError(t, err)

	assert.Equal(t, StateSaved, sess.State())
	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, "Folha mensal", cfg.Name)
	assert.Equal(t, "funcionarios.csv", cfg.SourceFileName)
	assert.Equal(t, 1, cfg.Metadata.MappedFieldCount)
	assert.False(t, cfg.CreatedAt.IsZero())
	require.Len(t, notified, 1)

	// A further edit re-enters editing; re-saving updates the same
	// document instead of creating a new one, and the creation
	// timestamp survives the re-save.
	cpf := sess.Columns()[1]
	require.NoError(t, sess.BindField("cpf", &cpf, "", nil))
	assert.Equal(t, StateReadyToSave, sess.State())

	again, err := sess.Save()
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, again.ID)
	assert.Equal(t, 2, again.Metadata.MappedFieldCount)
	assert.True(t, again.CreatedAt.Equal(cfg.CreatedAt),
		"re-save must keep createdAt, got %v then %v", cfg.CreatedAt, again.CreatedAt)
	assert.False(t, again.UpdatedAt.IsZero())
	assert.Len(t, notified, 2)

	loaded, err := sess.store.Load(cfg.ID)
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(cfg.CreatedAt),
		"stored document must keep createdAt across re-save")
}

func TestSession_Reset(t *testing.T) {
	sess := newTestSession(t)
	processFixture(t, sess, "Nome\nAna\n")
	sess.SetName("Folha")
	col := sess.Columns()[0]
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))

	saves := 0
	sess.OnSaved(func(layout.Configuration) { saves++ })
	_, err := sess.Save()
	require.NoError(t, err)

	sess.Reset()

	assert.Equal(t, StateEmpty, sess.State())
	assert.Empty(t, sess.FilePath())
	assert.Empty(t, sess.Name())
	assert.Empty(t, sess.Columns())
	for _, m := range sess.Mappings() {
		assert.False(t, m.Bound())
	}

	// Callbacks survive a reset.
	processFixture(t, sess, "Nome\nAna\n")
	sess.SetName("Outra folha")
	col = sess.Columns()[0]
	require.NoError(t, sess.BindField("nomeFuncionario", &col, "", nil))
	_, err = sess.Save()
	require.NoError(t, err)
	assert.Equal(t, 2, saves)
}

func mappingFor(t *testing.T, sess *Session, target string) int {
	t.Helper()
	for i, m := range sess.Mappings() {
		if m.TargetField == target {
			return i
		}
	}
	t.Fatalf("no mapping for %s", target)
	return -1
}

func TestManager(t *testing.T) {
	store, err := layout.NewStore(t.TempDir(), layout.NewCatalog())
	require.NoError(t, err)
	mgr := NewManager(ingest.New(), store, layout.NewCatalog())

	id, sess := mgr.Create()
	assert.NotEmpty(t, id)
	require.NotNil(t, sess)
	assert.Equal(t, 1, mgr.Count())

	got, ok := mgr.Get(id)
	assert.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = mgr.Get("desconhecido")
	assert.False(t, ok)

	assert.True(t, mgr.Close(id))
	assert.False(t, mgr.Close(id))
	assert.Equal(t, 0, mgr.Count())
}
