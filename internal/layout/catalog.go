package layout

import (
	"sort"
	"strings"
)

// Data type tags used by catalog fields and mappings.
const (
	TypeString  = "string"
	TypeDate    = "date"
	TypeNumeric = "numeric"
	TypeEnum    = "enum"
)

// Category names produced by CategoryOf.
const (
	CategoryEmployee       = "Employee"
	CategoryPosition       = "Position"
	CategoryDepartment     = "Department"
	CategoryCostCenter     = "CostCenter"
	CategoryUnit           = "Unit"
	CategoryShift          = "Shift"
	CategoryIdentification = "Identification"
)

// Field is one entry of the static field catalog: a target schema field
// available for binding.
type Field struct {
	Name          string   `json:"name"`
	DataType      string   `json:"dataType"`
	Required      bool     `json:"required"`
	Category      string   `json:"category"`
	Format        string   `json:"format,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
}

// Catalog is the fixed list of target fields. It is built once at
// process start and passed by value into the validator and metadata
// computer; it is never mutated afterwards.
type Catalog struct {
	fields []Field
	byName map[string]int
}

// Allowed value sets for the enumerated fields.
var (
	sexValues = []string{"MASCULINO", "FEMININO"}

	maritalStatusValues = []string{
		"SOLTEIRO", "CASADO", "SEPARADO", "DIVORCIADO", "VIUVO",
		"OUTROS", "DESQUITADO", "UNIAO_ESTAVEL",
	}

	contractTypeValues = []string{
		"CLT", "COOPERADO", "TERCERIZADO", "AUTONOMO", "TEMPORARIO",
		"PESSOA_JURIDICA", "ESTAGIARIO", "MENOR_APRENDIZ", "ESTATUTARIO",
		"COMISSIONADO_INTERNO", "COMISSIONADO_EXTERNO", "APOSENTADO",
		"APOSENTADO_INATIVO_PREFEITURA", "PENSIONISTA",
		"SERVIDOR_PUBLICO_EFETIVO", "EXTRANUMERARIO", "AUTARQUICO",
		"INATIVO", "TITULO_PRECARIO",
		"SERVIDOR_ADM_CENTRALIZADA_OU_DESCENTRALIZADA",
	}

	workRegimeValues = []string{"NORMAL", "TURNO"}

	employeeStatusValues = []string{"ATIVO", "AFASTADO", "PENDENTE", "FERIAS", "INATIVO"}

	brazilianStateValues = []string{
		"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG",
		"MS", "MT", "PA", "PB", "PE", "PI", "PR", "RJ", "RN", "RO", "RR",
		"RS", "SC", "SE", "SP", "TO",
	}
)

// NewCatalog builds the built-in field catalog.
func NewCatalog() Catalog {
	fields := []Field{
		{Name: "nomeFuncionario", DataType: TypeString, Required: true},
		{Name: "cpf", DataType: TypeString, Format: "###.###.###-##"},
		{Name: "matricula", DataType: TypeString},
		{Name: "dataAdmissao", DataType: TypeDate, Required: true, Format: "dd/MM/yyyy"},
		{Name: "dataNascimento", DataType: TypeDate, Required: true, Format: "dd/MM/yyyy"},
		{Name: "sexo", DataType: TypeEnum, Required: true, AllowedValues: sexValues},
		{Name: "estadoCivil", DataType: TypeEnum, Required: true, AllowedValues: maritalStatusValues},
		{Name: "situacao", DataType: TypeEnum, AllowedValues: employeeStatusValues},
		{Name: "email", DataType: TypeString},
		{Name: "telefone", DataType: TypeString},
		{Name: "endereco", DataType: TypeString},
		{Name: "estado", DataType: TypeEnum, AllowedValues: brazilianStateValues},
		{Name: "codigoEmpresa", DataType: TypeString, Required: true},
		{Name: "tipoContratacao", DataType: TypeEnum, Required: true, AllowedValues: contractTypeValues},
		{Name: "regimeTrabalho", DataType: TypeEnum, Required: true, AllowedValues: workRegimeValues},
		{Name: "cargo.nome", DataType: TypeString},
		{Name: "cargo.codigo", DataType: TypeString},
		{Name: "setor.nome", DataType: TypeString},
		{Name: "setor.codigo", DataType: TypeString},
		{Name: "centroCusto.nome", DataType: TypeString},
		{Name: "centroCusto.codigo", DataType: TypeString},
		{Name: "unidade.nome", DataType: TypeString},
		{Name: "unidade.codigo", DataType: TypeString},
		{Name: "turno.nome", DataType: TypeString},
		{Name: "turno.codigo", DataType: TypeString},
	}

	byName := make(map[string]int, len(fields))
	for i := range fields {
		fields[i].Category = CategoryOf(fields[i].Name)
		byName[fields[i].Name] = i
	}

	return Catalog{fields: fields, byName: byName}
}

// Fields returns the catalog entries in declaration order.
// The returned slice is a copy; callers may not mutate the catalog.
func (c Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Lookup returns the catalog entry for a field name.
func (c Catalog) Lookup(name string) (Field, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Len returns the number of catalog fields.
func (c Catalog) Len() int { return len(c.fields) }

// RequiredFields returns the names of all fields flagged required.
func (c Catalog) RequiredFields() []string {
	var names []string
	for _, f := range c.fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Categories returns the distinct categories present in the catalog, sorted.
func (c Catalog) Categories() []string {
	seen := make(map[string]bool)
	for _, f := range c.fields {
		seen[f.Category] = true
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// identificationFields are field names assigned to the Identification
// category by exact match.
var identificationFields = map[string]bool{
	"codigoEmpresa":   true,
	"tipoContratacao": true,
	"regimeTrabalho":  true,
}

// categoryPrefixes maps target-field name prefixes to categories,
// checked in order before the exact-match rule.
var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"cargo.", CategoryPosition},
	{"setor.", CategoryDepartment},
	{"centroCusto.", CategoryCostCenter},
	{"unidade.", CategoryUnit},
	{"turno.", CategoryShift},
}

// CategoryOf assigns a category to a target field name. The rule is
// total: every name maps to exactly one category, with Employee as the
// catch-all.
func CategoryOf(field string) string {
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(field, p.prefix) {
			return p.category
		}
	}
	if identificationFields[field] {
		return CategoryIdentification
	}
	return CategoryEmployee
}
