package domain

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq       Operator = "="
	OpGte      Operator = ">="
	OpLte      Operator = "<="
	OpContains Operator = "CONTAINS" // subcadena, sin distinguir mayúsculas
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado.
// Cada repositorio decide cómo traducirla a su motor (SQL, BSON...).
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

// CompositeCriteria combina criterios con AND.
type CompositeCriteria struct {
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		if crit == nil {
			continue
		}
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// And crea un CompositeCriteria
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Criterias: criterias}
}

// Conditions es nil-safe: un criterio nil equivale a "sin filtros".
func Conditions(c Criteria) []Criterion {
	if c == nil {
		return nil
	}
	return c.ToConditions()
}
