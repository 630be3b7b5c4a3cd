// Package shift holds the static shift catalog and the completion rules that
// decide which predefined activities are still offered to an operator.
package shift

// Definition describes one 8-hour shift window and its activity catalog.
// Definitions are read-only at runtime.
type Definition struct {
	ID          string
	DisplayName string
	TimeWindow  string
	// Predefined is the ordered list of one-click activity names offered
	// during the shift. Validation-type entries carry their '#...#' wrap.
	Predefined []string
	// Recurring names are expected several times per shift and are never
	// hidden by completion.
	Recurring []string
}

// IsPredefined reports whether base matches one of the shift's catalog names.
func (d Definition) IsPredefined(base string) bool {
	for _, name := range d.Predefined {
		if name == base {
			return true
		}
	}
	return false
}

// IsRecurring reports whether base is in the shift's recurring subset.
func (d Definition) IsRecurring(base string) bool {
	for _, name := range d.Recurring {
		if name == base {
			return true
		}
	}
	return false
}

// Catalog is the immutable shift configuration table injected into the
// components that need it.
type Catalog struct {
	defs []Definition
}

// NewCatalog builds a catalog from the provided definitions, keeping order.
func NewCatalog(defs ...Definition) Catalog {
	copied := make([]Definition, len(defs))
	copy(copied, defs)
	return Catalog{defs: copied}
}

// Get returns the definition for a shift id.
func (c Catalog) Get(id string) (Definition, bool) {
	for _, def := range c.defs {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// All returns the definitions in catalog order.
func (c Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// ForHour maps a wall-clock hour to the default shift id. This is a
// presentation-time default only; the operator can always pick another shift.
func ForHour(hour int) string {
	switch {
	case hour >= 0 && hour < 8:
		return "velada"
	case hour >= 8 && hour < 16:
		return "dia"
	default:
		return "tarde"
	}
}

// Default returns the production catalog for the three operator shifts.
func Default() Catalog {
	return NewCatalog(
		Definition{
			ID:          "velada",
			DisplayName: "Velada",
			TimeWindow:  "00:00 - 08:00",
			Predefined: []string{
				"Monitoreo servicios nocturnos",
				"Carga cobranzas 2AE",
				"Revisión de logs",
				"#Validación enlaces#",
				"Mensajes pendientes respuesta cao",
			},
			Recurring: []string{
				"Monitoreo servicios nocturnos",
				"Mensajes pendientes respuesta cao",
			},
		},
		Definition{
			ID:          "dia",
			DisplayName: "Día",
			TimeWindow:  "08:00 - 16:00",
			Predefined: []string{
				"Correo de carga cobranzas",
				"Carga cobranzas 2AE",
				"Atención tickets soporte",
				"Generación de reportes",
				"#Validación accesos#",
				"Mensajes pendientes respuesta cao",
			},
			Recurring: []string{
				"Atención tickets soporte",
				"Mensajes pendientes respuesta cao",
			},
		},
		Definition{
			ID:          "tarde",
			DisplayName: "Tarde",
			TimeWindow:  "16:00 - 24:00",
			Predefined: []string{
				"Informe monitoreo",
				"Respuesta correos CAO",
				"Cierre de tickets del día",
				"Revisión de logs",
				"Mensajes pendientes respuesta cao",
			},
			Recurring: []string{
				"Mensajes pendientes respuesta cao",
			},
		},
	)
}
