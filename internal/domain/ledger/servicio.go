package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solarix/entregas-api/internal/domain/entity"
)

// Categorización de equipos principales para el resumen "en servicio" de la
// vista de instalaciones. Heurística por sección/descripción/código, igual
// que la clasificación histórica del panel comercial.

// Categorías de equipo reconocidas.
const (
	CategoriaInversores = "inversores"
	CategoriaPaneles    = "paneles"
	CategoriaBaterias   = "baterias"
)

// CategoriaEquipo clasifica una partida como inversor, panel o batería.
// Devuelve "" si no corresponde a ningún equipo principal.
func CategoriaEquipo(it *entity.ItemOferta) string {
	descripcion := strings.ToLower(it.Descripcion)
	codigo := strings.ToLower(it.MaterialCodigo)
	seccion := strings.ToLower(it.Seccion)

	switch {
	case strings.Contains(seccion, "inversor"),
		strings.Contains(descripcion, "inversor"),
		strings.Contains(codigo, "inv"):
		return CategoriaInversores
	case strings.Contains(seccion, "panel"),
		strings.Contains(descripcion, "panel"),
		strings.Contains(codigo, "pan"):
		return CategoriaPaneles
	case strings.Contains(seccion, "bateria"),
		strings.Contains(seccion, "batería"),
		strings.Contains(descripcion, "bateria"),
		strings.Contains(descripcion, "batería"),
		strings.Contains(codigo, "bat"):
		return CategoriaBaterias
	}
	return ""
}

// ResumenServicio acumula unidades en servicio por categoría de equipo.
type ResumenServicio struct {
	Inversores decimal.Decimal `json:"inversores_en_servicio"`
	Paneles    decimal.Decimal `json:"paneles_en_servicio"`
	Baterias   decimal.Decimal `json:"baterias_en_servicio"`
	Tiene      bool            `json:"tiene_alguno_en_servicio"`
}

// CalcularEnServicio recorre las ofertas de un cliente y suma los equipos en
// servicio. Si el item trae cantidad_en_servicio positiva se usa esa; si solo
// trae en_servicio=true se cuenta max(1, cantidad).
func CalcularEnServicio(ofertas []entity.Oferta) ResumenServicio {
	var r ResumenServicio
	uno := decimal.NewFromInt(1)

	for oi := range ofertas {
		for ii := range ofertas[oi].Items {
			it := &ofertas[oi].Items[ii]
			categoria := CategoriaEquipo(it)
			if categoria == "" {
				continue
			}

			incremento := decimal.Zero
			if it.CantidadEnServicio != nil && it.CantidadEnServicio.IsPositive() {
				incremento = *it.CantidadEnServicio
			} else if it.EnServicio != nil && *it.EnServicio {
				incremento = it.Cantidad
				if incremento.LessThan(uno) {
					incremento = uno
				}
			}
			if !incremento.IsPositive() {
				continue
			}

			switch categoria {
			case CategoriaInversores:
				r.Inversores = r.Inversores.Add(incremento)
			case CategoriaPaneles:
				r.Paneles = r.Paneles.Add(incremento)
			case CategoriaBaterias:
				r.Baterias = r.Baterias.Add(incremento)
			}
		}
	}

	r.Tiene = r.Inversores.IsPositive() || r.Paneles.IsPositive() || r.Baterias.IsPositive()
	return r
}
