package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/solarix/entregas-api/internal/domain/entity"
)

// Calculadora del libro de entregas. Se recalcula completo en cada cambio de
// oferta; no guarda estado mutable.

var cien = decimal.NewFromInt(100)

// Linea es la vista contable de una partida: cuánto se contrató, cuánto se
// entregó y cuánto queda pendiente.
type Linea struct {
	Clave          string          `json:"clave"`
	Indice         int             `json:"indice"`
	MaterialCodigo string          `json:"material_codigo"`
	Descripcion    string          `json:"descripcion"`
	CantidadTotal  decimal.Decimal `json:"cantidad_total"`
	TotalEntregado decimal.Decimal `json:"total_entregado"`
	Pendiente      decimal.Decimal `json:"pendiente"`
	NumEntregas    int             `json:"num_entregas"`
}

// Libro agrupa las líneas de una oferta normalizada.
type Libro struct {
	Lineas []Linea `json:"lineas"`
}

// Resumen agrega el libro completo para cabeceras y tarjetas de progreso.
type Resumen struct {
	TotalItems         int             `json:"total_items"`
	ConEntregas        int             `json:"con_entregas"`
	ConPendiente       int             `json:"con_pendiente"`
	UnidadesTotales    decimal.Decimal `json:"unidades_totales"`
	UnidadesEntregadas decimal.Decimal `json:"unidades_entregadas"`
	UnidadesPendientes decimal.Decimal `json:"unidades_pendientes"`
	Avance             int             `json:"avance"` // % redondeado, tope 100
}

// ClaveItem identifica una partida dentro de la oferta: el código de material
// si existe, si no la posición.
func ClaveItem(it *entity.ItemOferta, indice int) string {
	if it.MaterialCodigo != "" {
		return it.MaterialCodigo
	}
	return fmt.Sprintf("item-%d", indice)
}

// Calcular deriva el libro de los items de una oferta.
//
// El pendiente tiene doble vía: si el backend informó
// cantidad_pendiente_por_entregar (finito), ese valor manda, porque puede
// incorporar reglas de negocio (reservas) que el cliente no puede derivar de
// las entregas; si no, total − Σentregado. En ambas vías el resultado se
// recorta a un mínimo de 0.
func Calcular(items []entity.ItemOferta) Libro {
	lineas := make([]Linea, 0, len(items))
	for i := range items {
		it := &items[i]
		total := it.Cantidad
		entregado := it.TotalEntregado()

		var pendiente decimal.Decimal
		if it.CantidadPendientePorEntregar != nil {
			pendiente = *it.CantidadPendientePorEntregar
		} else {
			pendiente = total.Sub(entregado)
		}
		// Tras normalizar, el pendiente nunca es negativo: ni el derivado con
		// sobre-entregas ni un valor informado corrupto.
		if pendiente.IsNegative() {
			pendiente = decimal.Zero
		}

		lineas = append(lineas, Linea{
			Clave:          ClaveItem(it, i),
			Indice:         i,
			MaterialCodigo: it.MaterialCodigo,
			Descripcion:    it.Descripcion,
			CantidadTotal:  total,
			TotalEntregado: entregado,
			Pendiente:      pendiente,
			NumEntregas:    len(it.Entregas),
		})
	}
	return Libro{Lineas: lineas}
}

// Entregadas devuelve las líneas con al menos una entrega registrada.
// Una línea puede estar a la vez aquí y en Pendientes.
func (l Libro) Entregadas() []Linea {
	var out []Linea
	for _, ln := range l.Lineas {
		if ln.NumEntregas > 0 {
			out = append(out, ln)
		}
	}
	return out
}

// Pendientes devuelve las líneas con cantidad pendiente positiva.
func (l Libro) Pendientes() []Linea {
	var out []Linea
	for _, ln := range l.Lineas {
		if ln.Pendiente.IsPositive() {
			out = append(out, ln)
		}
	}
	return out
}

// BuscarPorClave localiza una línea por su clave de partida.
func (l Libro) BuscarPorClave(clave string) (Linea, bool) {
	for _, ln := range l.Lineas {
		if ln.Clave == clave {
			return ln, true
		}
	}
	return Linea{}, false
}

// Resumen agrega todas las líneas. Avance = round(min(100, 100·entregado/total));
// 0 si el total contratado es 0 para evitar la división por cero.
func (l Libro) Resumen() Resumen {
	r := Resumen{TotalItems: len(l.Lineas)}
	for _, ln := range l.Lineas {
		if ln.NumEntregas > 0 {
			r.ConEntregas++
		}
		if ln.Pendiente.IsPositive() {
			r.ConPendiente++
		}
		r.UnidadesTotales = r.UnidadesTotales.Add(ln.CantidadTotal)
		r.UnidadesEntregadas = r.UnidadesEntregadas.Add(ln.TotalEntregado)
		r.UnidadesPendientes = r.UnidadesPendientes.Add(ln.Pendiente)
	}

	if r.UnidadesTotales.IsPositive() {
		avance := r.UnidadesEntregadas.Mul(cien).Div(r.UnidadesTotales)
		if avance.GreaterThan(cien) {
			avance = cien
		}
		r.Avance = int(avance.Round(0).IntPart())
	}
	return r
}
