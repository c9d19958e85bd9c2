package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Entrega es el registro inmutable de una entrega parcial de un material.
// Una vez creada nunca se edita ni se borra desde este flujo.
type Entrega struct {
	Cantidad decimal.Decimal `json:"cantidad"`
	Fecha    string          `json:"fecha"` // RFC3339; "" si el backend mandó basura
}

// ItemOferta es una partida de material dentro de una oferta confeccionada.
// Los punteros distinguen "el backend no lo informó" de "cero": el pendiente
// pre-calculado por el backend puede incorporar reservas que el cliente no
// puede derivar solo de las entregas.
type ItemOferta struct {
	MaterialCodigo string          `json:"material_codigo"`
	Descripcion    string          `json:"descripcion"`
	Precio         decimal.Decimal `json:"precio"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Categoria      string          `json:"categoria"`
	Seccion        string          `json:"seccion"`
	Entregas       []Entrega       `json:"entregas"`

	CantidadPendientePorEntregar *decimal.Decimal `json:"cantidad_pendiente_por_entregar,omitempty"`
	CantidadEnServicio           *decimal.Decimal `json:"cantidad_en_servicio,omitempty"`
	EnServicio                   *bool            `json:"en_servicio,omitempty"`

	// Crudo conserva el item tal como llegó del backend; al escribir se
	// reenvían también los campos que este servicio no modela.
	Crudo map[string]any `json:"-"`
}

// Oferta es una oferta confeccionada normalizada. UID es identidad de lista
// solo del lado cliente y nunca viaja al backend; los IDs persistidos pueden
// venir en cualquiera de los cuatro campos, o en ninguno.
type Oferta struct {
	UID          string       `json:"_uid"`
	ID           string       `json:"id,omitempty"`
	MongoID      string       `json:"_id,omitempty"`
	OfertaID     string       `json:"oferta_id,omitempty"`
	NumeroOferta string       `json:"numero_oferta,omitempty"`
	Nombre       string       `json:"nombre,omitempty"`
	Estado       string       `json:"estado,omitempty"`
	Items        []ItemOferta `json:"items"`

	Crudo map[string]any `json:"-"`
}

// CandidatosID devuelve los posibles IDs persistidos en el orden de prioridad
// de búsqueda (_id, oferta_id, numero_oferta, id).
func (o *Oferta) CandidatosID() []string {
	return []string{o.MongoID, o.OfertaID, o.NumeroOferta, o.ID}
}

// Payload reconstruye el cuerpo a enviar al backend: los campos originales de
// la oferta más los items actualizados bajo "items" y "materiales". El UID de
// cliente se elimina siempre.
func (o *Oferta) Payload() map[string]any {
	out := make(map[string]any, len(o.Crudo)+2)
	for k, v := range o.Crudo {
		out[k] = v
	}
	delete(out, "_uid")

	items := make([]map[string]any, len(o.Items))
	for i := range o.Items {
		items[i] = o.Items[i].Payload()
	}
	out["items"] = items
	out["materiales"] = items
	return out
}

// Payload reconstruye el item crudo con los campos normalizados y las
// entregas actuales por encima.
func (it *ItemOferta) Payload() map[string]any {
	out := make(map[string]any, len(it.Crudo)+7)
	for k, v := range it.Crudo {
		out[k] = v
	}
	out["material_codigo"] = it.MaterialCodigo
	out["descripcion"] = it.Descripcion
	out["precio"] = json.Number(it.Precio.String())
	out["cantidad"] = json.Number(it.Cantidad.String())
	out["categoria"] = it.Categoria
	out["seccion"] = it.Seccion

	entregas := make([]map[string]any, len(it.Entregas))
	for i, e := range it.Entregas {
		entregas[i] = map[string]any{
			"cantidad": json.Number(e.Cantidad.String()),
			"fecha":    e.Fecha,
		}
	}
	out["entregas"] = entregas

	if it.CantidadPendientePorEntregar != nil {
		out["cantidad_pendiente_por_entregar"] = json.Number(it.CantidadPendientePorEntregar.String())
	} else {
		delete(out, "cantidad_pendiente_por_entregar")
	}
	return out
}

// TotalEntregado suma las cantidades de todas las entregas del item.
func (it *ItemOferta) TotalEntregado() decimal.Decimal {
	total := decimal.Zero
	for _, e := range it.Entregas {
		total = total.Add(e.Cantidad)
	}
	return total
}
