package oferta

import (
	"fmt"

	"github.com/solarix/entregas-api/internal/domain/entity"
)

// Normalizador de payloads de ofertas de confección. El backend devuelve las
// ofertas en varios sobres posibles según la versión desplegada; este
// decodificador por formas es el único punto del servicio que conoce esa
// variabilidad. Transformación pura: nunca falla, la entrada malformada
// degrada a listas vacías o campos en cero.

// NormalizarRespuesta decodifica una respuesta cruda del backend (objeto o
// array ya deserializado de JSON) a la lista canónica de ofertas.
//
// Sobres aceptados, en orden de prioridad:
//  1. {data:{ofertas:[...]}}
//  2. {ofertas:[...]} en la raíz
//  3. [...] (array de ofertas en la raíz)
//  4. una sola oferta bajo data.oferta, data.data, data u oferta en la raíz
//  5. nada reconocible → lista vacía
func NormalizarRespuesta(payload any) []entity.Oferta {
	if lista := aLista(payload); lista != nil {
		return normalizarLista(lista)
	}

	raiz := aMapa(payload)
	if raiz == nil {
		return nil
	}

	data := aMapa(raiz["data"])
	if data != nil {
		if lista := aLista(data["ofertas"]); lista != nil {
			return normalizarLista(lista)
		}
	}
	if lista := aLista(raiz["ofertas"]); lista != nil {
		return normalizarLista(lista)
	}

	// Compatibilidad: backend antiguo con una sola oferta, con o sin sobre
	// data (la clave oferta también puede venir en la raíz).
	candidatos := []any{raiz["oferta"], raiz["data"], raiz}
	if data != nil {
		candidatos = []any{data["oferta"], data["data"], raiz["data"], raiz}
	}
	for _, c := range candidatos {
		m := aMapa(c)
		if m == nil || !pareceOferta(m) {
			continue
		}
		o := normalizarOferta(m, 0)
		return []entity.Oferta{o}
	}

	return nil
}

// pareceOferta decide si un objeto suelto es una oferta: debe exponer al
// menos un campo identificador o un array de items.
func pareceOferta(m map[string]any) bool {
	if primeraCadena(m, "id", "_id", "oferta_id", "numero_oferta") != "" {
		return true
	}
	return aLista(m["items"]) != nil
}

func normalizarLista(lista []any) []entity.Oferta {
	ofertas := make([]entity.Oferta, 0, len(lista))
	for i, raw := range lista {
		m := aMapa(raw)
		if m == nil {
			continue
		}
		ofertas = append(ofertas, normalizarOferta(m, i))
	}
	return ofertas
}

func normalizarOferta(m map[string]any, indice int) entity.Oferta {
	o := entity.Oferta{
		ID:           primeraCadena(m, "id"),
		MongoID:      primeraCadena(m, "_id"),
		OfertaID:     primeraCadena(m, "oferta_id"),
		NumeroOferta: primeraCadena(m, "numero_oferta"),
		Nombre:       primeraCadena(m, "nombre", "nombre_automatico", "nombre_oferta"),
		Estado:       primeraCadena(m, "estado"),
		Crudo:        m,
	}

	// UID de identidad de lista solo-cliente; nunca viaja al backend.
	switch {
	case o.ID != "":
		o.UID = o.ID
	case o.MongoID != "":
		o.UID = o.MongoID
	case o.OfertaID != "":
		o.UID = o.OfertaID
	case o.NumeroOferta != "":
		o.UID = o.NumeroOferta
	default:
		o.UID = fmt.Sprintf("oferta-%d", indice)
	}

	itemsRaw := aLista(m["items"])
	if itemsRaw == nil {
		itemsRaw = aLista(m["materiales"])
	}
	o.Items = make([]entity.ItemOferta, 0, len(itemsRaw))
	for _, itemRaw := range itemsRaw {
		o.Items = append(o.Items, normalizarItem(aMapa(itemRaw)))
	}
	return o
}

func normalizarItem(m map[string]any) entity.ItemOferta {
	if m == nil {
		m = map[string]any{}
	}
	it := entity.ItemOferta{
		MaterialCodigo: aCadena(m["material_codigo"]),
		Descripcion:    aCadena(m["descripcion"]),
		Precio:         aDecimalODefecto(m["precio"]),
		Cantidad:       aDecimalODefecto(m["cantidad"]),
		Categoria:      aCadena(m["categoria"]),
		Seccion:        aCadena(m["seccion"]),
		Crudo:          m,
	}

	// Los pendientes/en-servicio pre-calculados por el backend solo se
	// aceptan si son finitos; ausente ≠ cero.
	if d, ok := aDecimal(m["cantidad_pendiente_por_entregar"]); ok {
		it.CantidadPendientePorEntregar = &d
	}
	if d, ok := aDecimal(m["cantidad_en_servicio"]); ok {
		it.CantidadEnServicio = &d
	}
	if b, ok := m["en_servicio"].(bool); ok {
		it.EnServicio = &b
	}

	entregasRaw := aLista(m["entregas"])
	it.Entregas = make([]entity.Entrega, 0, len(entregasRaw))
	for _, eRaw := range entregasRaw {
		it.Entregas = append(it.Entregas, normalizarEntrega(eRaw))
	}
	return it
}

// normalizarEntrega degrada entradas inválidas a {cantidad:0, fecha:""} en
// lugar de descartarlas, para conservar la longitud del historial.
func normalizarEntrega(raw any) entity.Entrega {
	m := aMapa(raw)
	if m == nil {
		return entity.Entrega{}
	}
	e := entity.Entrega{Cantidad: aDecimalODefecto(m["cantidad"])}
	if s, ok := m["fecha"].(string); ok {
		e.Fecha = s
	}
	return e
}
