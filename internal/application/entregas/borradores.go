package entregas

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
)

// GestorBorradores mantiene la lista ordenada de filas de entrega en edición.
// Invariantes: la lista nunca queda vacía mientras el formulario está visible,
// y dos filas no pueden referenciar la misma partida (eso lo termina de
// imponer la validación del guardado; aquí se evita vía OpcionesParaFila).
type GestorBorradores struct {
	filas []entity.FilaBorrador
	ahora func() time.Time // inyectable en tests
}

// NuevoGestor crea un gestor con una única fila fresca.
func NuevoGestor() *GestorBorradores {
	g := &GestorBorradores{ahora: time.Now}
	g.Reiniciar()
	return g
}

// nuevaFila crea una fila con ID único (timestamp + sufijo aleatorio),
// cantidad "1" y fecha de hoy en hora local, sin componente horario.
func (g *GestorBorradores) nuevaFila() entity.FilaBorrador {
	now := g.ahora()
	return entity.FilaBorrador{
		ID:       fmt.Sprintf("fila-%d-%s", now.UnixNano(), uuid.NewString()[:8]),
		Cantidad: "1",
		Fecha:    now.Local().Format("2006-01-02"),
	}
}

// Filas devuelve una copia de las filas actuales en orden.
func (g *GestorBorradores) Filas() []entity.FilaBorrador {
	out := make([]entity.FilaBorrador, len(g.filas))
	copy(out, g.filas)
	return out
}

// Agregar añade una fila fresca al final.
func (g *GestorBorradores) Agregar() entity.FilaBorrador {
	f := g.nuevaFila()
	g.filas = append(g.filas, f)
	return f
}

// Eliminar quita la fila con ese ID. Si la lista queda vacía se repone con
// una fila fresca: el formulario siempre muestra al menos una.
func (g *GestorBorradores) Eliminar(id string) {
	out := g.filas[:0]
	for _, f := range g.filas {
		if f.ID != id {
			out = append(out, f)
		}
	}
	g.filas = out
	if len(g.filas) == 0 {
		g.filas = []entity.FilaBorrador{g.nuevaFila()}
	}
}

// CambioFila es un parche parcial sobre una fila; nil = sin cambio.
type CambioFila struct {
	ItemClave *string
	Cantidad  *string
	Fecha     *string
}

// Actualizar aplica un merge superficial del parche a la fila con ese ID.
// No-op si el ID no existe.
func (g *GestorBorradores) Actualizar(id string, cambio CambioFila) {
	for i := range g.filas {
		if g.filas[i].ID != id {
			continue
		}
		if cambio.ItemClave != nil {
			g.filas[i].ItemClave = *cambio.ItemClave
		}
		if cambio.Cantidad != nil {
			g.filas[i].Cantidad = *cambio.Cantidad
		}
		if cambio.Fecha != nil {
			g.filas[i].Fecha = *cambio.Fecha
		}
		return
	}
}

// OpcionesParaFila devuelve las partidas elegibles para la fila: solo las que
// tienen pendiente > 0 y no están ya elegidas por OTRA fila. La selección
// actual de la propia fila se conserva en su lista aunque haya dejado de
// estar disponible, para que la UI no borre en silencio una elección válida.
func (g *GestorBorradores) OpcionesParaFila(id string, libro ledger.Libro) []ledger.Linea {
	elegidasPorOtras := make(map[string]bool)
	var propia string
	for _, f := range g.filas {
		if f.ItemClave == "" {
			continue
		}
		if f.ID == id {
			propia = f.ItemClave
			continue
		}
		elegidasPorOtras[f.ItemClave] = true
	}

	var out []ledger.Linea
	for _, ln := range libro.Lineas {
		if elegidasPorOtras[ln.Clave] {
			continue
		}
		if ln.Pendiente.IsPositive() || ln.Clave == propia {
			out = append(out, ln)
		}
	}
	return out
}

// Reiniciar sustituye toda la lista por una única fila fresca. Se invoca al
// cerrar el diálogo, al guardar con éxito y al cambiar de oferta.
func (g *GestorBorradores) Reiniciar() {
	g.filas = []entity.FilaBorrador{g.nuevaFila()}
}

// Hidratar reemplaza las filas con las que llegan del front-end (el estado de
// edición vive en el cliente; el servicio lo reconstruye por petición).
// Una lista vacía degrada a una fila fresca.
func (g *GestorBorradores) Hidratar(filas []entity.FilaBorrador) {
	if len(filas) == 0 {
		g.Reiniciar()
		return
	}
	g.filas = make([]entity.FilaBorrador, len(filas))
	copy(g.filas, filas)
}
