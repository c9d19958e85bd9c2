package dto

import (
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
)

// FilaEntregaRequest es una fila de borrador tal como la manda el front-end.
// Cantidad viaja como texto (lo que tecleó el usuario); la validación de
// negocio la hace el reconciliador, no el binding.
type FilaEntregaRequest struct {
	ID        string `json:"id"`
	ItemClave string `json:"item_clave"`
	Cantidad  string `json:"cantidad"`
	Fecha     string `json:"fecha"` // YYYY-MM-DD
}

// GuardarEntregasRequest cuerpo de POST /clientes/:numero/entregas.
type GuardarEntregasRequest struct {
	OfertaUID string               `json:"oferta_uid" validate:"required"`
	Filas     []FilaEntregaRequest `json:"filas" validate:"required,min=1"`
}

// OpcionesEntregaRequest cuerpo de POST /clientes/:numero/entregas/opciones.
type OpcionesEntregaRequest struct {
	OfertaUID string               `json:"oferta_uid" validate:"required"`
	Filas     []FilaEntregaRequest `json:"filas" validate:"required,min=1"`
}

// AFilas convierte las filas del request a entidades de borrador.
func AFilas(filas []FilaEntregaRequest) []entity.FilaBorrador {
	out := make([]entity.FilaBorrador, 0, len(filas))
	for _, f := range filas {
		out = append(out, entity.FilaBorrador{
			ID:        f.ID,
			ItemClave: f.ItemClave,
			Cantidad:  f.Cantidad,
			Fecha:     f.Fecha,
		})
	}
	return out
}

// OfertaConLibroResponse una oferta normalizada con su libro de entregas.
type OfertaConLibroResponse struct {
	UID          string         `json:"_uid"`
	Nombre       string         `json:"nombre,omitempty"`
	Estado       string         `json:"estado,omitempty"`
	NumeroOferta string         `json:"numero_oferta,omitempty"`
	Libro        ledger.Libro   `json:"libro"`
	Resumen      ledger.Resumen `json:"resumen"`
}

// LibroClienteResponse respuesta de GET /clientes/:numero/entregas.
type LibroClienteResponse struct {
	ClienteNumero string                   `json:"cliente_numero"`
	TotalOfertas  int                      `json:"total_ofertas"`
	Ofertas       []OfertaConLibroResponse `json:"ofertas"`
}

// OpcionesFilaResponse opciones de material disponibles para una fila.
type OpcionesFilaResponse struct {
	FilaID   string         `json:"fila_id"`
	Opciones []ledger.Linea `json:"opciones"`
}

// GuardarEntregasResponse respuesta de un guardado verificado.
type GuardarEntregasResponse struct {
	Mensaje         string                 `json:"mensaje"`
	MetodoEscritura string                 `json:"metodo_escritura"` // verbo que aceptó el backend
	Oferta          OfertaConLibroResponse `json:"oferta"`
}

// IndiceEntregadosResponse respuesta del índice de ofertas con materiales entregados.
type IndiceEntregadosResponse struct {
	OfertaIDs                  []string `json:"oferta_ids"`
	IDsConMaterialesPendientes []string `json:"ids_con_materiales_pendientes"`
	TotalOfertas               int      `json:"total_ofertas"`
	Endpoint                   string   `json:"endpoint,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
