package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/solarix/entregas-api/internal/application/dto"
	"github.com/solarix/entregas-api/internal/application/entregas"
	"github.com/solarix/entregas-api/internal/domain"
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
)

// EntregasHandler maneja las peticiones HTTP del libro de entregas (protegido).
type EntregasHandler struct {
	servicio *entregas.Servicio
	validate *validator.Validate
}

// NewEntregasHandler construye el handler.
func NewEntregasHandler(servicio *entregas.Servicio) *EntregasHandler {
	return &EntregasHandler{servicio: servicio, validate: validator.New()}
}

// GetLibro godoc
// @Summary      Libro de entregas del cliente
// @Description  Descarga las ofertas de confección del cliente, las normaliza
//
//	y devuelve el libro por material: total, entregado, pendiente y avance.
//
// @Tags         entregas
// @Security     Bearer
// @Produce      json
// @Param        numero  path  string  true  "Número de cliente"
// @Success      200  {object}  dto.LibroClienteResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/clientes/{numero}/entregas [get]
func (h *EntregasHandler) GetLibro(c *fiber.Ctx) error {
	numero := c.Params("numero")

	ofertas, err := h.servicio.OfertasDeCliente(c.Context(), numero)
	if err != nil {
		return responderError(c, err)
	}

	out := dto.LibroClienteResponse{
		ClienteNumero: numero,
		TotalOfertas:  len(ofertas),
		Ofertas:       make([]dto.OfertaConLibroResponse, 0, len(ofertas)),
	}
	for i := range ofertas {
		out.Ofertas = append(out.Ofertas, aOfertaConLibro(&ofertas[i]))
	}
	return c.JSON(out)
}

// PostOpciones godoc
// @Summary      Opciones de material por fila de borrador
// @Description  Para cada fila enviada devuelve las partidas elegibles:
//
//	pendiente > 0 y no elegidas ya por otra fila. La selección propia de cada
//	fila se conserva aunque su pendiente haya llegado a cero.
//
// @Tags         entregas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        numero  path  string                      true  "Número de cliente"
// @Param        body    body  dto.OpcionesEntregaRequest  true  "oferta_uid y filas del borrador"
// @Success      200  {array}   dto.OpcionesFilaResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clientes/{numero}/entregas/opciones [post]
func (h *EntregasHandler) PostOpciones(c *fiber.Ctx) error {
	var in dto.OpcionesEntregaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	filas := dto.AFilas(in.Filas)
	opciones, err := h.servicio.OpcionesPorFila(c.Context(), c.Params("numero"), in.OfertaUID, filas)
	if err != nil {
		return responderError(c, err)
	}

	out := make([]dto.OpcionesFilaResponse, 0, len(filas))
	for _, fila := range filas {
		lineas := opciones[fila.ID]
		if lineas == nil {
			lineas = []ledger.Linea{}
		}
		out = append(out, dto.OpcionesFilaResponse{FilaID: fila.ID, Opciones: lineas})
	}
	return c.JSON(out)
}

// PostGuardar godoc
// @Summary      Guardar entregas con verificación
// @Description  Valida el lote completo de filas, escribe en el backend con
//
//	cadena de intentos PUT→PATCH→PATCH mínimo, recarga las ofertas del cliente
//	y verifica que el total entregado persistió antes de responder éxito.
//
// @Tags         entregas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        numero  path  string                      true  "Número de cliente"
// @Param        body    body  dto.GuardarEntregasRequest  true  "oferta_uid y filas a guardar"
// @Success      200  {object}  dto.GuardarEntregasResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/clientes/{numero}/entregas [post]
func (h *EntregasHandler) PostGuardar(c *fiber.Ctx) error {
	var in dto.GuardarEntregasRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	resultado, err := h.servicio.GuardarEntregas(c.Context(), c.Params("numero"), in.OfertaUID, dto.AFilas(in.Filas))
	if err != nil {
		return responderError(c, err)
	}
	if resultado.Estado != entregas.EstadoCompletado {
		// Todas las filas en blanco: no hubo escritura.
		return c.JSON(dto.GuardarEntregasResponse{
			Mensaje: "sin entregas que guardar",
			Oferta:  aOfertaConLibro(&resultado.Oferta),
		})
	}

	return c.JSON(dto.GuardarEntregasResponse{
		Mensaje:         "entregas guardadas y verificadas",
		MetodoEscritura: resultado.MetodoEscritura,
		Oferta:          aOfertaConLibro(&resultado.Oferta),
	})
}

// aOfertaConLibro arma la vista de una oferta con su libro calculado.
func aOfertaConLibro(ofr *entity.Oferta) dto.OfertaConLibroResponse {
	libro := ledger.Calcular(ofr.Items)
	return dto.OfertaConLibroResponse{
		UID:          ofr.UID,
		Nombre:       ofr.Nombre,
		Estado:       ofr.Estado,
		NumeroOferta: ofr.NumeroOferta,
		Libro:        libro,
		Resumen:      libro.Resumen(),
	}
}

// responderError mapea los errores de dominio a status y código HTTP.
func responderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrMaterialDuplicado):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "DUPLICATE_MATERIAL", Message: err.Error()})
	case errors.Is(err, domain.ErrExcedePendiente):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EXCEEDS_PENDING", Message: err.Error()})
	case errors.Is(err, domain.ErrSinMaterial),
		errors.Is(err, domain.ErrItemInexistente),
		errors.Is(err, domain.ErrCantidadInvalida),
		errors.Is(err, domain.ErrFechaInvalida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrOfertaSinID):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "OFFER_ID", Message: err.Error()})
	case errors.Is(err, domain.ErrInvarianteExcedida):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVARIANT", Message: err.Error()})
	case errors.Is(err, domain.ErrGuardadoEnCurso):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SAVE_IN_PROGRESS", Message: "ya hay un guardado en curso para esta oferta"})
	case errors.Is(err, domain.ErrOfertaNoEncontrada):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrBackendRechazo):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "BACKEND_REJECTED", Message: err.Error()})
	case errors.Is(err, domain.ErrFalloSilencioso):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SILENT_FAILURE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
