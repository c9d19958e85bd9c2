package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarix/entregas-api/internal/application/dto"
	"github.com/solarix/entregas-api/internal/application/entregas"
)

// InstalacionesHandler expone las vistas de instalaciones: el índice de
// ofertas con materiales entregados y el resumen de equipos en servicio.
type InstalacionesHandler struct {
	servicio *entregas.Servicio
}

// NewInstalacionesHandler construye el handler.
func NewInstalacionesHandler(servicio *entregas.Servicio) *InstalacionesHandler {
	return &InstalacionesHandler{servicio: servicio}
}

// GetIndiceEntregados godoc
// @Summary      Índice de ofertas con materiales entregados
// @Description  Recorre los endpoints candidatos del backend y devuelve el
//
//	primero con contenido. Si ninguno responde, el índice llega vacío.
//
// @Tags         instalaciones
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.IndiceEntregadosResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/instalaciones/materiales-entregados [get]
func (h *InstalacionesHandler) GetIndiceEntregados(c *fiber.Ctx) error {
	indice, err := h.servicio.IndiceEntregados(c.Context())
	if err != nil {
		return responderError(c, err)
	}

	out := dto.IndiceEntregadosResponse{
		OfertaIDs:                  indice.OfertaIDs,
		IDsConMaterialesPendientes: indice.IDsConMaterialesPendientes,
		TotalOfertas:               len(indice.Ofertas),
		Endpoint:                   indice.Endpoint,
	}
	if out.OfertaIDs == nil {
		out.OfertaIDs = []string{}
	}
	if out.IDsConMaterialesPendientes == nil {
		out.IDsConMaterialesPendientes = []string{}
	}
	return c.JSON(out)
}

// GetEnServicio godoc
// @Summary      Equipos en servicio del cliente
// @Description  Suma inversores, paneles y baterías en servicio sobre todas
//
//	las ofertas de confección del cliente.
//
// @Tags         instalaciones
// @Security     Bearer
// @Produce      json
// @Param        numero  path  string  true  "Número de cliente"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/instalaciones/en-servicio/{numero} [get]
func (h *InstalacionesHandler) GetEnServicio(c *fiber.Ctx) error {
	numero := c.Params("numero")

	resumen, totalOfertas, err := h.servicio.ResumenEnServicio(c.Context(), numero)
	if err != nil {
		return responderError(c, err)
	}

	return c.JSON(fiber.Map{
		"cliente_numero": numero,
		"total_ofertas":  totalOfertas,
		"resumen":        resumen,
	})
}
