package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarix/entregas-api/internal/application/entregas"
	"github.com/solarix/entregas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Entregas  *entregas.Servicio
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log.Componente("http")))

	// Health (público, sin auth: lo consulta el orquestador)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token del backend principal)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de entregas por cliente (protegido)
	clientes := protected.Group("/clientes")
	entregasHandler := NewEntregasHandler(deps.Entregas)
	clientes.Get("/:numero/entregas", entregasHandler.GetLibro)
	clientes.Post("/:numero/entregas/opciones", entregasHandler.PostOpciones)
	clientes.Post("/:numero/entregas", RequireRole("admin", "almacen"), entregasHandler.PostGuardar)

	// Vistas de instalaciones (protegido)
	instalaciones := protected.Group("/instalaciones")
	instalacionesHandler := NewInstalacionesHandler(deps.Entregas)
	instalaciones.Get("/materiales-entregados", instalacionesHandler.GetIndiceEntregados)
	instalaciones.Get("/en-servicio/:numero", instalacionesHandler.GetEnServicio)
}
