package entregas

import "context"

// RespuestaEscritura es el resultado crudo de un intento PUT/PATCH contra el
// backend. El cuerpo se conserva decodificado porque el éxito "aparente" se
// decide por la forma del payload, no solo por el status HTTP.
type RespuestaEscritura struct {
	Status int
	Cuerpo map[string]any
}

// IndiceEntregados es el índice de ofertas con materiales entregados que
// expone el backend (el endpoint exacto varía por despliegue).
type IndiceEntregados struct {
	OfertaIDs                  []string
	IDsConMaterialesPendientes []string
	Ofertas                    []map[string]any
	Endpoint                   string // endpoint que respondió con contenido
}

// PasarelaOfertas es el puerto hacia el backend de ofertas de confección.
// Devuelve payloads crudos; la normalización es responsabilidad del dominio.
type PasarelaOfertas interface {
	// OfertasDeCliente devuelve el payload crudo de las ofertas del cliente.
	// Cliente sin oferta (404) devuelve nil sin error.
	OfertasDeCliente(ctx context.Context, clienteNumero string) (any, error)

	// ActualizarOferta envía el cuerpo con el verbo indicado (PUT o PATCH) al
	// endpoint de actualización. Error solo por fallo de transporte; los
	// rechazos del backend van dentro de RespuestaEscritura.
	ActualizarOferta(ctx context.Context, metodo, ofertaID string, cuerpo map[string]any) (*RespuestaEscritura, error)

	// IndiceMaterialesEntregados recorre los endpoints candidatos del índice
	// y devuelve el primero con contenido.
	IndiceMaterialesEntregados(ctx context.Context) (*IndiceEntregados, error)
}
