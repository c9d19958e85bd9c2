package entregas

import (
	"context"
	"fmt"

	"github.com/solarix/entregas-api/internal/domain"
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
	"github.com/solarix/entregas-api/internal/domain/oferta"
	"github.com/solarix/entregas-api/pkg/logger"
)

// Servicio orquesta los casos de uso de entregas: consultar el libro de un
// cliente, calcular opciones de material para el formulario y ejecutar el
// guardado reconciliado.
type Servicio struct {
	pasarela      PasarelaOfertas
	reconciliador *Reconciliador
	log           *logger.Logger
}

// NewServicio construye el servicio de entregas.
func NewServicio(pasarela PasarelaOfertas, log *logger.Logger) *Servicio {
	return &Servicio{
		pasarela:      pasarela,
		reconciliador: NuevoReconciliador(pasarela, log.Componente("reconciliador")),
		log:           log,
	}
}

// OfertasDeCliente descarga y normaliza las ofertas de confección del cliente.
// El número se normaliza (NFKC, mayúsculas, solo alfanumérico) antes de
// consultar. Cliente sin oferta devuelve lista vacía, no error.
func (s *Servicio) OfertasDeCliente(ctx context.Context, clienteNumero string) ([]entity.Oferta, error) {
	numero := oferta.NormalizarNumeroCliente(clienteNumero)
	if numero == "" {
		return nil, fmt.Errorf("%w: número de cliente vacío", domain.ErrOfertaNoEncontrada)
	}

	payload, err := s.pasarela.OfertasDeCliente(ctx, numero)
	if err != nil {
		return nil, err
	}
	return oferta.NormalizarRespuesta(payload), nil
}

// buscarOferta localiza la oferta del cliente por su UID de sesión.
func (s *Servicio) buscarOferta(ctx context.Context, clienteNumero, ofertaUID string) (*entity.Oferta, error) {
	ofertas, err := s.OfertasDeCliente(ctx, clienteNumero)
	if err != nil {
		return nil, err
	}
	for i := range ofertas {
		if ofertas[i].UID == ofertaUID {
			return &ofertas[i], nil
		}
	}
	return nil, fmt.Errorf("%w: oferta %s del cliente %s", domain.ErrOfertaNoEncontrada, ofertaUID, clienteNumero)
}

// OpcionesPorFila calcula, para cada fila del borrador, las partidas elegibles
// de la oferta (pendiente > 0 y no elegidas por otra fila).
func (s *Servicio) OpcionesPorFila(ctx context.Context, clienteNumero, ofertaUID string, filas []entity.FilaBorrador) (map[string][]ledger.Linea, error) {
	ofr, err := s.buscarOferta(ctx, clienteNumero, ofertaUID)
	if err != nil {
		return nil, err
	}

	gestor := NuevoGestor()
	gestor.Hidratar(filas)
	libro := ledger.Calcular(ofr.Items)

	out := make(map[string][]ledger.Linea, len(filas))
	for _, fila := range gestor.Filas() {
		out[fila.ID] = gestor.OpcionesParaFila(fila.ID, libro)
	}
	return out, nil
}

// GuardarEntregas ejecuta el protocolo completo de guardado sobre la oferta
// indicada: validación whole-batch, escritura con fallback de verbo, recarga
// y verificación de persistencia.
func (s *Servicio) GuardarEntregas(ctx context.Context, clienteNumero, ofertaUID string, filas []entity.FilaBorrador) (*ResultadoGuardado, error) {
	ofr, err := s.buscarOferta(ctx, clienteNumero, ofertaUID)
	if err != nil {
		return nil, err
	}

	gestor := NuevoGestor()
	gestor.Hidratar(filas)

	numero := oferta.NormalizarNumeroCliente(clienteNumero)
	return s.reconciliador.Guardar(ctx, numero, *ofr, gestor)
}

// IndiceEntregados devuelve el índice de ofertas con materiales entregados.
func (s *Servicio) IndiceEntregados(ctx context.Context) (*IndiceEntregados, error) {
	return s.pasarela.IndiceMaterialesEntregados(ctx)
}

// ResumenEnServicio calcula los equipos en servicio (inversores, paneles,
// baterías) agregados sobre todas las ofertas del cliente.
func (s *Servicio) ResumenEnServicio(ctx context.Context, clienteNumero string) (ledger.ResumenServicio, int, error) {
	ofertas, err := s.OfertasDeCliente(ctx, clienteNumero)
	if err != nil {
		return ledger.ResumenServicio{}, 0, err
	}
	return ledger.CalcularEnServicio(ofertas), len(ofertas), nil
}
