package entregas

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solarix/entregas-api/internal/domain"
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
	"github.com/solarix/entregas-api/internal/domain/oferta"
	"github.com/solarix/entregas-api/pkg/logger"
)

// EstadoGuardado son los estados explícitos del protocolo de guardado.
type EstadoGuardado string

// Estados del guardado. Cualquier fallo en validación, escritura o
// verificación termina en EstadoFallido con el detalle en el error.
const (
	EstadoInactivo    EstadoGuardado = "inactivo"
	EstadoValidando   EstadoGuardado = "validando"
	EstadoEscribiendo EstadoGuardado = "escribiendo"
	EstadoRecargando  EstadoGuardado = "recargando"
	EstadoVerificando EstadoGuardado = "verificando"
	EstadoCompletado  EstadoGuardado = "completado"
	EstadoFallido     EstadoGuardado = "fallido"
)

// IntentoEscritura describe un intento de persistencia: verbo más constructor
// de payload. La cadena de intentos es datos, no condicionales anidados, y se
// recorre con política primer-éxito-gana.
type IntentoEscritura struct {
	Nombre           string // PUT | PATCH | PATCH_MINIMO
	Metodo           string
	ConstruirPayload func() map[string]any
}

// ItemEsperado es la postcondición de un item tocado por el guardado: tras
// recargar, su total entregado debe ser al menos TotalEsperado.
type ItemEsperado struct {
	Indice        int
	Clave         string
	Codigo        string
	Descripcion   string
	TotalEsperado decimal.Decimal
}

// ResultadoGuardado es el desenlace de un guardado verificado.
type ResultadoGuardado struct {
	Estado          EstadoGuardado
	MetodoEscritura string          // verbo/intento que el backend aceptó
	Ofertas         []entity.Oferta // lista recargada completa del cliente
	Oferta          entity.Oferta   // la oferta tocada, ya recargada
}

// Reconciliador ejecuta el protocolo de guardado de entregas:
// Validando → Escribiendo (PUT→PATCH→PATCH mínimo) → Recargando → Verificando.
//
// El endpoint de actualización del backend ha aceptado peticiones (2xx) sin
// persistir las entregas, y soporta PUT/PATCH de forma inconsistente según el
// despliegue: un 2xx no es confirmación suficiente y la postcondición (total
// entregado acumulado) se verifica siempre releyendo.
type Reconciliador struct {
	pasarela PasarelaOfertas
	log      *logger.Logger

	mu      sync.Mutex
	enCurso map[string]struct{} // UIDs de oferta con guardado en vuelo
}

// NuevoReconciliador construye el reconciliador.
func NuevoReconciliador(pasarela PasarelaOfertas, log *logger.Logger) *Reconciliador {
	return &Reconciliador{
		pasarela: pasarela,
		log:      log,
		enCurso:  make(map[string]struct{}),
	}
}

// Guardar valida el lote completo de filas, fusiona las entregas nuevas en la
// oferta, persiste con la cadena de intentos y verifica contra la relectura.
// Ningún fallo deja escrituras parciales: la validación es whole-batch antes
// de cualquier I/O y la escritura es una sola petición por intento.
func (r *Reconciliador) Guardar(ctx context.Context, clienteNumero string, ofr entity.Oferta, gestor *GestorBorradores) (*ResultadoGuardado, error) {
	if !r.reservar(ofr.UID) {
		return nil, domain.ErrGuardadoEnCurso
	}
	defer r.liberar(ofr.UID)

	// ── Validando ────────────────────────────────────────────────────────
	r.transicion(ofr.UID, EstadoValidando)
	libro := ledger.Calcular(ofr.Items)
	nuevasPorIndice, esperados, err := r.validar(libro, gestor.Filas())
	if err != nil {
		return nil, err
	}
	if len(nuevasPorIndice) == 0 {
		// Todas las filas estaban en blanco: nada que guardar, no es error.
		return &ResultadoGuardado{Estado: EstadoInactivo, Oferta: ofr}, nil
	}

	// ── Merge + re-chequeo del invariante ────────────────────────────────
	// La validación ya acotó por pendiente, pero el pendiente informado por
	// el backend puede estar desfasado respecto de las entregas embebidas.
	actualizada, err := fusionarEntregas(ofr, nuevasPorIndice)
	if err != nil {
		return nil, err
	}

	// ── Escribiendo ──────────────────────────────────────────────────────
	id := oferta.ExtraerIDPersistido(&ofr)
	if id == "" {
		return nil, domain.ErrOfertaSinID
	}

	r.transicion(ofr.UID, EstadoEscribiendo)
	metodo, err := r.escribir(ctx, id, &actualizada)
	if err != nil {
		return nil, err
	}

	// ── Recargando ───────────────────────────────────────────────────────
	r.transicion(ofr.UID, EstadoRecargando)
	payload, err := r.pasarela.OfertasDeCliente(ctx, clienteNumero)
	if err != nil {
		return nil, fmt.Errorf("%w: recargar ofertas del cliente: %v", domain.ErrFalloSilencioso, err)
	}
	recargadas := oferta.NormalizarRespuesta(payload)

	// ── Verificando ──────────────────────────────────────────────────────
	r.transicion(ofr.UID, EstadoVerificando)
	var recargada *entity.Oferta
	for i := range recargadas {
		if oferta.CoincideID(&recargadas[i], id) {
			recargada = &recargadas[i]
			break
		}
	}
	if recargada == nil {
		return nil, fmt.Errorf("%w: la oferta %s no aparece tras recargar", domain.ErrFalloSilencioso, id)
	}
	if err := VerificarPersistencia(esperados, recargada); err != nil {
		return nil, err
	}

	r.log.Info().
		Str("cliente", clienteNumero).
		Str("oferta_id", id).
		Str("metodo", metodo).
		Int("items_tocados", len(esperados)).
		Msg("entregas guardadas y verificadas")

	// ── Commit ───────────────────────────────────────────────────────────
	gestor.Reiniciar()
	return &ResultadoGuardado{
		Estado:          EstadoCompletado,
		MetodoEscritura: metodo,
		Ofertas:         recargadas,
		Oferta:          *recargada,
	}, nil
}

// validar aplica la validación whole-batch: filas totalmente en blanco se
// ignoran; cualquier defecto en una fila activa aborta el guardado completo
// sin emitir ninguna escritura. Devuelve las entregas nuevas agrupadas por
// índice posicional del item y la postcondición esperada por item.
func (r *Reconciliador) validar(libro ledger.Libro, filas []entity.FilaBorrador) (map[int][]entity.Entrega, []ItemEsperado, error) {
	nuevas := make(map[int][]entity.Entrega)
	esperadosPorClave := make(map[string]*ItemEsperado)
	var orden []string

	for _, fila := range filas {
		if fila.EnBlanco() {
			continue
		}
		if fila.ItemClave == "" {
			return nil, nil, domain.ErrSinMaterial
		}
		if prev, ok := esperadosPorClave[fila.ItemClave]; ok && prev != nil {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrMaterialDuplicado, fila.ItemClave)
		}
		linea, ok := libro.BuscarPorClave(fila.ItemClave)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrItemInexistente, fila.ItemClave)
		}

		cantidad, err := decimal.NewFromString(strings.TrimSpace(fila.Cantidad))
		if err != nil || !cantidad.IsPositive() {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrCantidadInvalida, fila.Cantidad)
		}
		if cantidad.GreaterThan(linea.Pendiente) {
			return nil, nil, fmt.Errorf("%w: %s (pendiente %s, pedido %s)",
				domain.ErrExcedePendiente, fila.ItemClave, linea.Pendiente, cantidad)
		}

		fecha, err := parsearFechaEntrega(fila.Fecha)
		if err != nil {
			return nil, nil, err
		}

		nuevas[linea.Indice] = append(nuevas[linea.Indice], entity.Entrega{
			Cantidad: cantidad,
			Fecha:    fecha.UTC().Format(time.RFC3339),
		})
		esperadosPorClave[fila.ItemClave] = &ItemEsperado{
			Indice:        linea.Indice,
			Clave:         linea.Clave,
			Codigo:        linea.MaterialCodigo,
			Descripcion:   linea.Descripcion,
			TotalEsperado: linea.TotalEntregado.Add(cantidad),
		}
		orden = append(orden, fila.ItemClave)
	}

	esperados := make([]ItemEsperado, 0, len(orden))
	for _, clave := range orden {
		esperados = append(esperados, *esperadosPorClave[clave])
	}
	return nuevas, esperados, nil
}

// parsearFechaEntrega interpreta YYYY-MM-DD a mediodía local para evitar el
// corrimiento de día al convertir a UTC en husos negativos.
func parsearFechaEntrega(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.ErrFechaInvalida
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrFechaInvalida, s)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.Local), nil
}

// fusionarEntregas produce una copia de la oferta con las entregas nuevas
// añadidas, re-verificando que ninguna partida supere su cantidad contratada.
// Chequeo defensivo: protege contra un pendiente informado desfasado.
func fusionarEntregas(ofr entity.Oferta, nuevas map[int][]entity.Entrega) (entity.Oferta, error) {
	actualizada := ofr
	actualizada.Items = make([]entity.ItemOferta, len(ofr.Items))
	copy(actualizada.Items, ofr.Items)

	for indice, entregas := range nuevas {
		if indice < 0 || indice >= len(actualizada.Items) {
			return entity.Oferta{}, fmt.Errorf("%w: índice %d", domain.ErrItemInexistente, indice)
		}
		it := actualizada.Items[indice]
		it.Entregas = append(append([]entity.Entrega(nil), it.Entregas...), entregas...)

		if it.TotalEntregado().GreaterThan(it.Cantidad) {
			return entity.Oferta{}, fmt.Errorf("%w: %s (contratado %s, sumaría %s)",
				domain.ErrInvarianteExcedida, it.MaterialCodigo, it.Cantidad, it.TotalEntregado())
		}
		actualizada.Items[indice] = it
	}
	return actualizada, nil
}

// escribir recorre la cadena de intentos y devuelve el nombre del primero que
// el backend aceptó. Si los tres reportan fallo devuelve ErrBackendRechazo
// con el mensaje extraído de la última respuesta con contenido.
func (r *Reconciliador) escribir(ctx context.Context, id string, actualizada *entity.Oferta) (string, error) {
	completo := actualizada.Payload()
	intentos := []IntentoEscritura{
		{Nombre: "PUT", Metodo: "PUT", ConstruirPayload: func() map[string]any { return completo }},
		{Nombre: "PATCH", Metodo: "PATCH", ConstruirPayload: func() map[string]any { return completo }},
		{Nombre: "PATCH_MINIMO", Metodo: "PATCH", ConstruirPayload: func() map[string]any {
			return map[string]any{
				"items":      completo["items"],
				"materiales": completo["materiales"],
			}
		}},
	}

	var ultimoMensaje string
	for _, intento := range intentos {
		resp, err := r.pasarela.ActualizarOferta(ctx, intento.Metodo, id, intento.ConstruirPayload())
		if err != nil {
			ultimoMensaje = err.Error()
			r.log.Warn().Str("intento", intento.Nombre).Str("oferta_id", id).Err(err).
				Msg("intento de escritura falló en transporte")
			continue
		}
		if escrituraAceptada(resp) {
			return intento.Nombre, nil
		}
		if msg := extraerMensajeError(resp.Cuerpo); msg != "" {
			ultimoMensaje = msg
		}
		r.log.Warn().Str("intento", intento.Nombre).Str("oferta_id", id).
			Int("status", resp.Status).Str("detalle", ultimoMensaje).
			Msg("el backend reportó fallo en el intento de escritura")
	}

	if ultimoMensaje == "" {
		ultimoMensaje = "sin detalle del backend"
	}
	return "", fmt.Errorf("%w: %s", domain.ErrBackendRechazo, ultimoMensaje)
}

// escrituraAceptada decide el éxito aparente de un intento: status no-error y
// cuerpo sin success:false y sin campo error poblado. "Aparente" porque el
// backend ha devuelto 2xx sin persistir; la confirmación real es la relectura.
func escrituraAceptada(resp *RespuestaEscritura) bool {
	if resp == nil || resp.Status >= 400 {
		return false
	}
	if resp.Cuerpo == nil {
		return true
	}
	if ok, existe := resp.Cuerpo["success"].(bool); existe && !ok {
		return false
	}
	if v, existe := resp.Cuerpo["error"]; existe && v != nil {
		return false
	}
	return true
}

// extraerMensajeError busca el mensaje de rechazo en las formas que el
// backend ha usado: message, detail, error como string o error.message.
func extraerMensajeError(cuerpo map[string]any) string {
	if cuerpo == nil {
		return ""
	}
	if s, ok := cuerpo["message"].(string); ok && s != "" {
		return s
	}
	if s, ok := cuerpo["detail"].(string); ok && s != "" {
		return s
	}
	switch e := cuerpo["error"].(type) {
	case string:
		return e
	case map[string]any:
		if s, ok := e["message"].(string); ok {
			return s
		}
	}
	return ""
}

// VerificarPersistencia es la postcondición del guardado como predicado puro:
// para cada item tocado, el total entregado en la oferta recargada debe
// alcanzar el acumulado esperado. Si el backend respondió éxito pero la
// relectura no lo refleja, el guardado se reporta como fallo silencioso.
func VerificarPersistencia(esperados []ItemEsperado, recargada *entity.Oferta) error {
	for _, esp := range esperados {
		it := buscarItemRecargado(recargada.Items, esp)
		if it == nil {
			return fmt.Errorf("%w: el material %s no aparece tras recargar",
				domain.ErrFalloSilencioso, esp.Clave)
		}
		if it.TotalEntregado().LessThan(esp.TotalEsperado) {
			return fmt.Errorf("%w: %s esperaba %s entregado y se leyó %s",
				domain.ErrFalloSilencioso, esp.Clave, esp.TotalEsperado, it.TotalEntregado())
		}
	}
	return nil
}

// buscarItemRecargado localiza la partida en la oferta recargada: índice
// posicional primero y, si el backend reordenó el array, por código de
// material normalizado o por descripción normalizada. La descripción no es
// única por contrato, así que es el último recurso.
func buscarItemRecargado(items []entity.ItemOferta, esp ItemEsperado) *entity.ItemOferta {
	codigo := normalizarTexto(esp.Codigo)
	descripcion := normalizarTexto(esp.Descripcion)

	if esp.Indice >= 0 && esp.Indice < len(items) {
		it := &items[esp.Indice]
		if codigo != "" && normalizarTexto(it.MaterialCodigo) == codigo {
			return it
		}
		if codigo == "" && descripcion != "" && normalizarTexto(it.Descripcion) == descripcion {
			return it
		}
		if codigo == "" && descripcion == "" {
			return it
		}
	}
	for i := range items {
		if codigo != "" && normalizarTexto(items[i].MaterialCodigo) == codigo {
			return &items[i]
		}
	}
	for i := range items {
		if descripcion != "" && normalizarTexto(items[i].Descripcion) == descripcion {
			return &items[i]
		}
	}
	return nil
}

func normalizarTexto(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// transicion deja traza del avance del protocolo por oferta.
func (r *Reconciliador) transicion(uid string, estado EstadoGuardado) {
	r.log.Debug().Str("oferta_uid", uid).Str("estado", string(estado)).Msg("guardado")
}

func (r *Reconciliador) reservar(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ocupado := r.enCurso[uid]; ocupado {
		return false
	}
	r.enCurso[uid] = struct{}{}
	return true
}

func (r *Reconciliador) liberar(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enCurso, uid)
}
