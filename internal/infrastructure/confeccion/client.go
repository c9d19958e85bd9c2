package confeccion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/solarix/entregas-api/internal/application/entregas"
	"github.com/solarix/entregas-api/pkg/config"
	"github.com/solarix/entregas-api/pkg/logger"
)

// Verificar en tiempo de compilación que Cliente implementa PasarelaOfertas.
var _ entregas.PasarelaOfertas = (*Cliente)(nil)

// Límite de lectura por respuesta. Las ofertas de confección traen los items
// completos con su histórico de entregas; 4 MiB cubre con margen.
const maxCuerpoRespuesta = 4 << 20

// endpointsIndiceCandidatos son las rutas conocidas del índice de materiales
// entregados según el despliegue del backend. Se recorren en orden y gana la
// primera que responde con contenido.
var endpointsIndiceCandidatos = []string{
	"/ofertas/confeccion/materiales-entregados/ids",
	"/ofertas/confeccion/materiales-entregados/ids/",
	"/ofertas/confeccion/materiales-entregados",
	"/ofertas/confeccion/materiales-entregados/resumen",
	"/ofertas/confeccion/materiales-entregados/index",
	"/ofertas/confeccion/ofertas-con-materiales-entregados",
}

// Cliente adaptador HTTP hacia el backend de ofertas de confección.
// Usa net/http de la librería estándar de Go; no requiere SDK.
type Cliente struct {
	baseURL         string
	apiKey          string
	indicePreferido string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewCliente construye el adaptador a partir de la configuración del backend.
func NewCliente(cfg config.BackendConfig, log *logger.Logger) *Cliente {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Cliente{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		indicePreferido: cfg.IndiceEntregadosEndpoint,
		httpClient:      &http.Client{Timeout: timeout},
		log:             log,
	}
}

// OfertasDeCliente descarga el payload crudo de ofertas del cliente.
// 404 significa cliente sin oferta de confección: devuelve nil sin error.
func (c *Cliente) OfertasDeCliente(ctx context.Context, clienteNumero string) (any, error) {
	ruta := "/ofertas/confeccion/cliente/" + url.PathEscape(clienteNumero)

	status, raw, err := c.hacer(ctx, http.MethodGet, ruta, nil)
	if err != nil {
		return nil, fmt.Errorf("confeccion: ofertas del cliente %s: %w", clienteNumero, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 400 {
		return nil, fmt.Errorf("confeccion: ofertas del cliente %s: HTTP %d: %s",
			clienteNumero, status, resumirCuerpo(raw))
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("confeccion: deserializar ofertas del cliente %s: %w", clienteNumero, err)
	}
	return payload, nil
}

// ActualizarOferta envía el cuerpo con PUT o PATCH al endpoint de
// actualización. Los status de error y los cuerpos de rechazo NO son error de
// esta función: van dentro de RespuestaEscritura para que el reconciliador
// decida con ellos. Error solo por fallo de transporte o serialización.
func (c *Cliente) ActualizarOferta(ctx context.Context, metodo, ofertaID string, cuerpo map[string]any) (*entregas.RespuestaEscritura, error) {
	if metodo != http.MethodPut && metodo != http.MethodPatch {
		return nil, fmt.Errorf("confeccion: verbo no soportado %q", metodo)
	}
	ruta := "/ofertas/confeccion/" + url.PathEscape(ofertaID)

	body, err := json.Marshal(cuerpo)
	if err != nil {
		return nil, fmt.Errorf("confeccion: serializar oferta %s: %w", ofertaID, err)
	}

	status, raw, err := c.hacer(ctx, metodo, ruta, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("confeccion: %s oferta %s: %w", metodo, ofertaID, err)
	}

	resp := &entregas.RespuestaEscritura{Status: status}
	if len(bytes.TrimSpace(raw)) > 0 {
		// El cuerpo puede no ser un objeto JSON (HTML de un proxy, texto
		// plano). En ese caso se conserva solo el status.
		var decodificado map[string]any
		if json.Unmarshal(raw, &decodificado) == nil {
			resp.Cuerpo = decodificado
		}
	}
	return resp, nil
}

// IndiceMaterialesEntregados recorre los endpoints candidatos del índice y
// devuelve el primero que responde 2xx con contenido reconocible. Un endpoint
// que falla no aborta la búsqueda; si ninguno responde se devuelve un índice
// vacío sin error, porque el índice es un enriquecimiento de la vista, no un
// dato imprescindible.
func (c *Cliente) IndiceMaterialesEntregados(ctx context.Context) (*entregas.IndiceEntregados, error) {
	candidatos := endpointsIndiceCandidatos
	if c.indicePreferido != "" {
		candidatos = append([]string{c.indicePreferido}, candidatos...)
	}

	for _, ruta := range candidatos {
		status, raw, err := c.hacer(ctx, http.MethodGet, ruta, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("confeccion: índice de entregados: %w", ctx.Err())
			}
			c.log.Debug().Str("endpoint", ruta).Err(err).Msg("endpoint de índice no disponible")
			continue
		}
		if status >= 400 {
			c.log.Debug().Str("endpoint", ruta).Int("status", status).Msg("endpoint de índice rechazado")
			continue
		}

		indice := decodificarIndice(raw)
		if indice == nil {
			continue
		}
		indice.Endpoint = ruta
		return indice, nil
	}

	c.log.Warn().Msg("ningún endpoint de índice de materiales entregados respondió con contenido")
	return &entregas.IndiceEntregados{}, nil
}

// decodificarIndice interpreta las formas de respuesta conocidas del índice:
// lista de IDs a pelo, {ids: [...]}, {oferta_ids: [...]},
// {ids_con_materiales_pendientes: [...]} u {ofertas: [{...}]}.
// Devuelve nil si el cuerpo no encaja en ninguna.
func decodificarIndice(raw []byte) *entregas.IndiceEntregados {
	var cualquiera any
	if err := json.Unmarshal(raw, &cualquiera); err != nil {
		return nil
	}

	switch v := cualquiera.(type) {
	case []any:
		ids := aListaCadenas(v)
		if len(ids) == 0 {
			return nil
		}
		return &entregas.IndiceEntregados{OfertaIDs: ids}
	case map[string]any:
		indice := &entregas.IndiceEntregados{}
		for _, clave := range []string{"oferta_ids", "ids", "offers", "data"} {
			if lista, ok := v[clave].([]any); ok {
				indice.OfertaIDs = aListaCadenas(lista)
				break
			}
		}
		if lista, ok := v["ids_con_materiales_pendientes"].([]any); ok {
			indice.IDsConMaterialesPendientes = aListaCadenas(lista)
		}
		if lista, ok := v["ofertas"].([]any); ok {
			for _, el := range lista {
				if m, ok := el.(map[string]any); ok {
					indice.Ofertas = append(indice.Ofertas, m)
				}
			}
		}
		if len(indice.OfertaIDs) == 0 && len(indice.IDsConMaterialesPendientes) == 0 && len(indice.Ofertas) == 0 {
			return nil
		}
		return indice
	}
	return nil
}

func aListaCadenas(lista []any) []string {
	var out []string
	for _, el := range lista {
		switch s := el.(type) {
		case string:
			if s != "" {
				out = append(out, s)
			}
		case map[string]any:
			for _, clave := range []string{"_id", "id", "oferta_id"} {
				if v, ok := s[clave].(string); ok && v != "" {
					out = append(out, v)
					break
				}
			}
		}
	}
	return out
}

// hacer ejecuta una petición contra el backend y devuelve status y cuerpo.
func (c *Cliente) hacer(ctx context.Context, metodo, ruta string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, metodo, c.baseURL+ruta, body)
	if err != nil {
		return 0, nil, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return 0, nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCuerpoRespuesta))
	if err != nil {
		return 0, nil, fmt.Errorf("leer respuesta: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func resumirCuerpo(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return s
}
