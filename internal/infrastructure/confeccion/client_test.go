package confeccion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solarix/entregas-api/internal/infrastructure/confeccion"
	"github.com/solarix/entregas-api/pkg/config"
	"github.com/solarix/entregas-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clienteContra(srv *httptest.Server, indicePreferido string) *confeccion.Cliente {
	return confeccion.NewCliente(config.BackendConfig{
		BaseURL:                  srv.URL,
		APIKey:                   "clave-de-prueba",
		TimeoutSeconds:           5,
		IndiceEntregadosEndpoint: indicePreferido,
	}, logger.New(logger.Config{Env: "production", Level: "error"}))
}

func TestOfertasDeCliente_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ofertas/confeccion/cliente/C0042", r.URL.Path)
		assert.Equal(t, "clave-de-prueba", r.Header.Get("X-API-Key"), "el API key viaja en cada petición")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"ofertas":[{"_id":"665f1c2ab9d1e83a4c1b2f00","items":[]}]}}`))
	}))
	defer srv.Close()

	payload, err := clienteContra(srv, "").OfertasDeCliente(context.Background(), "C0042")
	require.NoError(t, err)
	require.NotNil(t, payload)

	raiz, ok := payload.(map[string]any)
	require.True(t, ok, "el payload llega deserializado como mapa")
	assert.Contains(t, raiz, "data")
}

func TestOfertasDeCliente_404EsClienteSinOferta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	payload, err := clienteContra(srv, "").OfertasDeCliente(context.Background(), "C9999")
	require.NoError(t, err, "404 no es error: el cliente simplemente no tiene oferta")
	assert.Nil(t, payload)
}

func TestOfertasDeCliente_ErrorDelServidor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "caído", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := clienteContra(srv, "").OfertasDeCliente(context.Background(), "C0042")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestActualizarOferta_RechazoNoEsErrorDeTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/ofertas/confeccion/665f1c2ab9d1e83a4c1b2f00", r.URL.Path)

		var cuerpo map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cuerpo))
		assert.Contains(t, cuerpo, "items")

		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"oferta bloqueada"}`))
	}))
	defer srv.Close()

	resp, err := clienteContra(srv, "").ActualizarOferta(context.Background(), http.MethodPatch,
		"665f1c2ab9d1e83a4c1b2f00", map[string]any{"items": []any{}})
	require.NoError(t, err, "un rechazo del backend se entrega en la respuesta, no como error")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, "oferta bloqueada", resp.Cuerpo["message"])
}

func TestActualizarOferta_CuerpoNoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>proxy</html>"))
	}))
	defer srv.Close()

	resp, err := clienteContra(srv, "").ActualizarOferta(context.Background(), http.MethodPut,
		"665f1c2ab9d1e83a4c1b2f00", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, resp.Cuerpo, "cuerpo no JSON se descarta y queda solo el status")
}

func TestActualizarOferta_VerboNoSoportado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := clienteContra(srv, "").ActualizarOferta(context.Background(), http.MethodDelete, "x", nil)
	require.Error(t, err)
}

func TestIndiceMaterialesEntregados_CadenaDeCandidatos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Solo responde la tercera ruta candidata; el resto 404.
		if r.URL.Path != "/ofertas/confeccion/materiales-entregados" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"oferta_ids":["665f1c2ab9d1e83a4c1b2f00"],"ids_con_materiales_pendientes":["665f1c2ab9d1e83a4c1b2f00"]}`))
	}))
	defer srv.Close()

	indice, err := clienteContra(srv, "").IndiceMaterialesEntregados(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/ofertas/confeccion/materiales-entregados", indice.Endpoint)
	assert.Equal(t, []string{"665f1c2ab9d1e83a4c1b2f00"}, indice.OfertaIDs)
	assert.Len(t, indice.IDsConMaterialesPendientes, 1)
}

func TestIndiceMaterialesEntregados_EndpointPreferidoPrimero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/custom/indice" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`["665f1c2ab9d1e83a4c1b2f00","665f1c2ab9d1e83a4c1b2f01"]`))
	}))
	defer srv.Close()

	indice, err := clienteContra(srv, "/api/custom/indice").IndiceMaterialesEntregados(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/custom/indice", indice.Endpoint)
	assert.Len(t, indice.OfertaIDs, 2, "una lista de IDs a pelo también es un índice válido")
}

func TestIndiceMaterialesEntregados_SinEndpointsDisponibles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	indice, err := clienteContra(srv, "").IndiceMaterialesEntregados(context.Background())
	require.NoError(t, err, "el índice es enriquecimiento: sin endpoints responde vacío, no error")
	assert.Empty(t, indice.OfertaIDs)
	assert.Empty(t, indice.Endpoint)
}
