package oferta_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solarix/entregas-api/internal/domain/oferta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodificar simula lo que llega del backend: JSON ya deserializado a any.
func decodificar(t *testing.T, raw string) any {
	t.Helper()
	var payload any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&payload), "el JSON de prueba debe ser válido")
	return payload
}

const ofertaJSON = `{
	"_id": "665f1c2ab9d1e83a4c1b2f00",
	"numero_oferta": "OF-20240215-001",
	"nombre": "Instalación solar 5kW",
	"estado": "aceptada",
	"items": [
		{
			"material_codigo": "PAN-550",
			"descripcion": "Panel solar 550W",
			"precio": "890000.50",
			"cantidad": 10,
			"seccion": "paneles",
			"entregas": [{"cantidad": 4, "fecha": "2024-03-01T17:00:00Z"}]
		},
		{
			"descripcion": "Kit de tornillería",
			"cantidad": "2",
			"entregas": []
		}
	]
}`

// ──────────────────────────────────────────────────────────────────────────────
// Sobres: el backend devuelve las ofertas en varias formas según la versión
// desplegada; todas deben converger en la misma lista canónica.
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizarRespuesta_Sobres(t *testing.T) {
	casos := []struct {
		nombre string
		raw    string
	}{
		{"data.ofertas", `{"data":{"ofertas":[` + ofertaJSON + `]}}`},
		{"ofertas en raíz", `{"ofertas":[` + ofertaJSON + `]}`},
		{"array en raíz", `[` + ofertaJSON + `]`},
		{"una sola bajo data.oferta", `{"data":{"oferta":` + ofertaJSON + `}}`},
		{"una sola bajo data.data", `{"data":{"data":` + ofertaJSON + `}}`},
		{"una sola bajo data", `{"data":` + ofertaJSON + `}`},
		{"una sola bajo oferta en la raíz", `{"oferta":` + ofertaJSON + `}`},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			ofertas := oferta.NormalizarRespuesta(decodificar(t, c.raw))
			require.Len(t, ofertas, 1, "cada sobre debe producir exactamente una oferta")

			o := ofertas[0]
			assert.Equal(t, "665f1c2ab9d1e83a4c1b2f00", o.MongoID)
			assert.Equal(t, "OF-20240215-001", o.NumeroOferta)
			assert.Equal(t, "Instalación solar 5kW", o.Nombre)
			require.Len(t, o.Items, 2)

			panel := o.Items[0]
			assert.Equal(t, "PAN-550", panel.MaterialCodigo)
			assert.True(t, panel.Precio.Equal(decimal.RequireFromString("890000.50")),
				"el precio como string debe coercerse a decimal")
			assert.True(t, panel.Cantidad.Equal(decimal.NewFromInt(10)))
			require.Len(t, panel.Entregas, 1)
			assert.True(t, panel.Entregas[0].Cantidad.Equal(decimal.NewFromInt(4)))
		})
	}
}

func TestNormalizarRespuesta_EntradaIrreconocible(t *testing.T) {
	casos := []any{
		nil,
		"texto plano",
		decodificar(t, `{"mensaje":"sin ofertas"}`),
		decodificar(t, `{"data":{"total":0}}`),
		42.0,
	}
	for _, payload := range casos {
		assert.Empty(t, oferta.NormalizarRespuesta(payload),
			"entrada irreconocible debe degradar a lista vacía, no a pánico")
	}
}

func TestNormalizarRespuesta_UIDFallbackPosicional(t *testing.T) {
	raw := `{"ofertas":[{"items":[]},{"items":[]}]}`
	ofertas := oferta.NormalizarRespuesta(decodificar(t, raw))
	require.Len(t, ofertas, 2)
	assert.Equal(t, "oferta-0", ofertas[0].UID, "sin ID persistido el UID es posicional")
	assert.Equal(t, "oferta-1", ofertas[1].UID)
}

func TestNormalizarRespuesta_MaterialesComoAliasDeItems(t *testing.T) {
	raw := `[{"_id":"665f1c2ab9d1e83a4c1b2f00","materiales":[{"material_codigo":"INV-01","cantidad":1}]}]`
	ofertas := oferta.NormalizarRespuesta(decodificar(t, raw))
	require.Len(t, ofertas, 1)
	require.Len(t, ofertas[0].Items, 1)
	assert.Equal(t, "INV-01", ofertas[0].Items[0].MaterialCodigo)
}

func TestNormalizarRespuesta_PendienteInformadoVsAusente(t *testing.T) {
	raw := `[{"_id":"665f1c2ab9d1e83a4c1b2f00","items":[
		{"material_codigo":"A","cantidad":10,"cantidad_pendiente_por_entregar":3},
		{"material_codigo":"B","cantidad":10},
		{"material_codigo":"C","cantidad":10,"cantidad_pendiente_por_entregar":"no-numérico"}
	]}]`
	ofertas := oferta.NormalizarRespuesta(decodificar(t, raw))
	require.Len(t, ofertas, 1)
	items := ofertas[0].Items

	require.NotNil(t, items[0].CantidadPendientePorEntregar)
	assert.True(t, items[0].CantidadPendientePorEntregar.Equal(decimal.NewFromInt(3)))
	assert.Nil(t, items[1].CantidadPendientePorEntregar, "ausente no es cero: el puntero queda nil")
	assert.Nil(t, items[2].CantidadPendientePorEntregar, "valor no numérico se trata como ausente")
}

func TestNormalizarRespuesta_EntregaInvalidaDegradaACero(t *testing.T) {
	raw := `[{"_id":"665f1c2ab9d1e83a4c1b2f00","items":[
		{"material_codigo":"A","cantidad":5,"entregas":[{"cantidad":"basura"},null,{"cantidad":2,"fecha":"2024-03-01"}]}
	]}]`
	ofertas := oferta.NormalizarRespuesta(decodificar(t, raw))
	require.Len(t, ofertas, 1)
	entregas := ofertas[0].Items[0].Entregas
	require.Len(t, entregas, 3, "las entregas inválidas se conservan como ceros, no se descartan")
	assert.True(t, entregas[0].Cantidad.IsZero())
	assert.True(t, entregas[1].Cantidad.IsZero())
	assert.True(t, entregas[2].Cantidad.Equal(decimal.NewFromInt(2)))
}

// El payload de escritura debe reconstruir lo que llegó: normalizar el
// payload de una oferta normalizada produce la misma oferta.
func TestNormalizarRespuesta_IdempotenciaConPayload(t *testing.T) {
	ofertas := oferta.NormalizarRespuesta(decodificar(t, `[`+ofertaJSON+`]`))
	require.Len(t, ofertas, 1)

	cuerpo, err := json.Marshal(ofertas[0].Payload())
	require.NoError(t, err)

	reproceso := oferta.NormalizarRespuesta(decodificar(t, string(cuerpo)))
	require.Len(t, reproceso, 1)

	original, segunda := ofertas[0], reproceso[0]
	assert.Equal(t, original.MongoID, segunda.MongoID)
	assert.Equal(t, original.NumeroOferta, segunda.NumeroOferta)
	require.Len(t, segunda.Items, len(original.Items))
	for i := range original.Items {
		assert.Equal(t, original.Items[i].MaterialCodigo, segunda.Items[i].MaterialCodigo)
		assert.True(t, original.Items[i].Cantidad.Equal(segunda.Items[i].Cantidad))
		assert.True(t, original.Items[i].TotalEntregado().Equal(segunda.Items[i].TotalEntregado()),
			"el total entregado debe sobrevivir el viaje payload→normalización")
	}
}
