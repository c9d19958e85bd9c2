package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solarix/entregas-api/internal/domain/entity"
	"github.com/solarix/entregas-api/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
)

func TestCategoriaEquipo(t *testing.T) {
	casos := []struct {
		nombre   string
		item     entity.ItemOferta
		esperado string
	}{
		{"por sección", entity.ItemOferta{Seccion: "Inversores"}, ledger.CategoriaInversores},
		{"por descripción", entity.ItemOferta{Descripcion: "Panel solar 550W"}, ledger.CategoriaPaneles},
		{"por descripción con tilde", entity.ItemOferta{Descripcion: "Batería de litio 5kWh"}, ledger.CategoriaBaterias},
		{"por prefijo de código", entity.ItemOferta{MaterialCodigo: "BAT-LIT-5K"}, ledger.CategoriaBaterias},
		{"material auxiliar no clasifica", entity.ItemOferta{Descripcion: "Cable solar 6mm"}, ""},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.Equal(t, c.esperado, ledger.CategoriaEquipo(&c.item))
		})
	}
}

func TestCalcularEnServicio(t *testing.T) {
	si := true
	no := false
	tres := decimal.NewFromInt(3)

	ofertas := []entity.Oferta{{
		Items: []entity.ItemOferta{
			// cantidad_en_servicio positiva manda sobre el flag
			{Descripcion: "Panel solar 550W", Cantidad: decimal.NewFromInt(10), CantidadEnServicio: &tres, EnServicio: &si},
			// solo flag: cuenta la cantidad contratada
			{Seccion: "inversores", Cantidad: decimal.NewFromInt(2), EnServicio: &si},
			// flag con cantidad cero: cuenta al menos 1
			{Descripcion: "Batería de litio", Cantidad: decimal.Zero, EnServicio: &si},
			// flag en false no suma
			{Descripcion: "Panel solar 450W", Cantidad: decimal.NewFromInt(4), EnServicio: &no},
			// sin información no suma
			{Seccion: "inversores", Cantidad: decimal.NewFromInt(1)},
		},
	}}

	r := ledger.CalcularEnServicio(ofertas)
	assert.True(t, r.Paneles.Equal(decimal.NewFromInt(3)), "paneles: manda cantidad_en_servicio")
	assert.True(t, r.Inversores.Equal(decimal.NewFromInt(2)), "inversores: flag true cuenta la cantidad")
	assert.True(t, r.Baterias.Equal(decimal.NewFromInt(1)), "baterías: flag true con cantidad 0 cuenta 1")
	assert.True(t, r.Tiene)
}

func TestCalcularEnServicio_SinEquipos(t *testing.T) {
	r := ledger.CalcularEnServicio([]entity.Oferta{{
		Items: []entity.ItemOferta{{Descripcion: "Cable solar", Cantidad: decimal.NewFromInt(100)}},
	}})
	assert.False(t, r.Tiene)
	assert.True(t, r.Inversores.IsZero())
}
