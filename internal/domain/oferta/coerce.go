package oferta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Coerción tolerante de valores JSON heterogéneos. El backend mezcla números,
// strings numéricos y basura; nada de esto debe tumbar la normalización.

// aDecimal intenta convertir v a un decimal finito. Devuelve false para nil,
// strings vacíos o no numéricos, NaN e infinitos.
func aDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return aDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

// aDecimalODefecto convierte v a decimal; inválido degrada a cero.
func aDecimalODefecto(v any) decimal.Decimal {
	d, ok := aDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// aCadena convierte valores escalares a string. Objetos y arrays degradan a "".
func aCadena(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// primeraCadena devuelve el primer valor no vacío de las claves indicadas.
func primeraCadena(m map[string]any, claves ...string) string {
	for _, k := range claves {
		if s := strings.TrimSpace(aCadena(m[k])); s != "" {
			return s
		}
	}
	return ""
}

// aMapa devuelve v como objeto JSON, o nil si no lo es.
func aMapa(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// aLista devuelve v como array JSON, o nil si no lo es.
func aLista(v any) []any {
	l, _ := v.([]any)
	return l
}
