package entity

import "strings"

// FilaBorrador es una fila de entrada de entrega que el usuario está
// componiendo. Vive solo en memoria: se crea al abrir el formulario y se
// destruye al guardar, cancelar o cerrar.
type FilaBorrador struct {
	ID        string `json:"id"`
	ItemClave string `json:"item_clave"` // clave de la partida elegida; "" = sin selección
	Cantidad  string `json:"cantidad"`   // texto tal como lo tecleó el usuario
	Fecha     string `json:"fecha"`      // YYYY-MM-DD
}

// EnBlanco indica que la fila no aporta nada: sin material y sin cantidad.
// Las filas en blanco se ignoran al guardar, no son error.
func (f FilaBorrador) EnBlanco() bool {
	return f.ItemClave == "" && strings.TrimSpace(f.Cantidad) == ""
}
