package oferta

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/solarix/entregas-api/internal/domain/entity"
)

// Identificación de ofertas persistidas. El backend puede poblar cualquiera
// de los cuatro campos de ID, con valores inconsistentes entre sí; para
// escribir hay que elegir uno que el endpoint de actualización reconozca.

var (
	// ObjectID de Mongo: 24 caracteres hexadecimales.
	patronHex24 = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	// Número de oferta legible: OF-YYYYMMDD-NNN.
	patronNumeroOferta = regexp.MustCompile(`^OF-\d{8}-\d{3}$`)
)

// ExtraerIDPersistido busca el ID a usar contra el endpoint de actualización.
// Candidatos en orden _id, oferta_id, numero_oferta, id: gana el primero que
// matchee un patrón conocido; si ninguno matchea, el primer candidato no
// vacío; si todos vacíos, "".
func ExtraerIDPersistido(o *entity.Oferta) string {
	candidatos := o.CandidatosID()

	for _, c := range candidatos {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if patronHex24.MatchString(c) || patronNumeroOferta.MatchString(c) {
			return c
		}
	}
	for _, c := range candidatos {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// CoincideID indica si alguno de los IDs persistidos de la oferta es
// exactamente id. Se usa para relocalizar la oferta tras recargar.
func CoincideID(o *entity.Oferta, id string) bool {
	if id == "" {
		return false
	}
	for _, c := range o.CandidatosID() {
		if strings.TrimSpace(c) == id {
			return true
		}
	}
	return false
}

// NormalizarNumeroCliente canonicaliza un número de cliente para rutas y
// comparaciones: NFKC, mayúsculas y solo [A-Z0-9]. Así "c-0042", "C 0042" y
// la variante de ancho completo convergen en "C0042".
func NormalizarNumeroCliente(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
