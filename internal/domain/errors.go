package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El flujo de guardado distingue errores de validación (el usuario puede
// corregir y reintentar) de rechazos del backend y de fallos silenciosos
// (el backend respondió éxito pero la relectura no muestra lo esperado).
var (
	ErrSinMaterial        = errors.New("selecciona un material en cada fila")
	ErrMaterialDuplicado  = errors.New("hay materiales repetidos entre las filas")
	ErrItemInexistente    = errors.New("el material ya no existe en la oferta")
	ErrCantidadInvalida   = errors.New("la cantidad debe ser un número mayor que cero")
	ErrExcedePendiente    = errors.New("la cantidad supera lo pendiente por entregar")
	ErrFechaInvalida      = errors.New("fecha de entrega ausente o inválida")
	ErrInvarianteExcedida = errors.New("la suma entregada excedería la cantidad contratada")
	ErrOfertaSinID        = errors.New("no se pudo identificar la oferta a actualizar")
	ErrOfertaNoEncontrada = errors.New("oferta no encontrada")
	ErrBackendRechazo     = errors.New("el backend rechazó la actualización")
	ErrFalloSilencioso    = errors.New("el backend reportó éxito pero la entrega no quedó persistida")
	ErrGuardadoEnCurso    = errors.New("ya hay un guardado en curso para esta oferta")
)
