package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio del motor de stock (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("error de almacenamiento")
	ErrDuplicate         = errors.New("registro duplicado")
)

// Códigos legibles por máquina que acompañan a cada error en las respuestas.
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeStorage           = "STORAGE_ERROR"
	CodeInternal          = "INTERNAL"
)

// InsufficientStockError rechazo de negocio de una venta: lleva talla, cantidad pedida y disponible
// para que la UI pueda pedir al usuario que refresque.
type InsufficientStockError struct {
	Size      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para talla %q: solicitado %d, disponible %d", e.Size, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStock construye el error de stock insuficiente.
func NewInsufficientStock(size string, requested, available int64) error {
	return &InsufficientStockError{Size: size, Requested: requested, Available: available}
}

// InvalidInput envuelve ErrInvalidInput con el detalle del campo.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StorageError marca un fallo de infraestructura (I/O) como ErrStorage conservando la causa.
// Reintentar la operación completa es seguro: cada unidad de trabajo se aplicó entera o no se intentó.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return &storageError{op: op, err: err}
}

type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.err} }

// ErrorCode traduce un error del motor a su código estable.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrStorage):
		return CodeStorage
	default:
		return CodeInternal
	}
}
