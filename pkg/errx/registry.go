package errx

import (
	"fmt"
	"sync"
)

type definition struct {
	errType Type
	status  int
	message string
}

// Registry agrupa los códigos de error de un dominio bajo un prefijo común
type Registry struct {
	prefix string
	mu     sync.RWMutex
	defs   map[string]definition
}

// NewRegistry crea un registro de errores para un dominio
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[string]definition),
	}
}

// Register registra un código y devuelve el código completo (PREFIX.CODE).
// Registering the same code twice panics; registries are built at init time.
func (r *Registry) Register(code string, errType Type, status int, message string) string {
	full := r.prefix + "." + code

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[full]; exists {
		panic(fmt.Sprintf("errx: code %s registered twice", full))
	}
	if status == 0 {
		status = errType.DefaultStatus()
	}
	r.defs[full] = definition{errType: errType, status: status, message: message}
	return full
}

// New crea una nueva instancia del error registrado
func (r *Registry) New(code string) *Error {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()

	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			Message:    "unregistered error code",
			HTTPStatus: TypeInternal.DefaultStatus(),
		}
	}

	return &Error{
		Code:       code,
		Type:       def.errType,
		Message:    def.message,
		HTTPStatus: def.status,
	}
}
