package memory

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

// ============================================================================
// Memory Record
// ============================================================================

// Snapshot es el documento de perfil del estudiante (atributo -> valor)
type Snapshot map[string]any

// Clone returns a shallow copy; nested values are shared.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Merge overlays update onto a copy of s. A nil value removes the key.
func (s Snapshot) Merge(update Snapshot) Snapshot {
	merged := make(Snapshot, len(s)+len(update))
	maps.Copy(merged, s)
	for k, v := range update {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}

// Equal compares two snapshots by their JSON encoding
func (s Snapshot) Equal(other Snapshot) bool {
	a, errA := json.Marshal(s)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && string(a) == string(b)
}

// Record es la memoria de largo plazo de un usuario
type Record struct {
	UserID    kernel.UserID `json:"user_id"`
	Data      Snapshot      `json:"data"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewRecord builds a record stamped with the current time. A nil snapshot is
// stored as an empty document.
func NewRecord(userID kernel.UserID, data Snapshot) *Record {
	if data == nil {
		data = Snapshot{}
	}
	return &Record{
		UserID:    userID,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone copies the record so callers cannot mutate cached state
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = r.Data.Clone()
	return &c
}

// ============================================================================
// Repository Interface
// ============================================================================

// Repository almacena una memoria por usuario. Get returns ErrMemoryNotFound
// when the user has no memory yet.
type Repository interface {
	Get(ctx context.Context, userID kernel.UserID) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// Pinger is implemented by repositories backed by a network store
type Pinger interface {
	Ping(ctx context.Context) error
}

// ============================================================================
// Errors
// ============================================================================

var ErrRegistry = errx.NewRegistry("MEMORY")

var (
	CodeMemoryNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "No hay memoria para este usuario")
	CodeLookupFailed   = ErrRegistry.Register("LOOKUP_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "No se pudo consultar la memoria")
	CodeMalformed      = ErrRegistry.Register("MALFORMED", errx.TypeUnavailable, http.StatusServiceUnavailable, "La memoria almacenada está corrupta")
	CodeSaveFailed     = ErrRegistry.Register("SAVE_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "No se pudo guardar la memoria")
	CodeInvalidUser    = ErrRegistry.Register("INVALID_USER", errx.TypeValidation, http.StatusBadRequest, "user_id es obligatorio")
)

func ErrMemoryNotFound() *errx.Error {
	return ErrRegistry.New(CodeMemoryNotFound)
}

func ErrLookupFailed() *errx.Error {
	return ErrRegistry.New(CodeLookupFailed)
}

func ErrMalformed() *errx.Error {
	return ErrRegistry.New(CodeMalformed)
}

func ErrSaveFailed() *errx.Error {
	return ErrRegistry.New(CodeSaveFailed)
}

func ErrInvalidUser() *errx.Error {
	return ErrRegistry.New(CodeInvalidUser)
}

// IsNotFound reports whether err means "no memory yet"
func IsNotFound(err error) bool {
	return errx.IsCode(err, CodeMemoryNotFound)
}

// IsLookupError reports whether err is one of the lookup failure kinds
func IsLookupError(err error) bool {
	return errx.IsCode(err, CodeLookupFailed) || errx.IsCode(err, CodeMalformed)
}

// Decode parses a stored JSON document. Anything other than a JSON object is
// malformed.
func Decode(userID kernel.UserID, raw []byte) (Snapshot, error) {
	var data Snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrMalformed().WithCause(err).WithDetail("user_id", userID.String())
	}
	if data == nil {
		return nil, ErrMalformed().WithDetail("user_id", userID.String())
	}
	return data, nil
}
