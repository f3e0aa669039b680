package agent

import (
	"context"
	"hash/fnv"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

const lockStripes = 64

// UserLocks serializa los turnos de un mismo usuario. Users that hash to the
// same stripe also wait for each other.
type UserLocks struct {
	stripes [lockStripes]chan struct{}
}

func NewUserLocks() *UserLocks {
	l := &UserLocks{}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock waits for the user's stripe or for ctx. The returned func releases it.
func (l *UserLocks) Lock(ctx context.Context, userID kernel.UserID) (func(), error) {
	h := fnv.New32a()
	h.Write([]byte(userID))
	stripe := l.stripes[h.Sum32()%lockStripes]

	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
