package memorysrv

import (
	"sync"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

// subscriberBuffer is how many pending records a slow subscriber may hold
// before new ones are dropped for it.
const subscriberBuffer = 8

// Broker reparte cada escritura de memoria a los suscriptores del usuario.
// Publish never blocks on a subscriber.
type Broker struct {
	mu     sync.Mutex
	subs   map[kernel.UserID]map[uint64]chan memory.Record
	nextID uint64
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[kernel.UserID]map[uint64]chan memory.Record),
	}
}

// Subscribe devuelve un canal con las escrituras futuras de userID
func (b *Broker) Subscribe(userID kernel.UserID) (<-chan memory.Record, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan memory.Record, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan memory.Record)
	}
	b.subs[userID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.unsubscribe(userID, id) })
	}
	return ch, cancel
}

func (b *Broker) unsubscribe(userID kernel.UserID, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userSubs, ok := b.subs[userID]
	if !ok {
		return
	}
	if ch, ok := userSubs[id]; ok {
		delete(userSubs, id)
		close(ch)
	}
	if len(userSubs) == 0 {
		delete(b.subs, userID)
	}
}

// Publish envía una copia del registro a cada suscriptor del usuario
func (b *Broker) Publish(rec *memory.Record) {
	if rec == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs[rec.UserID] {
		select {
		case ch <- *rec.Clone():
		default:
			logx.WithFields(logx.Fields{
				"user_id":       rec.UserID.String(),
				"subscriber_id": id,
			}).Warn("memory subscriber is not keeping up, dropping update")
		}
	}
}

// Subscribers returns the number of live subscriptions for userID
func (b *Broker) Subscribers(userID kernel.UserID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Close cierra todos los canales; later subscriptions get a closed channel
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for userID, userSubs := range b.subs {
		for _, ch := range userSubs {
			close(ch)
		}
		delete(b.subs, userID)
	}
}
