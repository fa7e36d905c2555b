package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed шина закрыта
var ErrBusClosed = errors.New("event bus closed")

var (
	globalMu  sync.RWMutex
	globalBus EventBus
)

// Init устанавливает глобальную шину.
func Init(bus EventBus) {
	globalMu.Lock()
	globalBus = bus
	globalMu.Unlock()
}

// Current возвращает глобальную шину или nil
func Current() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	bus := Current()
	if bus == nil {
		return nil
	}
	return bus.Publish(ctx, ev)
}
