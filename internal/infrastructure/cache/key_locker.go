// Package cache caches en memoria con expiración.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
)

var _ ports.KeyLocker = (*KeyLocker)(nil)

// KeyLocker impide repetir una acción por clave dentro de la ventana ttl.
// No hay Unlock: la clave expira sola.
type KeyLocker struct {
	mu    sync.Mutex
	locks *expirable.LRU[string, struct{}]
}

// NewKeyLocker con capacidad máxima de claves vivas.
func NewKeyLocker(size int, ttl time.Duration) *KeyLocker {
	return &KeyLocker{locks: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// TryLock true si la clave estaba libre y quedó tomada.
func (l *KeyLocker) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks.Contains(key) {
		return false
	}
	l.locks.Add(key, struct{}{})
	return true
}
