package service

import "sync"

// Gate is the marketplace-wide lock. Every mutating operation runs entirely
// inside Lock and every query inside RLock, so the marketplace behaves like a
// single serialized ledger: no operation observes another halfway through.
// The identity, rental and dispute services share one Gate.
//
// Collaborators (escrow ledger, token mint, stores) carry their own internal
// locks and never call back into the services, so lock order is always
// Gate first, collaborator second.
type Gate struct {
	mu sync.RWMutex
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Lock()    { g.mu.Lock() }
func (g *Gate) Unlock()  { g.mu.Unlock() }
func (g *Gate) RLock()   { g.mu.RLock() }
func (g *Gate) RUnlock() { g.mu.RUnlock() }
