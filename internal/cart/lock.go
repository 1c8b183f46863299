package cart

import "sync"

// accountLocks hands out one mutex per account id so that cart mutations
// for the same account are serialized within this process. Locks are never
// released back; the map grows with the number of distinct active accounts,
// which is bounded and small for this deployment.
type accountLocks struct {
	locks sync.Map
}

func (a *accountLocks) lock(key string) *sync.Mutex {
	value, _ := a.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu
}
