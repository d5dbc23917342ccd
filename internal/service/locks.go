package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 256

// keyedMutex serializes work per key. Keys hash onto a fixed set of
// stripes, so unrelated keys rarely share a lock and no lock covers
// everything.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

// Lock locks the stripe of key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
