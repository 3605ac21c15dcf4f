package core

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo holds one value per key. Concurrent loads of the same key share a
// single call to load; failed loads are forgotten.
type memo[V any] struct {
	mutex  sync.Mutex
	values map[string]V
	group  singleflight.Group
}

func newMemo[V any]() *memo[V] {
	return &memo[V]{values: make(map[string]V)}
}

func (this *memo[V]) Get(key string, load func() (V, error)) (V, error) {
	if value, found := this.lookup(key); found {
		return value, nil
	}

	result, err, _ := this.group.Do(key, func() (any, error) {
		if value, found := this.lookup(key); found {
			return value, nil
		}
		value, err := load()
		if err != nil {
			return value, err
		}
		this.mutex.Lock()
		this.values[key] = value
		this.mutex.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (this *memo[V]) lookup(key string) (value V, found bool) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	value, found = this.values[key]
	return value, found
}
