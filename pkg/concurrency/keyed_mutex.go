// Package concurrency 고루틴 간 동기화를 돕는 도구를 제공합니다.
package concurrency

import "sync"

// KeyedMutex 키별로 독립적인 잠금을 제공합니다. 서로 다른 키의 잠금은 서로를 기다리지 않습니다.
//
// 같은 키로 "확인 후 제출"처럼 조회와 변경이 이어지는 구간을 직렬화할 때 사용합니다.
// 잠금을 잡거나 기다리는 고루틴이 없어진 키의 항목은 맵에서 바로 제거됩니다.
//
// 제로값은 바로 사용할 수 있습니다.
type KeyedMutex[K comparable] struct {
	mu sync.Mutex

	// entries 잠겨 있거나 대기 중인 키의 잠금 항목입니다.
	entries map[K]*entry
}

type entry struct {
	mu sync.Mutex

	// refs 이 항목을 잡고 있거나 기다리는 고루틴 수
	refs int
}

// NewKeyedMutex 새 KeyedMutex를 생성합니다.
func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{entries: make(map[K]*entry)}
}

// Lock key의 잠금을 획득합니다. 다른 고루틴이 잡고 있으면 해제될 때까지 기다립니다.
func (km *KeyedMutex[K]) Lock(key K) {
	km.mu.Lock()
	e := km.acquireLocked(key)
	km.mu.Unlock()

	e.mu.Lock()
}

// TryLock 기다리지 않고 key의 잠금을 시도합니다.
//
// 반환값:
//   - true: 잠금을 획득했습니다. 반드시 Unlock()을 호출해야 합니다.
//   - false: 다른 고루틴이 잡고 있거나 기다리고 있습니다. Unlock()을 호출해서는 안 됩니다.
func (km *KeyedMutex[K]) TryLock(key K) bool {
	km.mu.Lock()
	defer km.mu.Unlock()

	if _, busy := km.entries[key]; busy {
		return false
	}

	e := km.acquireLocked(key)
	e.mu.Lock()

	return true
}

// Unlock key의 잠금을 해제합니다. 잠기지 않은 키를 해제하면 패닉이 발생합니다.
func (km *KeyedMutex[K]) Unlock(key K) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e, ok := km.entries[key]
	if !ok {
		panic("잠기지 않은 키의 잠금 해제 시도")
	}

	e.mu.Unlock()

	e.refs--
	if e.refs <= 0 {
		delete(km.entries, key)
	}
}

// Len 잠겨 있거나 대기 중인 키의 수를 반환합니다.
func (km *KeyedMutex[K]) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.entries)
}

func (km *KeyedMutex[K]) acquireLocked(key K) *entry {
	if km.entries == nil {
		km.entries = make(map[K]*entry)
	}

	e, ok := km.entries[key]
	if !ok {
		e = &entry{}
		km.entries[key] = e
	}
	e.refs++

	return e
}
