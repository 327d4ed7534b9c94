package utils

import (
	"strconv"
	"sync"
)

// KeyedMutex выдаёт по мьютексу на ключ (номер заказа, id сотрудника).
// Запись удаляется, когда её больше никто не держит и не ждёт.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len - число ключей в таблице; для тестов.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// OrderLockKey и WorkerLockKey - ключи общей таблицы блокировок.
// Порядок захвата: сначала сотрудник, потом заказ.
func OrderLockKey(id int) string { return "order:" + strconv.Itoa(id) }

func WorkerLockKey(id int64) string { return "worker:" + strconv.FormatInt(id, 10) }

// ShiftLockKey - ключ для начала и конца смены сотрудника.
func ShiftLockKey(id int64) string { return "shift:" + strconv.FormatInt(id, 10) }
