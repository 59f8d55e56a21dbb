package controller

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

// LockTable is a process local lock table with the Store lock semantics,
// for backends that have no shared lock service of their own.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]tableLock
}

type tableLock struct {
	token   string
	expires time.Time
}

// Lock takes key for token, or renews it when token already holds it. An
// empty token gets a new one. Expired locks are free for anyone.
func (lt *LockTable) Lock(key, token string) (string, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := time.Now()
	if l, ok := lt.locks[key]; ok && l.token != token && now.Before(l.expires) {
		return "", ErrIsLocked
	}
	if token == "" {
		token = uuid.NewV4().String()
	}
	if lt.locks == nil {
		lt.locks = map[string]tableLock{}
	}
	lt.locks[key] = tableLock{token: token, expires: now.Add(LockExpiry)}
	return token, nil
}

// Unlock frees key. Freeing a key held by another live token fails.
func (lt *LockTable) Unlock(key, token string) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	l, ok := lt.locks[key]
	if !ok {
		return nil
	}
	if l.token != token && time.Now().Before(l.expires) {
		return ErrIsLocked
	}
	delete(lt.locks, key)
	return nil
}

// Locked reports whether a live lock holds key.
func (lt *LockTable) Locked(key string) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	l, ok := lt.locks[key]
	return ok && time.Now().Before(l.expires)
}

// Reset drops every lock.
func (lt *LockTable) Reset() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.locks = nil
}
