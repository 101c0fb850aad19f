package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last opened each domain successfully,
// so repeat visits skip the race. Entries expire after the configured TTL.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]domainEntry
	ttl     time.Duration
	done    chan struct{}
}

type domainEntry struct {
	engine    string
	expiresAt time.Time
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go dm.pruneLoop()
	return dm
}

// Get returns the remembered engine for a domain, or "" when unknown or
// expired.
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	entry, ok := dm.entries[domain]
	if !ok {
		return ""
	}
	if time.Now().After(entry.expiresAt) {
		delete(dm.entries, domain)
		return ""
	}
	return entry.engine
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engine string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.entries[domain] = domainEntry{
		engine:    engine,
		expiresAt: time.Now().Add(dm.ttl),
	}
}

// Delete drops the memory for a domain, after the remembered engine failed.
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, domain)
}

// Stop terminates the background pruner.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

func (dm *DomainMemory) pruneLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.mu.Lock()
			for domain, entry := range dm.entries {
				if now.After(entry.expiresAt) {
					delete(dm.entries, domain)
				}
			}
			dm.mu.Unlock()
		}
	}
}
