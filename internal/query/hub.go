package query

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Listener receives the new snapshot of an entry it observes
type Listener func(Key, Snapshot)

// hub fans entry updates out to the views observing them
type hub struct {
	mu        sync.RWMutex
	listeners map[Key]map[int]Listener
	nextID    int
}

func newHub() *hub {
	return &hub{
		listeners: make(map[Key]map[int]Listener),
	}
}

// register adds a listener for key and returns its id
func (h *hub) register(key Key, fn Listener) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	if h.listeners[key] == nil {
		h.listeners[key] = make(map[int]Listener)
	}
	h.listeners[key][id] = fn

	log.Debug().Str("resource", key.Resource).Int("listener_id", id).Msg("Observer registered")
	return id
}

// unregister removes a listener
func (h *hub) unregister(key Key, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ls, exists := h.listeners[key]; exists {
		delete(ls, id)
		if len(ls) == 0 {
			delete(h.listeners, key)
		}
		log.Debug().Str("resource", key.Resource).Int("listener_id", id).Msg("Observer unregistered")
	}
}

// observed reports whether any view is watching key
func (h *hub) observed(key Key) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[key]) > 0
}

// publish delivers snap to every listener of key
func (h *hub) publish(key Key, snap Snapshot) {
	h.mu.RLock()
	fns := make([]Listener, 0, len(h.listeners[key]))
	for _, fn := range h.listeners[key] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(key, snap)
	}
}
