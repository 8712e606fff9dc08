/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"sync"
)

// Hub distributes change events of one logical database to the handlers
// registered for the changed tables. Handlers are called synchronously
// by the publisher and must not block.
type Hub struct {
	lock     sync.Mutex
	handlers map[string][]*handler
}

type handler struct {
	fn func(table string)
}

func newHub() *Hub {
	return &Hub{handlers: map[string][]*handler{}}
}

// Subscribe registers fn for changes of table. An empty table subscribes
// to all tables. The returned function unregisters fn and may be called
// more than once.
func (h *Hub) Subscribe(table string, fn func(table string)) func() {
	w := &handler{fn: fn}

	h.lock.Lock()
	h.handlers[table] = append(h.handlers[table], w)
	h.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(table, w) })
	}
}

func (h *Hub) unsubscribe(table string, w *handler) {
	h.lock.Lock()
	defer h.lock.Unlock()

	list := h.handlers[table]
	for i, e := range list {
		if e == w {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) > 0 {
		h.handlers[table] = list
	} else {
		delete(h.handlers, table)
	}
}

func (h *Hub) getHandlers(table string) []*handler {
	h.lock.Lock()
	defer h.lock.Unlock()

	var handlers []*handler
	handlers = append(handlers, h.handlers[table]...)
	if table != "" {
		handlers = append(handlers, h.handlers[""]...)
	}
	return handlers
}

// Publish notifies the handlers of every table in tables.
func (h *Hub) Publish(tables ...string) {
	for _, t := range tables {
		for _, w := range h.getHandlers(t) {
			w.fn(t)
		}
	}
}

// Subscribers returns the number of handlers registered for table.
func (h *Hub) Subscribers(table string) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.handlers[table])
}
