// Package notify carries best-effort notifications out of the editing core.
//
// Handlers run synchronously in registration order. A panicking handler is
// recovered and logged; it never affects the caller.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/minios-linux/poshare/access"
	po "github.com/minios-linux/poshare/pofile"
)

// EntryChanged is sent for every entry whose translation or fuzzy state an
// edit changed.
type EntryChanged struct {
	Entry          *po.Entry
	User           access.User
	OldTranslation string
	OldFuzzy       bool
	Path           string
	Language       string
}

// CatalogSaved is sent after a catalog was written to disk.
type CatalogSaved struct {
	Path     string
	Language string
	User     access.User
}

// Notifier receives core notifications.
type Notifier interface {
	EntryChanged(ev EntryChanged)
	CatalogSaved(ev CatalogSaved)
}

// Bus is a Notifier that fans events out to registered handlers.
type Bus struct {
	mu      sync.RWMutex
	changed []func(EntryChanged)
	saved   []func(CatalogSaved)
	log     zerolog.Logger
}

// NewBus returns an empty bus that logs handler panics to log.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{log: log}
}

// OnEntryChanged registers a handler for EntryChanged events.
func (b *Bus) OnEntryChanged(fn func(EntryChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changed = append(b.changed, fn)
}

// OnCatalogSaved registers a handler for CatalogSaved events.
func (b *Bus) OnCatalogSaved(fn func(CatalogSaved)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, fn)
}

// EntryChanged dispatches ev.
func (b *Bus) EntryChanged(ev EntryChanged) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := append([]func(EntryChanged){}, b.changed...)
	b.mu.RUnlock()
	for _, fn := range handlers {
		b.call("entry_changed", func() { fn(ev) })
	}
}

// CatalogSaved dispatches ev.
func (b *Bus) CatalogSaved(ev CatalogSaved) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := append([]func(CatalogSaved){}, b.saved...)
	b.mu.RUnlock()
	for _, fn := range handlers {
		b.call("catalog_saved", func() { fn(ev) })
	}
}

func (b *Bus) call(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", event).
				Interface("panic", r).
				Msg("Notification handler panicked")
		}
	}()
	fn()
}

// Audit registers handlers that log every event to log.
func (b *Bus) Audit(log zerolog.Logger) {
	b.OnEntryChanged(func(ev EntryChanged) {
		log.Info().
			Str("user", ev.User.Username).
			Str("path", ev.Path).
			Str("language", ev.Language).
			Str("msgid", ev.Entry.MsgID).
			Bool("old_fuzzy", ev.OldFuzzy).
			Bool("fuzzy", ev.Entry.IsFuzzy()).
			Msg("Entry changed")
	})
	b.OnCatalogSaved(func(ev CatalogSaved) {
		log.Info().
			Str("user", ev.User.Username).
			Str("path", ev.Path).
			Str("language", ev.Language).
			Msg("Catalog saved")
	})
}
