package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/poshare/access"
	po "github.com/minios-linux/poshare/pofile"
)

func TestBusDispatchesInOrderAndSurvivesPanics(t *testing.T) {
	var logBuf bytes.Buffer
	bus := NewBus(zerolog.New(&logBuf))

	var got []string
	bus.OnEntryChanged(func(ev EntryChanged) { got = append(got, "first:"+ev.Entry.MsgID) })
	bus.OnEntryChanged(func(EntryChanged) { panic("boom") })
	bus.OnEntryChanged(func(ev EntryChanged) { got = append(got, "third:"+ev.OldTranslation) })

	bus.EntryChanged(EntryChanged{Entry: &po.Entry{MsgID: "hello"}, OldTranslation: "old"})

	assert.Equal(t, []string{"first:hello", "third:old"}, got)
	assert.Contains(t, logBuf.String(), "Notification handler panicked")
}

func TestBusCatalogSavedAndNilBus(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var saved []CatalogSaved
	bus.OnCatalogSaved(func(ev CatalogSaved) { saved = append(saved, ev) })

	bus.CatalogSaved(CatalogSaved{Language: "fr", User: access.User{Username: "alice"}})
	require.Len(t, saved, 1)
	assert.Equal(t, "alice", saved[0].User.Username)

	var nilBus *Bus
	assert.NotPanics(t, func() {
		nilBus.EntryChanged(EntryChanged{})
		nilBus.CatalogSaved(CatalogSaved{})
	})
}

func TestAuditLogsEvents(t *testing.T) {
	var logBuf bytes.Buffer
	bus := NewBus(zerolog.Nop())
	bus.Audit(zerolog.New(&logBuf))

	bus.EntryChanged(EntryChanged{Entry: &po.Entry{MsgID: "hello"}, Path: "/x/fr.po", Language: "fr"})
	bus.CatalogSaved(CatalogSaved{Path: "/x/fr.po", Language: "fr"})

	out := logBuf.String()
	assert.Contains(t, out, `"msgid":"hello"`)
	assert.Contains(t, out, "Entry changed")
	assert.Contains(t, out, "Catalog saved")
}
