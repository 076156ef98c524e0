package shadow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	po "github.com/minios-linux/poshare/pofile"
)

func catalog(t *testing.T, msgstr string) *po.File {
	t.Helper()
	f, err := po.ParseBytes([]byte("msgid \"Hello\"\nmsgstr \"" + msgstr + "\"\n"))
	require.NoError(t, err)
	return f
}

func TestPutGetByValue(t *testing.T) {
	s := New(0)
	f := catalog(t, "Bonjour")
	f.WrapWidth = 0
	s.Put("tok", "locale/fr/LC_MESSAGES/django.po", f)

	// Mutating the original after Put does not leak into the store.
	f.Entries[0].MsgStr = "changed"

	got, ok, err := s.Get("tok", "locale/fr/LC_MESSAGES/django.po")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bonjour", got.Entries[0].MsgStr)
	assert.Equal(t, 0, got.WrapWidth)
	assert.Equal(t, "locale/fr/LC_MESSAGES/django.po", got.Path)

	// Each Get returns an independent catalog.
	got.Entries[0].MsgStr = "again"
	again, _, err := s.Get("tok", "locale/fr/LC_MESSAGES/django.po")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", again.Entries[0].MsgStr)
}

func TestKeyedBySessionAndPath(t *testing.T) {
	s := New(0)
	s.Put("a", "fr.po", catalog(t, "A"))
	s.Put("b", "fr.po", catalog(t, "B"))
	assert.Equal(t, 2, s.Len())

	_, ok, err := s.Get("c", "fr.po")
	require.NoError(t, err)
	assert.False(t, ok)

	// Relative and absolute spellings of one path share an entry.
	abs, _, err := s.Get("a", "./fr.po")
	require.NoError(t, err)
	require.NotNil(t, abs)
	assert.Equal(t, "A", abs.Entries[0].MsgStr)

	s.Delete("a", "fr.po")
	s.Delete("a", "fr.po")
	assert.Equal(t, 1, s.Len())
}

func TestEvictsOldest(t *testing.T) {
	s := New(2)
	s.Put("1", "fr.po", catalog(t, "1"))
	s.Put("2", "fr.po", catalog(t, "2"))
	s.Put("1", "fr.po", catalog(t, "1b"))
	s.Put("3", "fr.po", catalog(t, "3"))

	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get("1", "fr.po")
	assert.False(t, ok)
	_, ok, _ = s.Get("3", "fr.po")
	assert.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s := New(0)
	f := catalog(t, "x")
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := string(rune('a' + i))
			s.Put(tok, "fr.po", f)
			_, _, _ = s.Get(tok, "fr.po")
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, s.Len())
}
