package pofile

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/leonelquinteros/gotext"
)

func TestMOIsDeterministicAndReadableByGotext(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleCatalog + `
msgid "apple"
msgstr "pomme"

msgctxt "verb"
msgid "open"
msgstr "ouvrir"

msgid "file"
msgid_plural "files"
msgstr[0] "fichier"
msgstr[1] "fichiers"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	first := f.MO()
	second := f.MO()
	if !bytes.Equal(first, second) {
		t.Fatal("MO output is not deterministic")
	}
	if magic := binary.LittleEndian.Uint32(first); magic != moMagic {
		t.Fatalf("magic = %#x", magic)
	}
	// header + hello + apple + open + file; fuzzy, untranslated and obsolete are skipped
	if n := binary.LittleEndian.Uint32(first[8:]); n != 5 {
		t.Fatalf("message count = %d, want 5", n)
	}

	mo := gotext.NewMo()
	mo.Parse(first)
	if got := mo.Get("hello"); got != "bonjour" {
		t.Fatalf("Get(hello) = %q", got)
	}
	if got := mo.GetC("open", "verb"); got != "ouvrir" {
		t.Fatalf("GetC(open, verb) = %q", got)
	}
	if got := mo.GetN("file", "files", 5); got != "fichiers" {
		t.Fatalf("GetN(file, 5) = %q", got)
	}
	if got := mo.Get("count"); got != "count" {
		t.Fatalf("fuzzy entry must not be compiled, got %q", got)
	}

	if err := VerifyMO(f, first); err != nil {
		t.Fatalf("VerifyMO: %v", err)
	}

	f.Find("apple", "").MsgStr = "pomme de terre"
	if err := VerifyMO(f, first); err == nil {
		t.Fatal("VerifyMO should detect a stale compiled catalog")
	}
}

func TestMOPath(t *testing.T) {
	if got := MOPath("/x/fr/LC_MESSAGES/django.po"); got != "/x/fr/LC_MESSAGES/django.mo" {
		t.Fatalf("MOPath = %q", got)
	}
}
