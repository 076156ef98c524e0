package pofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/natefinch/atomic"
)

const (
	moMagic      = 0x950412de
	moHeaderSize = 28
)

// contextSeparator joins msgctxt and msgid in MO keys.
const contextSeparator = "\x04"

type moMessage struct {
	id  string
	str string
}

// compiledMessages returns the header plus every translated, non-fuzzy,
// non-obsolete entry, keyed the way msgfmt keys them.
func (f *File) compiledMessages() []moMessage {
	var msgs []moMessage
	if f.Header != nil {
		msgs = append(msgs, moMessage{id: "", str: f.Header.MsgStr})
	}
	for _, e := range f.TranslatedEntries() {
		id := e.MsgID
		if e.MsgCtxt != "" {
			id = e.MsgCtxt + contextSeparator + id
		}
		str := e.MsgStr
		if e.IsPlural() {
			id += "\x00" + e.MsgIDPlural
			forms := make([]string, 0, len(e.MsgStrPlural))
			for _, idx := range e.PluralIndices() {
				forms = append(forms, e.MsgStrPlural[idx])
			}
			str = strings.Join(forms, "\x00")
		}
		msgs = append(msgs, moMessage{id: id, str: str})
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].id < msgs[j].id })
	return msgs
}

// MO compiles the catalog to the GNU MO binary format (little endian,
// revision 0, no hash table). The output is deterministic.
func (f *File) MO() []byte {
	msgs := f.compiledMessages()
	n := uint32(len(msgs))

	origTab := uint32(moHeaderSize)
	transTab := origTab + 8*n
	dataStart := transTab + 8*n

	var strs bytes.Buffer
	origIdx := make([]uint32, 0, 2*n)
	transIdx := make([]uint32, 0, 2*n)
	for _, m := range msgs {
		origIdx = append(origIdx, uint32(len(m.id)), dataStart+uint32(strs.Len()))
		strs.WriteString(m.id)
		strs.WriteByte(0)
	}
	for _, m := range msgs {
		transIdx = append(transIdx, uint32(len(m.str)), dataStart+uint32(strs.Len()))
		strs.WriteString(m.str)
		strs.WriteByte(0)
	}

	var out bytes.Buffer
	out.Grow(int(dataStart) + strs.Len())
	le := binary.LittleEndian
	for _, v := range []uint32{moMagic, 0, n, origTab, transTab, 0, dataStart} {
		_ = binary.Write(&out, le, v)
	}
	_ = binary.Write(&out, le, origIdx)
	_ = binary.Write(&out, le, transIdx)
	out.Write(strs.Bytes())
	return out.Bytes()
}

// MOPath returns the compiled sibling path of a PO file ("x.po" -> "x.mo").
func MOPath(poPath string) string {
	return strings.TrimSuffix(poPath, filepath.Ext(poPath)) + ".mo"
}

// WriteMOFile atomically replaces path with the compiled catalog.
func (f *File) WriteMOFile(path string) error {
	return atomic.WriteFile(path, bytes.NewReader(f.MO()))
}

// VerifyMO loads compiled MO data with the gotext runtime and checks that
// every translated entry of f resolves to its translation.
func VerifyMO(f *File, data []byte) error {
	mo := gotext.NewMo()
	mo.Parse(data)

	var missing []string
	for _, e := range f.TranslatedEntries() {
		want := e.MsgStr
		if e.IsPlural() {
			want = e.MsgStrPlural[0]
		}
		var got string
		if e.MsgCtxt != "" {
			got = mo.GetC(e.MsgID, e.MsgCtxt)
		} else {
			got = mo.Get(e.MsgID)
		}
		if got != want {
			missing = append(missing, e.MsgID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d compiled messages do not match: %s", len(missing), strings.Join(missing, ", "))
	}
	return nil
}
