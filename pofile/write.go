package pofile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Write writes the PO file to a writer, folding long strings at WrapWidth.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	nplurals := f.NPlurals()

	// Write header
	if f.Header != nil {
		writeEntry(bw, f.Header, f.WrapWidth, nplurals)
	}

	// Write entries
	for i, e := range f.Entries {
		if i > 0 || f.Header != nil {
			fmt.Fprintln(bw)
		}
		writeEntry(bw, e, f.WrapWidth, nplurals)
	}

	return bw.Flush()
}

// Bytes returns the serialized PO file.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	_ = f.Write(&buf) // bytes.Buffer writes do not fail
	return buf.Bytes()
}

func writeEntry(w *bufio.Writer, e *Entry, width, nplurals int) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	// Translator comments
	for _, c := range e.TranslatorComments {
		if c == "" {
			fmt.Fprintln(w, "#")
		} else {
			fmt.Fprintf(w, "# %s\n", c)
		}
	}

	// Extracted comments
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}

	// References
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}

	// Flags
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	// Previous msgctxt/msgid
	if e.PreviousMsgCtxt != "" {
		fmt.Fprintf(w, "#| msgctxt %s\n", quote(e.PreviousMsgCtxt))
	}
	if e.PreviousMsgID != "" {
		fmt.Fprintf(w, "#| msgid %s\n", quote(e.PreviousMsgID))
	}
	if e.PreviousMsgIDPlural != "" {
		fmt.Fprintf(w, "#| msgid_plural %s\n", quote(e.PreviousMsgIDPlural))
	}

	if e.MsgCtxt != "" {
		writeQuotedField(w, prefix, "msgctxt", e.MsgCtxt, width)
	}
	writeQuotedField(w, prefix, "msgid", e.MsgID, width)

	if !e.IsPlural() {
		writeQuotedField(w, prefix, "msgstr", e.MsgStr, width)
		return
	}

	writeQuotedField(w, prefix, "msgid_plural", e.MsgIDPlural, width)
	indices := e.PluralIndices()
	if len(indices) == 0 {
		for i := 0; i < nplurals; i++ {
			indices = append(indices, i)
		}
	}
	for _, idx := range indices {
		writeQuotedField(w, prefix, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx], width)
	}
}

// writeQuotedField writes a PO field, splitting after embedded newlines and
// folding lines longer than width at word boundaries.
func writeQuotedField(w *bufio.Writer, prefix, field, value string, width int) {
	lines := splitAfterNewlines(value)
	single := prefix + field + " " + quote(value)
	if len(lines) <= 1 && (width <= 0 || utf8.RuneCountInString(single) <= width) {
		fmt.Fprintln(w, single)
		return
	}

	fmt.Fprintf(w, "%s%s \"\"\n", prefix, field)
	avail := width - len(prefix) - 2
	if width <= 0 || avail < 1 {
		avail = 0
	}
	for _, line := range lines {
		for _, chunk := range wrapChunks(escape(line), avail) {
			fmt.Fprintf(w, "%s\"%s\"\n", prefix, chunk)
		}
	}
}

// splitAfterNewlines splits s after every newline; the trailing newline
// does not produce an empty element.
func splitAfterNewlines(s string) []string {
	var out []string
	for s != "" {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 || idx == len(s)-1 {
			out = append(out, s)
			break
		}
		out = append(out, s[:idx+1])
		s = s[idx+1:]
	}
	return out
}

// wrapChunks folds an escaped string into pieces of at most width runes,
// breaking after spaces. Words longer than width are kept whole.
func wrapChunks(s string, width int) []string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return []string{s}
	}

	var chunks []string
	cur := ""
	for s != "" {
		tok := s
		if idx := strings.IndexByte(s, ' '); idx >= 0 {
			tok = s[:idx+1]
		}
		s = s[len(tok):]
		if cur != "" && utf8.RuneCountInString(cur+tok) > width {
			chunks = append(chunks, cur)
			cur = ""
		}
		cur += tok
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"\a", `\a`,
	"\b", `\b`,
	"\f", `\f`,
	"\v", `\v`,
)

func escape(s string) string {
	return escaper.Replace(s)
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	return `"` + escape(s) + `"`
}
