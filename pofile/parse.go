package pofile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FormatError reports malformed PO syntax. Line is 1-based.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func formatErr(line int, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// parser holds the state of the entry being assembled.
type parser struct {
	f *File

	cur       *Entry
	startLine int
	hasID     bool
	hasStr    bool
	field     string // last msgid/msgstr/etc. field, for continuation lines
	prevField string // last "#|" field
	plural    int    // index of the last msgstr[N]
}

func (p *parser) begin(lineNum int) {
	if p.cur != nil {
		return
	}
	p.cur = &Entry{MsgStrPlural: make(map[int]string)}
	p.startLine = lineNum
}

func (p *parser) flush() error {
	e := p.cur
	if e == nil {
		return nil
	}
	defer func() {
		p.cur = nil
		p.hasID, p.hasStr = false, false
		p.field, p.prevField = "", ""
	}()

	if !p.hasID {
		return formatErr(p.startLine, "entry has no msgid")
	}
	if !p.hasStr {
		return formatErr(p.startLine, "entry %q has no msgstr", e.MsgID)
	}
	if e.MsgIDPlural == "" && len(e.MsgStrPlural) > 0 {
		return formatErr(p.startLine, "entry %q has msgstr[N] without msgid_plural", e.MsgID)
	}

	if e.MsgID == "" && e.MsgCtxt == "" && !e.Obsolete {
		if p.f.Header != nil {
			return formatErr(p.startLine, "duplicate header entry")
		}
		p.f.Header = e
		return nil
	}
	p.f.Entries = append(p.f.Entries, e)
	return nil
}

// Parse reads a PO file from a reader. On malformed input it returns a
// *FormatError and no catalog.
func Parse(r io.Reader) (*File, error) {
	p := &parser{f: &File{WrapWidth: DefaultWrapWidth, Entries: make([]*Entry, 0)}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if err := p.line(line, lineNum); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	if err := p.flush(); err != nil {
		return nil, err
	}

	f := p.f
	if f.Header == nil {
		f.Header = &Entry{MsgStrPlural: make(map[int]string)}
	}
	if err := validatePluralForms(f); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseBytes parses an in-memory PO file.
func ParseBytes(data []byte) (*File, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile reads a PO file from disk and records its path.
func ParseFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := Parse(in)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

func (p *parser) line(line string, lineNum int) error {
	// Empty line separates entries
	if line == "" {
		return p.flush()
	}

	obsolete := false
	if strings.HasPrefix(line, "#~") && !strings.HasPrefix(line, "#~|") {
		obsolete = true
		line = strings.TrimLeft(line[2:], " ")
		if line == "" {
			return nil
		}
	} else if strings.HasPrefix(line, "#~|") {
		line = "#|" + line[3:]
	}

	// A comment or a new msgctxt/msgid after a complete msgstr starts a new
	// entry even without a separating blank line.
	if p.hasStr && (strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "msgctxt") || strings.HasPrefix(line, "msgid ")) {
		if err := p.flush(); err != nil {
			return err
		}
	}

	p.begin(lineNum)
	if obsolete {
		p.cur.Obsolete = true
	}

	if strings.HasPrefix(line, "#") {
		return p.comment(line, lineNum)
	}

	keyword, rest, _ := strings.Cut(line, " ")
	switch {
	case keyword == "msgctxt":
		return p.setField(&p.cur.MsgCtxt, "msgctxt", rest, lineNum)
	case keyword == "msgid":
		p.hasID = true
		return p.setField(&p.cur.MsgID, "msgid", rest, lineNum)
	case keyword == "msgid_plural":
		if !p.hasID {
			return formatErr(lineNum, "msgid_plural before msgid")
		}
		return p.setField(&p.cur.MsgIDPlural, "msgid_plural", rest, lineNum)
	case keyword == "msgstr":
		if !p.hasID {
			return formatErr(lineNum, "msgstr before msgid")
		}
		if p.cur.MsgIDPlural != "" {
			return formatErr(lineNum, "plural entry %q needs msgstr[N]", p.cur.MsgID)
		}
		p.hasStr = true
		return p.setField(&p.cur.MsgStr, "msgstr", rest, lineNum)
	case strings.HasPrefix(keyword, "msgstr["):
		if !p.hasID {
			return formatErr(lineNum, "msgstr before msgid")
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(keyword, "msgstr["), "]"))
		if err != nil || !strings.HasSuffix(keyword, "]") || idx < 0 {
			return formatErr(lineNum, "invalid msgstr index: %s", keyword)
		}
		val, err := unquote(rest)
		if err != nil {
			return formatErr(lineNum, "%s: %v", keyword, err)
		}
		p.hasStr = true
		p.cur.MsgStrPlural[idx] = val
		p.field, p.plural = "msgstr[]", idx
		return nil
	case strings.HasPrefix(line, `"`):
		return p.continuation(line, lineNum)
	}
	return formatErr(lineNum, "unexpected line: %s", line)
}

func (p *parser) setField(dst *string, name, quoted string, lineNum int) error {
	val, err := unquote(quoted)
	if err != nil {
		return formatErr(lineNum, "%s: %v", name, err)
	}
	*dst = val
	p.field = name
	return nil
}

func (p *parser) continuation(line string, lineNum int) error {
	val, err := unquote(line)
	if err != nil {
		return formatErr(lineNum, "%v", err)
	}
	e := p.cur
	switch p.field {
	case "msgctxt":
		e.MsgCtxt += val
	case "msgid":
		e.MsgID += val
	case "msgid_plural":
		e.MsgIDPlural += val
	case "msgstr":
		e.MsgStr += val
	case "msgstr[]":
		e.MsgStrPlural[p.plural] += val
	default:
		return formatErr(lineNum, "continuation line without a field")
	}
	return nil
}

func (p *parser) comment(line string, lineNum int) error {
	e := p.cur
	switch {
	case strings.HasPrefix(line, "#:"):
		e.References = append(e.References, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#,"):
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" && !e.HasFlag(flag) {
				e.Flags = append(e.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#."):
		e.ExtractedComments = append(e.ExtractedComments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#|"):
		return p.previous(strings.TrimSpace(line[2:]), lineNum)
	default:
		comment := line[1:]
		if strings.HasPrefix(comment, " ") {
			comment = comment[1:]
		}
		e.TranslatorComments = append(e.TranslatorComments, comment)
	}
	return nil
}

func (p *parser) previous(rest string, lineNum int) error {
	e := p.cur
	var dst *string
	keyword, quoted, _ := strings.Cut(rest, " ")
	switch keyword {
	case "msgctxt":
		dst, p.prevField = &e.PreviousMsgCtxt, keyword
	case "msgid":
		dst, p.prevField = &e.PreviousMsgID, keyword
	case "msgid_plural":
		dst, p.prevField = &e.PreviousMsgIDPlural, keyword
	default:
		if !strings.HasPrefix(rest, `"`) {
			return formatErr(lineNum, "unexpected previous-message line: %s", rest)
		}
		quoted = rest
		switch p.prevField {
		case "msgctxt":
			dst = &e.PreviousMsgCtxt
		case "msgid":
			dst = &e.PreviousMsgID
		case "msgid_plural":
			dst = &e.PreviousMsgIDPlural
		default:
			return formatErr(lineNum, "continuation line without a field")
		}
		val, err := unquote(quoted)
		if err != nil {
			return formatErr(lineNum, "%v", err)
		}
		*dst += val
		return nil
	}
	val, err := unquote(quoted)
	if err != nil {
		return formatErr(lineNum, "#| %s: %v", keyword, err)
	}
	*dst = val
	return nil
}

func validatePluralForms(f *File) error {
	pf := f.HeaderField("Plural-Forms")
	if pf == "" {
		return nil
	}
	m := npluralsRe.FindStringSubmatch(pf)
	if m == nil || !strings.Contains(pf, "plural=") {
		return formatErr(0, "invalid Plural-Forms header: %q", pf)
	}
	if n, err := strconv.Atoi(m[1]); err != nil || n < 1 {
		return formatErr(0, "invalid nplurals in Plural-Forms header: %q", pf)
	}
	return nil
}

// unquote removes PO-style quoting from a string. The input must be a single
// double-quoted string with no unescaped interior quotes.
func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", fmt.Errorf("unescaped quote in string")
		}
		if c != '\\' {
			result.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("unterminated string")
		}
		i++
		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'a':
			result.WriteByte('\a')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case 'v':
			result.WriteByte('\v')
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		default:
			result.WriteByte('\\')
			result.WriteByte(s[i])
		}
	}
	return result.String(), nil
}
