// Package pofile implements reading and writing of PO files following the
// GNU gettext format, plus compilation to the binary MO format.
package pofile

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// DefaultWrapWidth is the line width used by Write when File.WrapWidth is unset.
const DefaultWrapWidth = 78

// FuzzyFlag marks a translation that needs review.
const FuzzyFlag = "fuzzy"

// Entry represents a single translatable message in a PO file.
type Entry struct {
	// TranslatorComments are lines starting with "# " (translator comments).
	TranslatorComments []string
	// ExtractedComments are lines starting with "#." (extracted/automatic comments).
	ExtractedComments []string
	// References are source code locations, lines starting with "#:".
	References []string
	// Flags are format flags, lines starting with "#,".
	Flags []string

	// PreviousMsgCtxt, PreviousMsgID and PreviousMsgIDPlural hold the "#|" lines
	// msgmerge leaves on fuzzy entries.
	PreviousMsgCtxt     string
	PreviousMsgID       string
	PreviousMsgIDPlural string

	// MsgCtxt is the message context (msgctxt).
	MsgCtxt string
	// MsgID is the untranslated string.
	MsgID string
	// MsgIDPlural is the untranslated plural string.
	MsgIDPlural string
	// MsgStr is the translated string (singular or the only form).
	MsgStr string
	// MsgStrPlural maps plural form index to translated string.
	MsgStrPlural map[int]string

	// Obsolete marks entries prefixed with "#~".
	Obsolete bool
}

// Occurrence is one source location parsed from a "#:" line.
type Occurrence struct {
	File string
	Line string
}

// IsPlural reports whether the entry has plural forms.
func (e *Entry) IsPlural() bool {
	return e.MsgIDPlural != ""
}

// IsTranslated returns true if the entry has a non-empty translation and is
// not fuzzy.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" {
		return false // header entry
	}
	if e.IsFuzzy() {
		return false
	}
	return e.hasTranslation()
}

func (e *Entry) hasTranslation() bool {
	if e.IsPlural() {
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return len(e.MsgStrPlural) > 0
	}
	return e.MsgStr != ""
}

// IsFuzzy returns true if the entry is marked fuzzy.
func (e *Entry) IsFuzzy() bool {
	return e.HasFlag(FuzzyFlag)
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy && !e.IsFuzzy() {
		e.Flags = append(e.Flags, FuzzyFlag)
	} else if !fuzzy {
		e.Flags = slices.DeleteFunc(e.Flags, func(f string) bool { return f == FuzzyFlag })
	}
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// Translation returns the singular translation, or the plural forms
// concatenated in index order.
func (e *Entry) Translation() string {
	if !e.IsPlural() {
		return e.MsgStr
	}
	var b strings.Builder
	for _, idx := range e.PluralIndices() {
		b.WriteString(e.MsgStrPlural[idx])
	}
	return b.String()
}

// PluralIndices returns the populated plural slots in ascending order.
func (e *Entry) PluralIndices() []int {
	indices := make([]int, 0, len(e.MsgStrPlural))
	for idx := range e.MsgStrPlural {
		indices = append(indices, idx)
	}
	slices.Sort(indices)
	return indices
}

// Occurrences splits the "#:" references into file/line pairs.
func (e *Entry) Occurrences() []Occurrence {
	var out []Occurrence
	for _, line := range e.References {
		for _, ref := range strings.Fields(line) {
			oc := Occurrence{File: ref}
			if idx := strings.LastIndexByte(ref, ':'); idx > 0 {
				if _, err := strconv.Atoi(ref[idx+1:]); err == nil {
					oc.File, oc.Line = ref[:idx], ref[idx+1:]
				}
			}
			out = append(out, oc)
		}
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.TranslatorComments = slices.Clone(e.TranslatorComments)
	c.ExtractedComments = slices.Clone(e.ExtractedComments)
	c.References = slices.Clone(e.References)
	c.Flags = slices.Clone(e.Flags)
	c.MsgStrPlural = make(map[int]string, len(e.MsgStrPlural))
	for k, v := range e.MsgStrPlural {
		c.MsgStrPlural[k] = v
	}
	return &c
}

// File represents a parsed PO file.
type File struct {
	// Path is the file the catalog was loaded from, if any.
	Path string
	// WrapWidth controls line folding in Write. Zero or negative disables
	// folding of long strings.
	WrapWidth int
	// Header is the metadata entry (msgid "").
	Header *Entry
	// Entries are the translatable message entries in file order.
	Entries []*Entry
}

// NewFile creates a new empty PO file.
func NewFile() *File {
	return &File{
		WrapWidth: DefaultWrapWidth,
		Header:    &Entry{MsgStrPlural: make(map[int]string)},
		Entries:   make([]*Entry, 0),
	}
}

// Clone returns a deep copy of the catalog.
func (f *File) Clone() *File {
	c := &File{Path: f.Path, WrapWidth: f.WrapWidth, Entries: make([]*Entry, len(f.Entries))}
	if f.Header != nil {
		c.Header = f.Header.Clone()
	}
	for i, e := range f.Entries {
		c.Entries[i] = e.Clone()
	}
	return c
}

// HeaderPair is one "Key: Value" line of the header.
type HeaderPair struct {
	Key   string
	Value string
}

// Metadata returns the header fields in file order.
func (f *File) Metadata() []HeaderPair {
	if f.Header == nil {
		return nil
	}
	var out []HeaderPair
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			out = append(out, HeaderPair{
				Key:   strings.TrimSpace(line[:idx]),
				Value: strings.TrimSpace(line[idx+1:]),
			})
		}
	}
	return out
}

// HeaderField returns a header field value by name.
func (f *File) HeaderField(name string) string {
	for _, p := range f.Metadata() {
		if strings.EqualFold(p.Key, name) {
			return p.Value
		}
	}
	return ""
}

// SetHeaderField sets a header field value.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{MsgStrPlural: make(map[int]string)}
	}

	lines := strings.Split(f.Header.MsgStr, "\n")
	found := false
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if strings.EqualFold(key, name) {
				lines[i] = name + ": " + value
				found = true
				break
			}
		}
	}
	if !found {
		// Insert before trailing empty line
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = append(lines[:len(lines)-1], name+": "+value, "")
		} else {
			lines = append(lines, name+": "+value)
		}
	}
	f.Header.MsgStr = strings.Join(lines, "\n")
}

var npluralsRe = regexp.MustCompile(`nplurals\s*=\s*(\d+)`)

// NPlurals returns the number of plural forms declared by the Plural-Forms
// header, falling back to the usual form count for the catalog language.
func (f *File) NPlurals() int {
	pf := f.HeaderField("Plural-Forms")
	if pf == "" {
		pf = PluralFormsForLang(f.HeaderField("Language"))
	}
	if m := npluralsRe.FindStringSubmatch(pf); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 2
}

// Find returns the first non-obsolete entry with the given msgid and context.
func (f *File) Find(msgid, msgctxt string) *Entry {
	for _, e := range f.Entries {
		if e.MsgID == msgid && e.MsgCtxt == msgctxt && !e.Obsolete {
			return e
		}
	}
	return nil
}

// Stats returns translation statistics.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.ActiveEntries() {
		total++
		if e.IsFuzzy() {
			fuzzy++
		} else if e.IsTranslated() {
			translated++
		} else {
			untranslated++
		}
	}
	return
}

// PercentTranslated returns the share of active entries that are translated.
func (f *File) PercentTranslated() int {
	total, translated, _, _ := f.Stats()
	if total == 0 {
		return 100
	}
	return translated * 100 / total
}

func (f *File) filter(keep func(*Entry) bool) []*Entry {
	var result []*Entry
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// ActiveEntries returns all entries that are not obsolete.
func (f *File) ActiveEntries() []*Entry {
	return f.filter(func(*Entry) bool { return true })
}

// TranslatedEntries returns entries with a complete, non-fuzzy translation.
func (f *File) TranslatedEntries() []*Entry {
	return f.filter((*Entry).IsTranslated)
}

// UntranslatedEntries returns entries that have no translation and are not fuzzy.
func (f *File) UntranslatedEntries() []*Entry {
	return f.filter(func(e *Entry) bool {
		return !e.IsTranslated() && !e.IsFuzzy()
	})
}

// FuzzyEntries returns entries marked as fuzzy.
func (f *File) FuzzyEntries() []*Entry {
	return f.filter((*Entry).IsFuzzy)
}

// ObsoleteEntries returns the entries marked "#~".
func (f *File) ObsoleteEntries() []*Entry {
	var result []*Entry
	for _, e := range f.Entries {
		if e.Obsolete {
			result = append(result, e)
		}
	}
	return result
}

// PluralFormsForLang returns the standard Plural-Forms header for a language code.
func PluralFormsForLang(lang string) string {
	// Normalize to base language
	base := lang
	if idx := strings.IndexAny(lang, "_-"); idx > 0 {
		base = lang[:idx]
	}

	switch base {
	case "ja", "ko", "zh", "vi", "th", "id", "ms":
		return "nplurals=1; plural=0;"
	case "fr", "pt":
		return "nplurals=2; plural=(n > 1);"
	case "ru", "uk", "be", "hr", "sr", "bs":
		return "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "pl":
		return "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "cs", "sk":
		return "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);"
	case "ar":
		return "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);"
	default:
		return "nplurals=2; plural=(n != 1);"
	}
}
