package workspace

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/poshare/fingerprint"
	po "github.com/minios-linux/poshare/pofile"
)

// Filter selects which entries are listed.
type Filter string

const (
	FilterAll          Filter = "all"
	FilterTranslated   Filter = "translated"
	FilterUntranslated Filter = "untranslated"
	FilterFuzzy        Filter = "fuzzy"
)

// ParseFilter validates a filter name. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterTranslated, FilterUntranslated, FilterFuzzy:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q (valid: all, translated, untranslated, fuzzy)", s)
}

func (f Filter) entries(file *po.File) []*po.Entry {
	switch f {
	case FilterTranslated:
		return file.TranslatedEntries()
	case FilterUntranslated:
		return file.UntranslatedEntries()
	case FilterFuzzy:
		return file.FuzzyEntries()
	default:
		return file.ActiveEntries()
	}
}

// Query describes one page of the editor.
type Query struct {
	// Filter is ignored while Search is set.
	Filter Filter
	// Search matches msgid, translation and reference file names, ignoring case.
	Search string
	// Page is 1-based; out of range pages show page 1.
	Page int
	// PerPage defaults to the configured messages_per_page.
	PerPage int
	// CrossCatalog looks up each listed msgid in the other catalogs of
	// the same language.
	CrossCatalog bool
}

// Elsewhere is a translation of the same message in another catalog.
type Elsewhere struct {
	Path        string
	Translation string
}

// PageEntry is one listed entry with its editor keys.
type PageEntry struct {
	Entry       *po.Entry
	Fingerprint string
	// Reference is the translation in the configured main language.
	Reference string
	Elsewhere []Elsewhere
}

// Page is a rendered slice of a catalog.
type Page struct {
	Entries  []PageEntry
	Number   int
	NumPages int
	// Total counts the entries matching the filter or search.
	Total int
	// Range lists page numbers to offer; 0 marks an elided gap.
	Range []int

	Filter            Filter
	Search            string
	ReferenceLanguage string
	PercentTranslated int
}

// EntryAt returns the i-th listed entry.
func (p Page) EntryAt(i int) (PageEntry, error) {
	if i < 0 || i >= len(p.Entries) {
		return PageEntry{}, fmt.Errorf("entry %d of %d: %w", i, len(p.Entries), ErrNotFound)
	}
	return p.Entries[i], nil
}

// RenderPage lists the entries of f selected by q.
func (w *Workspace) RenderPage(sess *Session, f *po.File, q Query) (Page, error) {
	filter, err := ParseFilter(string(q.Filter))
	if err != nil {
		return Page{}, err
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = w.cfg.MessagesPerPage
	}

	var matches []*po.Entry
	search := strings.TrimSpace(q.Search)
	if search != "" {
		needle := strings.ToLower(search)
		for _, e := range f.ActiveEntries() {
			if strings.Contains(strings.ToLower(haystack(e)), needle) {
				matches = append(matches, e)
			}
		}
	} else {
		matches = filter.entries(f)
	}

	numPages := (len(matches) + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}
	number := q.Page
	if number < 1 || number > numPages {
		number = 1
	}

	start := (number - 1) * perPage
	end := min(start+perPage, len(matches))

	page := Page{
		Number:            number,
		NumPages:          numPages,
		Total:             len(matches),
		Range:             Pages(numPages, number),
		Filter:            filter,
		Search:            search,
		PercentTranslated: f.PercentTranslated(),
	}

	ref := w.reference(sess)
	if ref != nil {
		page.ReferenceLanguage = w.cfg.MainLanguage
	}
	var others []*po.File
	if q.CrossCatalog {
		others = w.siblings(sess)
	}

	for _, e := range matches[start:end] {
		pe := PageEntry{Entry: e, Fingerprint: fingerprint.Of(e)}
		if ref != nil {
			if r := ref.Find(e.MsgID, e.MsgCtxt); r != nil {
				pe.Reference = r.Translation()
			}
		}
		for _, o := range others {
			if oe := o.Find(e.MsgID, e.MsgCtxt); oe != nil && oe.IsTranslated() {
				pe.Elsewhere = append(pe.Elsewhere, Elsewhere{Path: o.Path, Translation: oe.Translation()})
			}
		}
		page.Entries = append(page.Entries, pe)
	}
	return page, nil
}

func haystack(e *po.Entry) string {
	var b strings.Builder
	b.WriteString(e.Translation())
	b.WriteString(e.MsgID)
	for _, oc := range e.Occurrences() {
		b.WriteString(oc.File)
	}
	return b.String()
}

// reference loads the main-language sibling of the session's catalog, found
// by swapping the language directory in its path.
func (w *Workspace) reference(sess *Session) *po.File {
	main := w.cfg.MainLanguage
	if main == "" || main == sess.Language || sess.Path == "" {
		return nil
	}
	sep := string(filepath.Separator)
	path := strings.Replace(sess.Path, sep+sess.Language+sep, sep+main+sep, 1)
	if path == sess.Path {
		return nil
	}
	f, err := po.ParseFile(path)
	if err != nil {
		w.log.Debug().Err(err).Str("path", path).Msg("No reference catalog")
		return nil
	}
	return f
}

// siblings loads the other catalogs of the session's language.
func (w *Workspace) siblings(sess *Session) []*po.File {
	cats, err := w.cfg.FindCatalogs(sess.Language)
	if err != nil {
		w.log.Warn().Err(err).Str("language", sess.Language).Msg("Failed to list catalogs")
		return nil
	}
	var out []*po.File
	for _, c := range cats {
		if c.Path == sess.Path {
			continue
		}
		f, err := po.ParseFile(c.Path)
		if err != nil {
			w.log.Warn().Err(err).Str("path", c.Path).Msg("Skipping unreadable catalog")
			continue
		}
		out = append(out, f)
	}
	return out
}

// Pages returns the page numbers to offer for numPages pages. Short lists
// are shown in full; from ten pages on, PageRange elides the middle.
func Pages(numPages, current int) []int {
	if numPages <= 1 {
		return nil
	}
	if numPages >= 10 {
		return PageRange(1, numPages, current)
	}
	out := make([]int, numPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// PageRange returns first, last, their neighbours and up to two pages either
// side of current, in order, with 0 marking each gap.
func PageRange(first, last, current int) []int {
	set := map[int]bool{first: true, last: true}
	if first+1 < last {
		set[first+1] = true
	}
	for _, p := range []int{current - 2, current - 1, current, current + 1, current + 2} {
		if p > first && p < last {
			set[p] = true
		}
	}
	if last-1 > first {
		set[last-1] = true
	}

	pages := make([]int, 0, len(set))
	for p := range set {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	out := make([]int, 0, len(pages)+2)
	for i, p := range pages {
		if i > 0 && pages[i-1]+1 < p {
			out = append(out, 0)
		}
		out = append(out, p)
	}
	return out
}
