// Package merge combines catalogs.
//
// Priority imports the translations of an uploaded catalog into an existing
// one; Diff previews the same operation without touching the destination.
// Sync refreshes a catalog against its template, like msgmerge.
package merge

import (
	po "github.com/minios-linux/poshare/pofile"
)

// Change pairs an uploaded entry with the destination entry it produced or
// modified.
type Change struct {
	Source      *po.Entry
	Destination *po.Entry
}

// Result lists what a merge added and what it modified.
type Result struct {
	New     []Change
	Changed []Change
}

// Empty reports whether the merge had no effect.
func (r Result) Empty() bool {
	return len(r.New) == 0 && len(r.Changed) == 0
}

type key struct {
	msgid   string
	msgctxt string
}

func keyOf(e *po.Entry) key {
	return key{msgid: e.MsgID, msgctxt: e.MsgCtxt}
}

// Priority merges src into dst and returns what changed. Entries are matched
// on msgid and msgctxt.
//
// Entries missing from dst are appended. With priority unset, an existing
// entry is only filled in when it is untranslated and the uploaded one is
// translated. With priority set, every translated uploaded entry overwrites
// the existing translation and clears its fuzzy flag.
func Priority(dst, src *po.File, priority bool) Result {
	return apply(dst, src, priority)
}

// Diff reports what Priority(dst, src, priority) would do without modifying
// dst. Destination entries in the result belong to a scratch copy of dst.
func Diff(dst, src *po.File, priority bool) Result {
	return apply(dst.Clone(), src, priority)
}

func apply(dst, src *po.File, priority bool) Result {
	existing := make(map[key]*po.Entry, len(dst.Entries))
	for _, e := range dst.Entries {
		if e.Obsolete {
			continue
		}
		if _, ok := existing[keyOf(e)]; !ok {
			existing[keyOf(e)] = e
		}
	}

	var res Result
	for _, s := range src.Entries {
		if s.Obsolete || s.MsgID == "" {
			continue
		}

		d, ok := existing[keyOf(s)]
		if !ok {
			d = newEntry(s)
			dst.Entries = append(dst.Entries, d)
			existing[keyOf(s)] = d
			res.New = append(res.New, Change{Source: s, Destination: d})
			continue
		}

		if !priority {
			if d.IsTranslated() || !s.IsTranslated() {
				continue
			}
			copyTranslation(d, s)
			d.References = append([]string(nil), s.References...)
			d.TranslatorComments = append([]string(nil), s.TranslatorComments...)
			d.ExtractedComments = append([]string(nil), s.ExtractedComments...)
			d.SetFuzzy(false)
			res.Changed = append(res.Changed, Change{Source: s, Destination: d})
			continue
		}

		if !s.IsTranslated() {
			continue
		}
		before := d.Translation()
		copyTranslation(d, s)
		d.SetFuzzy(false)
		if d.Translation() != before {
			res.Changed = append(res.Changed, Change{Source: s, Destination: d})
		}
	}
	return res
}

func newEntry(s *po.Entry) *po.Entry {
	c := s.Clone()
	c.PreviousMsgCtxt, c.PreviousMsgID, c.PreviousMsgIDPlural = "", "", ""
	return c
}

func copyTranslation(d, s *po.Entry) {
	d.MsgStr = s.MsgStr
	d.MsgStrPlural = make(map[int]string, len(s.MsgStrPlural))
	for k, v := range s.MsgStrPlural {
		d.MsgStrPlural[k] = v
	}
}
