// Package fingerprint computes content fingerprints for PO entries and
// reconciles submitted translations with the newline conventions of their
// source strings.
//
// A fingerprint is the MD5 hex digest of msgid, translation and msgctxt.
// It is recomputed on every load, so an edit submitted against a
// fingerprint that no longer exists means the entry changed underneath the
// editor.
package fingerprint

import (
	"crypto/md5"
	"fmt"
	"strings"

	po "github.com/minios-linux/poshare/pofile"
)

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Of returns the fingerprint of an entry. Comments, references and flags do
// not participate.
func Of(e *po.Entry) string {
	return Hash(e.MsgID + e.Translation() + e.MsgCtxt)
}

// Index maps fingerprints to entries as they were when the index was built.
type Index struct {
	byHash map[string]*po.Entry
	order  []string
}

// NewIndex fingerprints every non-obsolete entry of f. When several entries
// share a fingerprint the first one wins.
func NewIndex(f *po.File) *Index {
	idx := &Index{byHash: make(map[string]*po.Entry, len(f.Entries))}
	for _, e := range f.Entries {
		if e.Obsolete {
			continue
		}
		h := Of(e)
		if _, ok := idx.byHash[h]; ok {
			continue
		}
		idx.byHash[h] = e
		idx.order = append(idx.order, h)
	}
	return idx
}

// Find returns the entry with the given fingerprint, or nil.
func (idx *Index) Find(fp string) *po.Entry {
	return idx.byHash[strings.ToLower(fp)]
}

// Len returns the number of distinct fingerprints.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Normalize fixes a submitted translation so that its carriage returns and
// leading/trailing newlines follow the source string. An empty source or
// submission is returned unchanged.
func Normalize(source, submitted string) string {
	if source == "" || submitted == "" {
		return submitted
	}

	if strings.Contains(submitted, "\r") && !strings.Contains(source, "\r") {
		submitted = strings.ReplaceAll(submitted, "\r", "")
	}

	srcLead := source[0] == '\n'
	subLead := strings.HasPrefix(submitted, "\n")
	if srcLead && !subLead {
		submitted = "\n" + submitted
	} else if !srcLead && subLead {
		submitted = strings.TrimLeft(submitted, " \t\r\n\v\f")
	}

	srcTrail := source[len(source)-1] == '\n'
	subTrail := strings.HasSuffix(submitted, "\n")
	if srcTrail && !subTrail {
		submitted += "\n"
	} else if !srcTrail && subTrail {
		submitted = strings.TrimRight(submitted, " \t\r\n\v\f")
	}
	return submitted
}
