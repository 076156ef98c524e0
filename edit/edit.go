// Package edit applies a batch of submitted translations to a catalog.
//
// Submitted values are addressed by the fingerprint each entry had when the
// editor rendered it. An entry whose fingerprint no longer matches has been
// changed by someone else; its key is reported as a conflict and the rest of
// the batch is still applied.
package edit

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/minios-linux/poshare/access"
	"github.com/minios-linux/poshare/fingerprint"
	"github.com/minios-linux/poshare/notify"
	po "github.com/minios-linux/poshare/pofile"
)

const (
	// DefaultTool is written to X-Translated-Using when Options.Tool is empty.
	DefaultTool = "poshare"

	// AnonymousTranslator is the Last-Translator value for unauthenticated edits.
	AnonymousTranslator = "Anonymous User <anonymous@user.tld>"

	// RevisionDateLayout is the PO-Revision-Date layout.
	RevisionDateLayout = "2006-01-02 15:04-0700"
)

var (
	valueKeyRe = regexp.MustCompile(`^m_([0-9a-fA-F]+)(?:_([0-9]+))?$`)
	fuzzyKeyRe = regexp.MustCompile(`^(?:f_)?([0-9a-fA-F]+)$`)
)

// ParseKey decodes a value key of the form "m_<fingerprint>" or
// "m_<fingerprint>_<n>". plural is -1 for the singular form.
func ParseKey(key string) (fp string, plural int, ok bool) {
	m := valueKeyRe.FindStringSubmatch(key)
	if m == nil {
		return "", 0, false
	}
	plural = -1
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, false
		}
		plural = n
	}
	return strings.ToLower(m[1]), plural, true
}

// FuzzyKey decodes a fuzzy marker, either a bare fingerprint or "f_<fingerprint>".
func FuzzyKey(key string) (fp string, ok bool) {
	m := fuzzyKeyRe.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// ValueKey builds the submission key for an entry's singular form, or for
// plural slot n when n >= 0.
func ValueKey(fp string, n int) string {
	if n < 0 {
		return "m_" + fp
	}
	return fmt.Sprintf("m_%s_%d", fp, n)
}

// Submission is one batch of edits.
type Submission struct {
	// Values maps value keys to the submitted text.
	Values map[string]string
	// Fuzzy holds the fingerprints whose entries should be marked fuzzy.
	Fuzzy map[string]bool
}

// Options carry the context of an edit.
type Options struct {
	User     access.User
	Language string
	Path     string
	Notifier notify.Notifier
	Now      func() time.Time
	Tool     string
}

// Result summarizes an applied submission.
type Result struct {
	// Changed is true when at least one entry changed.
	Changed bool
	// Applied counts the value keys that changed their entry.
	Applied int
	// Conflicts lists the value keys whose fingerprint was not found.
	Conflicts []string
}

// HasConflicts reports whether any submitted key could not be applied.
func (r Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Apply writes sub into f. The fingerprint index is built once, before the
// first mutation, so several plural slots of one entry resolve to the same
// entry within a batch.
func Apply(f *po.File, sub Submission, opts Options) Result {
	idx := fingerprint.NewIndex(f)

	fuzzy := make(map[string]bool, len(sub.Fuzzy))
	for key, on := range sub.Fuzzy {
		if fp, ok := FuzzyKey(key); ok && on {
			fuzzy[fp] = true
		}
	}

	keys := make([]string, 0, len(sub.Values))
	for key := range sub.Values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	nplurals := f.NPlurals()
	var res Result
	for _, key := range keys {
		fp, plural, ok := ParseKey(key)
		if !ok {
			continue
		}
		e := idx.Find(fp)
		if e == nil {
			res.Conflicts = append(res.Conflicts, key)
			continue
		}
		if !fits(e, plural, nplurals) {
			continue
		}

		oldTranslation, oldFuzzy := e.Translation(), e.IsFuzzy()
		value := sub.Values[key]
		textChanged := false
		if plural >= 0 {
			value = fingerprint.Normalize(e.MsgIDPlural, value)
			if e.MsgStrPlural == nil {
				e.MsgStrPlural = make(map[int]string)
			}
			if cur, ok := e.MsgStrPlural[plural]; !ok || cur != value {
				e.MsgStrPlural[plural] = value
				textChanged = true
			}
		} else {
			value = fingerprint.Normalize(e.MsgID, value)
			if e.MsgStr != value {
				e.MsgStr = value
				textChanged = true
			}
		}
		e.SetFuzzy(fuzzy[fp])

		if !textChanged && oldFuzzy == e.IsFuzzy() {
			continue
		}
		res.Changed = true
		res.Applied++
		if opts.Notifier != nil {
			opts.Notifier.EntryChanged(notify.EntryChanged{
				Entry:          e,
				User:           opts.User,
				OldTranslation: oldTranslation,
				OldFuzzy:       oldFuzzy,
				Path:           opts.Path,
				Language:       opts.Language,
			})
		}
	}

	if res.Changed {
		stampHeader(f, opts)
	}
	return res
}

// fits reports whether a value key of the given plural slot addresses e:
// singular keys only singular entries, plural keys only existing plural forms.
func fits(e *po.Entry, plural, nplurals int) bool {
	if !e.IsPlural() {
		return plural < 0
	}
	return plural >= 0 && plural < nplurals
}

func stampHeader(f *po.File, opts Options) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool
	}
	f.SetHeaderField("Last-Translator", Translator(opts.User))
	f.SetHeaderField("X-Translated-Using", tool)
	f.SetHeaderField("PO-Revision-Date", now().Format(RevisionDateLayout))
}

// Translator formats user for the Last-Translator header, folded to ASCII.
func Translator(user access.User) string {
	if !user.Authenticated {
		return AnonymousTranslator
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	fold := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	s, _, err := transform.String(fold, fmt.Sprintf("%s <%s>", name, user.Email))
	if err != nil {
		return AnonymousTranslator
	}
	return s
}
