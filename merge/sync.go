package merge

import (
	"slices"

	po "github.com/minios-linux/poshare/pofile"
)

// Sync updates a catalog with entries from a POT template.
// - New entries from the template are added with empty translations.
// - Existing entries that are still in the template are kept.
// - Entries that are no longer in the template are marked obsolete.
// - References and flags are updated from the template.
func Sync(catalog, template *po.File) *po.File {
	result := po.NewFile()
	result.Path = catalog.Path
	result.WrapWidth = catalog.WrapWidth

	// Keep the catalog's header, update POT-Creation-Date
	if catalog.Header != nil {
		result.Header = catalog.Header.Clone()
	}
	if template.Header != nil {
		if date := template.HeaderField("POT-Creation-Date"); date != "" {
			result.SetHeaderField("POT-Creation-Date", date)
		}
	}

	existing := make(map[key]*po.Entry)
	for _, e := range catalog.Entries {
		if !e.Obsolete {
			existing[keyOf(e)] = e
		}
	}
	matched := make(map[key]bool)

	for _, t := range template.Entries {
		if t.MsgID == "" || t.Obsolete {
			continue
		}

		if old, ok := existing[keyOf(t)]; ok {
			// Entry exists in both: keep translation, update metadata
			merged := &po.Entry{
				TranslatorComments:  slices.Clone(old.TranslatorComments),
				ExtractedComments:   slices.Clone(t.ExtractedComments),
				References:          slices.Clone(t.References),
				Flags:               mergeFlags(old.Flags, t.Flags),
				PreviousMsgCtxt:     old.PreviousMsgCtxt,
				PreviousMsgID:       old.PreviousMsgID,
				PreviousMsgIDPlural: old.PreviousMsgIDPlural,
				MsgCtxt:             t.MsgCtxt,
				MsgID:               t.MsgID,
				MsgIDPlural:         t.MsgIDPlural,
				MsgStr:              old.MsgStr,
				MsgStrPlural:        old.Clone().MsgStrPlural,
			}
			result.Entries = append(result.Entries, merged)
			matched[keyOf(t)] = true
			continue
		}

		result.Entries = append(result.Entries, &po.Entry{
			ExtractedComments: slices.Clone(t.ExtractedComments),
			References:        slices.Clone(t.References),
			Flags:             slices.Clone(t.Flags),
			MsgCtxt:           t.MsgCtxt,
			MsgID:             t.MsgID,
			MsgIDPlural:       t.MsgIDPlural,
			MsgStrPlural:      make(map[int]string),
		})
	}

	// Unmatched entries become obsolete; already obsolete ones are kept.
	for _, e := range catalog.Entries {
		if e.MsgID == "" {
			continue
		}
		if e.Obsolete {
			result.Entries = append(result.Entries, e.Clone())
			continue
		}
		if !matched[keyOf(e)] {
			obsolete := e.Clone()
			obsolete.Obsolete = true
			obsolete.References = nil
			result.Entries = append(result.Entries, obsolete)
		}
	}

	return result
}

// mergeFlags combines catalog and template flags. Fuzzy comes first, the
// remaining flags keep their first-seen order.
func mergeFlags(catalogFlags, templateFlags []string) []string {
	var result []string
	if slices.Contains(catalogFlags, po.FuzzyFlag) || slices.Contains(templateFlags, po.FuzzyFlag) {
		result = append(result, po.FuzzyFlag)
	}
	for _, f := range slices.Concat(catalogFlags, templateFlags) {
		if f != po.FuzzyFlag && !slices.Contains(result, f) {
			result = append(result, f)
		}
	}
	return result
}
