package pofile

import (
	"fmt"
	"regexp"
	"slices"
)

var (
	cFormatRe      = regexp.MustCompile(`%(?:\d+\$)?[-+ #0]*(?:\d+|\*)?(?:\.(?:\d+|\*))?(?:hh|h|ll|l|L|q|j|z|t)?[diouxXeEfFgGaAcspn%]`)
	pythonFormatRe = regexp.MustCompile(`%(?:\([^)]+\))?[-+ #0]*(?:\d+|\*)?(?:\.(?:\d+|\*))?[diouxXeEfFgGcrsa%]`)
	braceFormatRe  = regexp.MustCompile(`\{[^{}]*\}`)
)

func placeholders(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllString(s, -1) {
		if m == "%%" {
			continue
		}
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// CheckFormat reports placeholder mismatches between the source and the
// translation of entries flagged c-format, python-format or
// python-brace-format. Untranslated and fuzzy entries are skipped.
func CheckFormat(e *Entry) []string {
	if !e.IsTranslated() {
		return nil
	}
	var re *regexp.Regexp
	switch {
	case e.HasFlag("c-format"):
		re = cFormatRe
	case e.HasFlag("python-format"):
		re = pythonFormatRe
	case e.HasFlag("python-brace-format"):
		re = braceFormatRe
	default:
		return nil
	}

	var problems []string
	check := func(source, translation, label string) {
		want := placeholders(re, source)
		got := placeholders(re, translation)
		if !slices.Equal(want, got) {
			problems = append(problems, fmt.Sprintf("%q%s: placeholders %v do not match %v", e.MsgID, label, got, want))
		}
	}

	if !e.IsPlural() {
		check(e.MsgID, e.MsgStr, "")
		return problems
	}
	for _, idx := range e.PluralIndices() {
		// Languages with a single form use the plural source for slot 0.
		source := e.MsgIDPlural
		if idx == 0 && len(e.MsgStrPlural) > 1 {
			source = e.MsgID
		}
		check(source, e.MsgStrPlural[idx], fmt.Sprintf(" [%d]", idx))
	}
	return problems
}

// CheckFormats runs CheckFormat over every active entry.
func (f *File) CheckFormats() []string {
	var problems []string
	for _, e := range f.ActiveEntries() {
		problems = append(problems, CheckFormat(e)...)
	}
	return problems
}
