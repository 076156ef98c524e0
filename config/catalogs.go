package config

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Catalog is one discovered .po file.
type Catalog struct {
	// Path is the absolute path of the .po file.
	Path string
	// Language is the language directory the catalog lives in.
	Language string
	// Name is the file name without the .po suffix.
	Name string
	// LocalePath is the absolute locale directory that was searched.
	LocalePath string
}

// LanguageVariants lists the directory spellings a language may use on disk,
// starting with lang itself: "pt-br" also matches "pt_br" and "pt_BR".
func LanguageVariants(lang string) []string {
	variants := []string{lang}
	add := func(v string) {
		if v != "" && !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}

	if l, c, ok := strings.Cut(lang, "-"); ok {
		l, c = strings.ToLower(l), strings.ToLower(c)
		add(l + "_" + c)
		add(l + "_" + strings.ToUpper(c))
	} else if l, c, ok := strings.Cut(lang, "_"); ok {
		l, c = strings.ToLower(l), strings.ToLower(c)
		add(l + "-" + c)
		add(l + "-" + strings.ToUpper(c))
	}

	if tag, err := language.Parse(lang); err == nil {
		canonical := tag.String()
		add(canonical)
		add(strings.ReplaceAll(canonical, "-", "_"))
	}
	return variants
}

// LanguageName returns the English display name of a language code, or the
// code itself when it is unknown.
func LanguageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return lang
}

// localeDirs returns the existing, non-excluded locale directories.
func (f *File) localeDirs() []string {
	excluded := make(map[string]bool, len(f.ExcludedPaths))
	for _, p := range f.ExcludedPaths {
		excluded[f.abs(p)] = true
	}

	var dirs []string
	for _, p := range f.LocalePaths {
		dir := f.abs(p)
		if excluded[dir] || slices.Contains(dirs, dir) {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (f *File) abs(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.root, p)
	}
	return filepath.Clean(p)
}

func (f *File) wantCatalog(name string) bool {
	return len(f.CatalogNames) == 0 || slices.Contains(f.CatalogNames, name)
}

// FindCatalogs returns the catalogs of lang in every locale path, trying each
// spelling from LanguageVariants. Results are sorted by path.
func (f *File) FindCatalogs(lang string) ([]Catalog, error) {
	seen := make(map[string]bool)
	var out []Catalog
	for _, dir := range f.localeDirs() {
		for _, variant := range LanguageVariants(lang) {
			msgDir := filepath.Join(dir, variant, "LC_MESSAGES")
			entries, err := os.ReadDir(msgDir)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, err
			}
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() || !strings.HasSuffix(name, ".po") {
					continue
				}
				name = strings.TrimSuffix(name, ".po")
				if !f.wantCatalog(name) {
					continue
				}
				path := filepath.Join(msgDir, entry.Name())
				if seen[path] {
					continue
				}
				seen[path] = true
				out = append(out, Catalog{Path: path, Language: variant, Name: name, LocalePath: dir})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// DetectLanguages lists the language directories that contain at least one
// catalog. When Languages is configured, only those are returned.
func (f *File) DetectLanguages() []string {
	if len(f.Languages) > 0 {
		langs := slices.Clone(f.Languages)
		sort.Strings(langs)
		return langs
	}

	var langs []string
	for _, dir := range f.localeDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			lang := entry.Name()
			if !entry.IsDir() || slices.Contains(langs, lang) {
				continue
			}
			if _, err := language.Parse(lang); err != nil {
				continue
			}
			if f.hasCatalog(filepath.Join(dir, lang, "LC_MESSAGES")) {
				langs = append(langs, lang)
			}
		}
	}
	sort.Strings(langs)
	return langs
}

func (f *File) hasCatalog(msgDir string) bool {
	entries, err := os.ReadDir(msgDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".po") && f.wantCatalog(strings.TrimSuffix(name, ".po")) {
			return true
		}
	}
	return false
}

// AllCatalogs returns the catalogs of every detected language.
func (f *File) AllCatalogs() ([]Catalog, error) {
	var out []Catalog
	for _, lang := range f.DetectLanguages() {
		cats, err := f.FindCatalogs(lang)
		if err != nil {
			return nil, err
		}
		out = append(out, cats...)
	}
	return out, nil
}

// LanguageAllowed reports whether lang may be edited under this configuration.
func (f *File) LanguageAllowed(lang string) bool {
	if len(f.Languages) == 0 {
		return true
	}
	for _, l := range f.Languages {
		if slices.Contains(LanguageVariants(l), lang) {
			return true
		}
	}
	return false
}
