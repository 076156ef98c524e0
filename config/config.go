// Package config loads .poshare.yaml and discovers the catalogs it points to.
//
// Every setting has a default, so a project without a config file behaves
// like one with an empty file rooted at the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/poshare/access"
	po "github.com/minios-linux/poshare/pofile"
)

// FileName is the default config file name.
const FileName = ".poshare.yaml"

// Defaults
const (
	DefaultMessagesPerPage = 10
	DefaultSourceLanguage  = "en"
	DefaultLocalePath      = "locale"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .poshare.yaml structure.
type File struct {
	// Languages restricts the languages offered for translation. Empty means
	// every language found under the locale paths.
	Languages []string `yaml:"languages,omitempty"`
	// SourceLanguage is the language msgids are written in (default "en").
	SourceLanguage string `yaml:"source_language,omitempty"`
	// MainLanguage, when set, is shown as a reference translation next to
	// each entry.
	MainLanguage string `yaml:"main_language,omitempty"`

	// LocalePaths are directories holding <lang>/LC_MESSAGES/*.po, relative
	// to the config file (default "locale").
	LocalePaths []string `yaml:"locale_paths,omitempty"`
	// CatalogNames restricts discovery to these catalog names without the
	// .po suffix. Empty means every catalog.
	CatalogNames []string `yaml:"catalog_names,omitempty"`
	// ExcludedPaths are locale paths skipped during discovery.
	ExcludedPaths []string `yaml:"excluded_paths,omitempty"`

	// WrapWidth is the line width used when saving catalogs. 0 disables
	// folding (default 78).
	WrapWidth *int `yaml:"wrap_width,omitempty"`
	// AutoCompile writes the .mo file on every save (default true).
	AutoCompile *bool `yaml:"auto_compile,omitempty"`
	// MessagesPerPage is the editor page size (default 10).
	MessagesPerPage int `yaml:"messages_per_page,omitempty"`

	// RequiresAuth restricts editing to authorized users (default true).
	RequiresAuth *bool `yaml:"requires_auth,omitempty"`
	// TranslatorsGroup is the group allowed to translate (default "translators").
	TranslatorsGroup string `yaml:"translators_group,omitempty"`
	// LanguageGroups enables per-language "<group>-<lang>" groups.
	LanguageGroups bool `yaml:"language_groups,omitempty"`

	// ShadowMaxEntries bounds the number of in-memory shadow copies. 0 means
	// unbounded.
	ShadowMaxEntries int `yaml:"shadow_max_entries,omitempty"`

	Log Log `yaml:"log,omitempty"`

	root string
}

// Log configures the process logger.
type Log struct {
	// Level is a zerolog level name (default "info").
	Level string `yaml:"level,omitempty"`
	// Format is "console", "json" or "auto" (default).
	Format string `yaml:"format,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when rootDir has no config file.
func Default(rootDir string) *File {
	f := &File{}
	f.applyDefaults(rootDir)
	return f
}

// Load reads and validates .poshare.yaml from rootDir. A missing file yields
// Default(rootDir).
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(rootDir), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.applyDefaults(rootDir)
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) applyDefaults(rootDir string) {
	if abs, err := filepath.Abs(rootDir); err == nil {
		rootDir = abs
	}
	f.root = rootDir

	if f.SourceLanguage == "" {
		f.SourceLanguage = DefaultSourceLanguage
	}
	if len(f.LocalePaths) == 0 {
		f.LocalePaths = []string{DefaultLocalePath}
	}
	if f.MessagesPerPage == 0 {
		f.MessagesPerPage = DefaultMessagesPerPage
	}
	if f.TranslatorsGroup == "" {
		f.TranslatorsGroup = access.DefaultGroup
	}
	if f.Log.Level == "" {
		f.Log.Level = "info"
	}
	if f.Log.Format == "" {
		f.Log.Format = "auto"
	}
}

func (f *File) validate() error {
	if f.WrapWidth != nil && *f.WrapWidth < 0 {
		return fmt.Errorf("wrap_width must not be negative, got %d", *f.WrapWidth)
	}
	if f.MessagesPerPage < 0 {
		return fmt.Errorf("messages_per_page must be positive, got %d", f.MessagesPerPage)
	}
	if f.ShadowMaxEntries < 0 {
		return fmt.Errorf("shadow_max_entries must not be negative, got %d", f.ShadowMaxEntries)
	}
	for _, lang := range f.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("invalid language %q: %w", lang, err)
		}
	}
	if f.MainLanguage != "" {
		if _, err := language.Parse(f.MainLanguage); err != nil {
			return fmt.Errorf("invalid main_language %q: %w", f.MainLanguage, err)
		}
	}
	switch f.Log.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (valid: auto, console, json)", f.Log.Format)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Root returns the absolute directory the configuration applies to.
func (f *File) Root() string {
	return f.root
}

// Wrap returns the effective wrap width.
func (f *File) Wrap() int {
	if f.WrapWidth == nil {
		return po.DefaultWrapWidth
	}
	return *f.WrapWidth
}

// Compile reports whether saves also write the .mo file.
func (f *File) Compile() bool {
	return f.AutoCompile == nil || *f.AutoCompile
}

// Policy returns the access policy described by the configuration.
func (f *File) Policy() access.GroupPolicy {
	return access.GroupPolicy{
		RequiresAuth:   f.RequiresAuth == nil || *f.RequiresAuth,
		Group:          f.TranslatorsGroup,
		LanguageGroups: f.LanguageGroups,
	}
}
