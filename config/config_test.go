package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Wrap() != 78 {
		t.Fatalf("Wrap() = %d, want 78", f.Wrap())
	}
	if !f.Compile() {
		t.Fatal("auto_compile should default to true")
	}
	if f.MessagesPerPage != 10 {
		t.Fatalf("MessagesPerPage = %d, want 10", f.MessagesPerPage)
	}
	if !reflect.DeepEqual(f.LocalePaths, []string{"locale"}) {
		t.Fatalf("LocalePaths = %v", f.LocalePaths)
	}
	p := f.Policy()
	if !p.RequiresAuth || p.Group != "translators" || p.LanguageGroups {
		t.Fatalf("Policy() = %+v", p)
	}
	if f.Root() != dir {
		t.Fatalf("Root() = %q, want %q", f.Root(), dir)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
languages: [fr, pt-br]
main_language: de
locale_paths: [conf/locale, apps/locale]
catalog_names: [django]
wrap_width: 0
auto_compile: false
messages_per_page: 25
requires_auth: false
translators_group: editors
language_groups: true
shadow_max_entries: 100
log:
  level: debug
  format: json
`)
	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Wrap() != 0 {
		t.Fatalf("Wrap() = %d, want 0 (explicit zero disables folding)", f.Wrap())
	}
	if f.Compile() {
		t.Fatal("auto_compile: false ignored")
	}
	if f.MessagesPerPage != 25 || f.ShadowMaxEntries != 100 || f.MainLanguage != "de" {
		t.Fatalf("unexpected values: %+v", f)
	}
	p := f.Policy()
	if p.RequiresAuth || p.Group != "editors" || !p.LanguageGroups {
		t.Fatalf("Policy() = %+v", p)
	}
	if f.Log.Level != "debug" || f.Log.Format != "json" {
		t.Fatalf("Log = %+v", f.Log)
	}
	if !f.LanguageAllowed("pt_BR") || f.LanguageAllowed("de") {
		t.Fatal("LanguageAllowed should accept variants of configured languages only")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"negative wrap":   "wrap_width: -1\n",
		"bad language":    "languages: [\"not a language!\"]\n",
		"bad log format":  "log:\n  format: xml\n",
		"negative shadow": "shadow_max_entries: -5\n",
		"broken yaml":     "languages: [fr\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), FileName) {
				t.Fatalf("error should name the file: %v", err)
			}
		})
	}
}

func TestLanguageVariants(t *testing.T) {
	got := LanguageVariants("pt-br")
	for _, want := range []string{"pt-br", "pt_br", "pt_BR", "pt-BR"} {
		found := false
		for _, v := range got {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("LanguageVariants(pt-br) = %v, missing %q", got, want)
		}
	}
	if got[0] != "pt-br" {
		t.Fatalf("first variant = %q, want the input", got[0])
	}
	if got := LanguageVariants("fr"); !reflect.DeepEqual(got, []string{"fr"}) {
		t.Fatalf("LanguageVariants(fr) = %v", got)
	}
}

func TestLanguageName(t *testing.T) {
	if got := LanguageName("fr"); got != "French" {
		t.Fatalf("LanguageName(fr) = %q", got)
	}
	if got := LanguageName("!!"); got != "!!" {
		t.Fatalf("LanguageName(!!) = %q", got)
	}
}

func TestFindCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "locale", "pt_BR", "LC_MESSAGES", "django.po"), "")
	writeFile(t, filepath.Join(dir, "locale", "pt_BR", "LC_MESSAGES", "djangojs.po"), "")
	writeFile(t, filepath.Join(dir, "locale", "pt_BR", "LC_MESSAGES", "django.mo"), "")
	writeFile(t, filepath.Join(dir, "locale", "fr", "LC_MESSAGES", "django.po"), "")
	writeFile(t, filepath.Join(dir, "locale", "de", "README"), "")
	writeFile(t, filepath.Join(dir, "vendor", "locale", "fr", "LC_MESSAGES", "django.po"), "")

	f := Default(dir)
	f.LocalePaths = []string{"locale", "vendor/locale", "missing"}
	f.ExcludedPaths = []string{"vendor/locale"}

	cats, err := f.FindCatalogs("pt-br")
	if err != nil {
		t.Fatalf("FindCatalogs: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("FindCatalogs(pt-br) = %+v, want 2 catalogs", cats)
	}
	if cats[0].Name != "django" || cats[0].Language != "pt_BR" {
		t.Fatalf("first catalog = %+v", cats[0])
	}
	if !filepath.IsAbs(cats[0].Path) {
		t.Fatalf("path should be absolute: %q", cats[0].Path)
	}

	f.CatalogNames = []string{"djangojs"}
	cats, err = f.FindCatalogs("pt_BR")
	if err != nil {
		t.Fatalf("FindCatalogs: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "djangojs" {
		t.Fatalf("catalog_names filter ignored: %+v", cats)
	}

	f.CatalogNames = nil
	if got, want := f.DetectLanguages(), []string{"fr", "pt_BR"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectLanguages() = %v, want %v", got, want)
	}
	all, err := f.AllCatalogs()
	if err != nil {
		t.Fatalf("AllCatalogs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("AllCatalogs() = %d catalogs, want 3 (vendor excluded)", len(all))
	}
}
