// poshare: shared editing of gettext catalogs from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/poshare/access"
	"github.com/minios-linux/poshare/config"
	"github.com/minios-linux/poshare/edit"
	"github.com/minios-linux/poshare/fingerprint"
	"github.com/minios-linux/poshare/logging"
	"github.com/minios-linux/poshare/merge"
	"github.com/minios-linux/poshare/notify"
	"github.com/minios-linux/poshare/persist"
	po "github.com/minios-linux/poshare/pofile"
	"github.com/minios-linux/poshare/workspace"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

type globalOptions struct {
	rootDir   string
	logLevel  string
	logFormat string

	userName string
	fullName string
	email    string
	groups   []string
	asAdmin  bool
}

// app is the state shared by all subcommands once the root command has run.
type app struct {
	opts globalOptions
	cfg  *config.File
	log  zerolog.Logger
	bus  *notify.Bus
	ws   *workspace.Workspace
	user access.User
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "poshare",
		Short: "Shared editing of gettext PO catalogs",
		Long: `poshare: shared editing of gettext PO catalogs.

Catalogs are discovered under <locale path>/<lang>/LC_MESSAGES/*.po as
configured in .poshare.yaml. Edits are addressed by entry fingerprints, so
an edit made against an outdated listing is reported as a conflict instead
of overwriting someone else's work.

Commands:
  status      Show translation statistics for every catalog
  list        List the entries of a catalog with their edit keys
  edit        Apply translations to a catalog
  merge       Import translations from another PO file
  sync        Update a catalog from its POT template
  compile     Compile catalogs to MO files
  check       Validate catalogs and their placeholders
  download    Bundle a catalog and its MO file into a zip archive`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.rootDir, "root", ".", "Project root directory")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level (overrides .poshare.yaml)")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "Log format: auto, console or json")
	flags.StringVar(&a.opts.userName, "user", "", "Acting user name (default: current OS user)")
	flags.StringVar(&a.opts.fullName, "name", "", "Translator name for the Last-Translator header")
	flags.StringVar(&a.opts.email, "email", "", "Translator e-mail for the Last-Translator header")
	flags.StringSliceVar(&a.opts.groups, "group", nil, "Groups of the acting user")
	flags.BoolVar(&a.opts.asAdmin, "admin", true, "Act as a superuser with staff rights")

	root.AddCommand(
		newStatusCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newMergeCmd(a),
		newSyncCmd(a),
		newCompileCmd(a),
		newCheckCmd(a),
		newDownloadCmd(a),
		newVersionCmd(),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(a.opts.rootDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.opts.logLevel != "" {
		level = a.opts.logLevel
	}
	if a.opts.logFormat != "" {
		format = a.opts.logFormat
	}
	a.log, err = logging.Setup(logging.Options{Level: level, Format: format})
	if err != nil {
		return err
	}

	a.user = a.currentUser()
	a.bus = notify.NewBus(a.log)
	a.bus.Audit(a.log)
	a.ws = workspace.New(cfg,
		workspace.WithBus(a.bus),
		workspace.WithLogger(a.log),
		workspace.WithTool("poshare "+version),
	)
	return nil
}

func (a *app) currentUser() access.User {
	u := access.User{
		Username:      a.opts.userName,
		Email:         a.opts.email,
		Authenticated: true,
		Superuser:     a.opts.asAdmin,
		Staff:         a.opts.asAdmin,
		Groups:        a.opts.groups,
	}
	if u.Username == "" {
		if cur, err := user.Current(); err == nil {
			u.Username = cur.Username
			if a.opts.fullName == "" {
				a.opts.fullName = cur.Name
			}
		}
	}
	first, last, _ := strings.Cut(strings.TrimSpace(a.opts.fullName), " ")
	u.FirstName, u.LastName = first, last
	return u
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "poshare version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: translation stats for every catalog)
// ---------------------------------------------------------------------------

type catalogStats struct {
	catalog      config.Catalog
	total        int
	translated   int
	fuzzy        int
	untranslated int
	percent      int
	err          error
}

func newStatusCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show translation statistics for every catalog",
		Long: `Show per-language, per-catalog translation progress.

Catalogs are parsed concurrently. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := collectStats(a.cfg, jobs)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of catalogs parsed in parallel")
	return cmd
}

// collectStats parses every discovered catalog, at most jobs at a time.
// Unreadable catalogs are reported in their row rather than failing the run.
func collectStats(cfg *config.File, jobs int) ([]catalogStats, error) {
	cats, err := cfg.AllCatalogs()
	if err != nil {
		return nil, err
	}

	stats := make([]catalogStats, len(cats))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, c := range cats {
		g.Go(func() error {
			s := catalogStats{catalog: c}
			f, err := po.ParseFile(c.Path)
			if err != nil {
				s.err = err
			} else {
				s.total, s.translated, s.fuzzy, s.untranslated = f.Stats()
				s.percent = f.PercentTranslated()
			}
			stats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func printStats(w io.Writer, stats []catalogStats) {
	if len(stats) == 0 {
		logInfo("No catalogs found. Check locale_paths in %s.", config.FileName)
		return
	}

	langs := make([]string, 0, len(stats))
	for _, s := range stats {
		langs = append(langs, s.catalog.Language)
	}
	width := langColumnWidth(langs)

	fmt.Fprintf(w, "%sTranslation Statistics%s\n", colorBlue, colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-*s %-12s %-10s %-8s %-8s %s\n", width, "Lang", "Catalog", "Transl.", "Fuzzy", "Untrans.", "Progress")

	for _, s := range stats {
		if s.err != nil {
			fmt.Fprintf(w, "%-*s %-12s %s\n", width, s.catalog.Language, s.catalog.Name, "unreadable: "+s.err.Error())
			continue
		}
		fmt.Fprintf(w, "%-*s %-12s %-10d %-8d %-8d %s\n", width, s.catalog.Language, s.catalog.Name,
			s.translated, s.fuzzy, s.untranslated, progressBar(s.percent, 20))
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))
}

// langColumnWidth returns the width of the language column.
func langColumnWidth(langs []string) int {
	width := len("Lang")
	for _, l := range langs {
		width = max(width, len(l))
	}
	return width
}

// progressBar renders percent as a colored bar of the given width.
func progressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset +
		fmt.Sprintf(" %3d%%", percent)
}

// ---------------------------------------------------------------------------
// Catalog selection shared by list, edit, merge and download
// ---------------------------------------------------------------------------

// selectCatalog starts a session on the catalog of lang named by ref, which
// is either a catalog name ("django") or a path.
func (a *app) selectCatalog(lang, ref string) (*workspace.Session, *po.File, error) {
	sess := workspace.NewSession(a.user)
	cats, err := a.ws.Catalogs(sess, lang)
	if err != nil {
		return nil, nil, err
	}

	absRef, _ := filepath.Abs(ref)
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
		if c.Name == ref || c.Path == absRef {
			f, err := a.ws.Select(sess, c.Path, lang)
			return sess, f, err
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no catalogs for %s (%s): %w", lang, config.LanguageName(lang), workspace.ErrNotFound)
	}
	return nil, nil, fmt.Errorf("catalog %q for %s not found (available: %s): %w",
		ref, lang, strings.Join(names, ", "), workspace.ErrNotFound)
}

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func newListCmd(a *app) *cobra.Command {
	var (
		filter string
		q      workspace.Query
	)

	cmd := &cobra.Command{
		Use:   "list <lang> <catalog>",
		Short: "List the entries of a catalog with their edit keys",
		Long: `List one page of catalog entries.

Each entry shows the key to pass to 'poshare edit --set'. With main_language
configured, the reference translation is shown as well.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := workspace.ParseFilter(filter)
			if err != nil {
				return err
			}
			q.Filter = f

			sess, catalog, err := a.selectCatalog(args[0], args[1])
			if err != nil {
				return err
			}
			page, err := a.ws.RenderPage(sess, catalog, q)
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), page)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Entries to list: all, translated, untranslated, fuzzy")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "Case-insensitive search in msgid, translation and references")
	cmd.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 0, "Entries per page (default from .poshare.yaml)")
	cmd.Flags().BoolVar(&q.CrossCatalog, "cross", false, "Show translations of the same message in other catalogs")
	return cmd
}

func printPage(w io.Writer, page workspace.Page) {
	for _, pe := range page.Entries {
		e := pe.Entry
		state := "untranslated"
		switch {
		case e.IsFuzzy():
			state = "fuzzy"
		case e.IsTranslated():
			state = "translated"
		}

		fmt.Fprintf(w, "%s[%s]%s %s\n", colorBlue, state, colorReset, e.MsgID)
		if e.MsgCtxt != "" {
			fmt.Fprintf(w, "  context:   %s\n", e.MsgCtxt)
		}
		if e.IsPlural() {
			for _, n := range e.PluralIndices() {
				fmt.Fprintf(w, "  %s = %q\n", edit.ValueKey(pe.Fingerprint, n), e.MsgStrPlural[n])
			}
		} else {
			fmt.Fprintf(w, "  %s = %q\n", edit.ValueKey(pe.Fingerprint, -1), e.MsgStr)
		}
		if pe.Reference != "" {
			fmt.Fprintf(w, "  %s:        %s\n", page.ReferenceLanguage, pe.Reference)
		}
		for _, other := range pe.Elsewhere {
			fmt.Fprintf(w, "  elsewhere: %s (%s)\n", other.Translation, filepath.Base(other.Path))
		}
	}

	fmt.Fprintf(w, "\nPage %d of %d, %d entries, %d%% translated", page.Number, page.NumPages, page.Total, page.PercentTranslated)
	if len(page.Range) > 0 {
		var parts []string
		for _, p := range page.Range {
			switch {
			case p == 0:
				parts = append(parts, "...")
			case p == page.Number:
				parts = append(parts, fmt.Sprintf("[%d]", p))
			default:
				parts = append(parts, fmt.Sprint(p))
			}
		}
		fmt.Fprintf(w, "  (%s)", strings.Join(parts, " "))
	}
	fmt.Fprintln(w)
}

// ---------------------------------------------------------------------------
// edit
// ---------------------------------------------------------------------------

func newEditCmd(a *app) *cobra.Command {
	var (
		sets   []string
		msgids []string
		fuzzy  []string
	)

	cmd := &cobra.Command{
		Use:   "edit <lang> <catalog>",
		Short: "Apply translations to a catalog",
		Long: `Apply translations addressed by edit key or by msgid.

  --set m_<fingerprint>=<text>       singular translation, key from 'list'
  --set m_<fingerprint>_<n>=<text>   plural form n
  --msgid "<msgid>=<text>"           look the entry up by msgid
  --fuzzy <fingerprint>              mark the edited entry fuzzy

Keys whose entry changed since it was listed are reported as conflicts and
skipped; the other edits are still saved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, f, err := a.selectCatalog(args[0], args[1])
			if err != nil {
				return err
			}
			sub, err := buildSubmission(f, sets, msgids, fuzzy)
			if err != nil {
				return err
			}

			res, err := a.ws.Save(sess, sub)
			if err != nil {
				return err
			}
			return a.reportSave(sess, res)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Edit key and translation as KEY=TEXT (repeatable)")
	cmd.Flags().StringArrayVar(&msgids, "msgid", nil, "Msgid and translation as MSGID=TEXT (repeatable)")
	cmd.Flags().StringArrayVar(&fuzzy, "fuzzy", nil, "Fingerprint of an entry to mark fuzzy (repeatable)")
	return cmd
}

// buildSubmission turns command line assignments into a submission against
// the current state of f.
func buildSubmission(f *po.File, sets, msgids, fuzzy []string) (edit.Submission, error) {
	sub := edit.Submission{Values: make(map[string]string), Fuzzy: make(map[string]bool)}

	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return sub, fmt.Errorf("--set %q: expected KEY=TEXT", s)
		}
		if _, _, ok := edit.ParseKey(key); !ok {
			return sub, fmt.Errorf("--set %q: %q is not an edit key", s, key)
		}
		sub.Values[key] = value
	}

	for _, s := range msgids {
		msgid, value, ok := strings.Cut(s, "=")
		if !ok {
			return sub, fmt.Errorf("--msgid %q: expected MSGID=TEXT", s)
		}
		e := f.Find(msgid, "")
		if e == nil {
			return sub, fmt.Errorf("--msgid %q: no such entry", msgid)
		}
		if e.IsPlural() {
			return sub, fmt.Errorf("--msgid %q: entry has plural forms, use --set with the keys shown by 'list'", msgid)
		}
		sub.Values[edit.ValueKey(fingerprint.Of(e), -1)] = value
	}

	for _, fp := range fuzzy {
		if _, ok := edit.FuzzyKey(fp); !ok {
			return sub, fmt.Errorf("--fuzzy %q: not a fingerprint", fp)
		}
		sub.Fuzzy[fp] = true
	}
	return sub, nil
}

// reportSave prints the outcome of an edit.
func (a *app) reportSave(sess *workspace.Session, res workspace.SaveResult) error {
	for _, key := range res.Edit.Conflicts {
		logWarning("%s: entry changed since it was listed, skipped", key)
	}
	if !res.Edit.Changed {
		logInfo("Nothing changed")
		if res.Edit.HasConflicts() {
			return errConflicts
		}
		return nil
	}

	if err := a.keepPersisted(sess, res.Persist, fmt.Sprintf("%d change(s)", res.Edit.Applied)); err != nil {
		return err
	}
	if res.Edit.HasConflicts() {
		return errConflicts
	}
	return nil
}

// keepPersisted reports where a saved catalog ended up. Changes that only
// reached the shadow copy would die with the process, so they are written to
// an archive.
func (a *app) keepPersisted(sess *workspace.Session, pr workspace.PersistResult, what string) error {
	switch pr.Outcome {
	case workspace.WrittenToDisk:
		logSuccess("Saved %s to %s", what, sess.Path)
		if pr.Saved.CompileErr != nil {
			logWarning("MO file not updated: %v", pr.Saved.CompileErr)
		}
	case workspace.WrittenToShadow:
		logWarning("%s is not writable; %s kept in this session only", sess.Path, what)
		if pr.Err != nil {
			logWarning("%v", pr.Err)
		}
		archive := workspace.DownloadName(sess)
		if err := a.writeArchive(sess, archive); err != nil {
			return err
		}
		logSuccess("Edited catalog written to %s", archive)
	default:
		return pr.Err
	}
	return nil
}

var errConflicts = errors.New("some edits were not applied because their entries changed")

// ---------------------------------------------------------------------------
// merge
// ---------------------------------------------------------------------------

func newMergeCmd(a *app) *cobra.Command {
	var priority, dryRun bool

	cmd := &cobra.Command{
		Use:   "merge <lang> <catalog> <file.po>",
		Short: "Import translations from another PO file",
		Long: `Import translations from an uploaded PO file.

Without --priority only untranslated entries are filled in. With --priority
every translated entry of the uploaded file replaces the existing one.
Entries missing from the catalog are added.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.selectCatalog(args[0], args[1])
			if err != nil {
				return err
			}
			upload, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}

			plan, err := a.ws.PrepareMerge(sess, upload, priority)
			if err != nil {
				return err
			}
			printMerge(cmd.OutOrStdout(), plan.Preview)
			if dryRun || plan.Preview.Empty() {
				return nil
			}

			res, err := a.ws.CommitMerge(plan)
			if err != nil {
				return err
			}
			if !res.Persisted {
				logInfo("Nothing changed")
				return nil
			}
			return a.keepPersisted(sess, res.Persist,
				fmt.Sprintf("%d new and %d changed entries", len(res.New), len(res.Changed)))
		},
	}

	cmd.Flags().BoolVar(&priority, "priority", false, "Let uploaded translations replace existing ones")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only show what would change")
	return cmd
}

func printMerge(w io.Writer, res merge.Result) {
	if res.Empty() {
		fmt.Fprintln(w, "No changes.")
		return
	}
	for _, c := range res.New {
		fmt.Fprintf(w, "%s+ %s%s = %q\n", colorGreen, c.Source.MsgID, colorReset, c.Source.Translation())
	}
	for _, c := range res.Changed {
		fmt.Fprintf(w, "%s~ %s%s = %q\n", colorYellow, c.Source.MsgID, colorReset, c.Source.Translation())
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <catalog.po> <template.pot>",
		Short: "Update a catalog from its POT template",
		Long: `Update a catalog from its template, like msgmerge.

New template entries are added untranslated, vanished entries become
obsolete, and references and flags follow the template.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := po.ParseFile(args[0])
			if err != nil {
				return err
			}
			template, err := po.ParseFile(args[1])
			if err != nil {
				return err
			}

			synced := merge.Sync(catalog, template)
			synced.WrapWidth = a.cfg.Wrap()
			saved, err := persist.Writer{AutoCompile: a.cfg.Compile()}.Save(synced)
			if err != nil {
				return err
			}
			if saved.CompileErr != nil {
				logWarning("MO file not updated: %v", saved.CompileErr)
			}
			total, translated, fuzzy, untranslated := synced.Stats()
			logSuccess("%s: %d entries (%d translated, %d fuzzy, %d untranslated, %d obsolete)",
				args[0], total, translated, fuzzy, untranslated, len(synced.ObsoleteEntries()))
			return nil
		},
	}
	return cmd
}

// ---------------------------------------------------------------------------
// compile / check
// ---------------------------------------------------------------------------

func newCompileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [catalog.po...]",
		Short: "Compile catalogs to MO files",
		Long:  `Compile the given catalogs, or every discovered catalog, to MO files next to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.catalogPaths(args)
			if err != nil {
				return err
			}
			for _, path := range paths {
				f, err := po.ParseFile(path)
				if err != nil {
					return err
				}
				if err := f.WriteMOFile(po.MOPath(path)); err != nil {
					return fmt.Errorf("compiling %s: %w", path, err)
				}
				logSuccess("Compiled %s", po.MOPath(path))
			}
			return nil
		},
	}
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [catalog.po...]",
		Short: "Validate catalogs and their placeholders",
		Long: `Parse the given catalogs, or every discovered catalog, check that
translations keep the placeholders of c-format and python-format messages,
and verify that the compiled form resolves every translation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.catalogPaths(args)
			if err != nil {
				return err
			}

			var (
				mu       sync.Mutex
				problems int
			)
			report := func(format string, args ...any) {
				mu.Lock()
				defer mu.Unlock()
				problems++
				logError(format, args...)
			}

			var g errgroup.Group
			for _, path := range paths {
				g.Go(func() error {
					f, err := po.ParseFile(path)
					if err != nil {
						report("%v", err)
						return nil
					}
					for _, msg := range f.CheckFormats() {
						report("%s: %s", path, msg)
					}
					if err := po.VerifyMO(f, f.MO()); err != nil {
						report("%s: %v", path, err)
					}
					return nil
				})
			}
			_ = g.Wait()

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			logSuccess("%d catalog(s) OK", len(paths))
			return nil
		},
	}
	return cmd
}

// catalogPaths returns args, or every discovered catalog when args is empty.
func (a *app) catalogPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	cats, err := a.cfg.AllCatalogs()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(cats))
	for _, c := range cats {
		paths = append(paths, c.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

// ---------------------------------------------------------------------------
// download
// ---------------------------------------------------------------------------

func newDownloadCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <lang> <catalog>",
		Short: "Bundle a catalog and its MO file into a zip archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.selectCatalog(args[0], args[1])
			if err != nil {
				return err
			}
			if output == "" {
				output = workspace.DownloadName(sess)
			}
			if err := a.writeArchive(sess, output); err != nil {
				return err
			}
			logSuccess("Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default: derived from the catalog path)")
	return cmd
}

func (a *app) writeArchive(sess *workspace.Session, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.ws.Download(sess, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
