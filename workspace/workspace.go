// Package workspace drives the translation workflow: picking a catalog,
// loading it for a request, applying submitted edits and writing the result
// back to disk or to a per-session shadow copy.
//
// A catalog that is writable is re-read from disk on every request, so
// concurrent editors always work against the latest saved state. Catalogs
// that cannot be written live in the shadow store until they are
// downloaded.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minios-linux/poshare/access"
	"github.com/minios-linux/poshare/config"
	"github.com/minios-linux/poshare/edit"
	"github.com/minios-linux/poshare/notify"
	"github.com/minios-linux/poshare/persist"
	po "github.com/minios-linux/poshare/pofile"
	"github.com/minios-linux/poshare/shadow"
)

var (
	// ErrNotFound is returned for unknown languages, catalogs or entries.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the user may not translate the language.
	ErrForbidden = errors.New("forbidden")
	// ErrNoCatalog is returned when the session has not selected a catalog.
	ErrNoCatalog = errors.New("no catalog selected")
)

// Persister writes catalogs to disk.
type Persister interface {
	Writable(path string) bool
	Save(f *po.File) (persist.Outcome, error)
}

// Session is the per-user state carried between requests.
type Session struct {
	User     access.User
	Path     string
	Language string
	Filter   Filter

	// LastSaveConflict is set when a submission referenced entries that
	// had changed since they were rendered. The caller clears it once shown.
	LastSaveConflict bool

	token    string
	fellBack map[string]bool
}

// NewSession starts a session for user.
func NewSession(user access.User) *Session {
	return &Session{User: user, Filter: FilterAll}
}

// Token returns the session's shadow store key, creating it on first use.
func (s *Session) Token() string {
	if s.token == "" {
		s.token = uuid.NewString()
	}
	return s.token
}

// FellBack reports whether edits to path are kept in the shadow store.
func (s *Session) FellBack(path string) bool {
	return s.fellBack[path]
}

func (s *Session) setFellBack(path string, v bool) {
	if s.fellBack == nil {
		s.fellBack = make(map[string]bool)
	}
	if v {
		s.fellBack[path] = true
	} else {
		delete(s.fellBack, path)
	}
}

// Workspace holds the configuration and collaborators shared by all sessions.
type Workspace struct {
	cfg    *config.File
	auth   access.Authorizer
	bus    *notify.Bus
	log    zerolog.Logger
	shadow *shadow.Store
	writer Persister
	now    func() time.Time
	tool   string
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithAuthorizer replaces the configured group policy.
func WithAuthorizer(a access.Authorizer) Option {
	return func(w *Workspace) { w.auth = a }
}

// WithBus sets the notification bus.
func WithBus(b *notify.Bus) Option {
	return func(w *Workspace) { w.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithShadowStore shares a shadow store between workspaces.
func WithShadowStore(s *shadow.Store) Option {
	return func(w *Workspace) { w.shadow = s }
}

// WithClock sets the clock used for revision dates.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithPersister replaces the disk writer.
func WithPersister(p Persister) Option {
	return func(w *Workspace) { w.writer = p }
}

// WithTool sets the X-Translated-Using signature.
func WithTool(tool string) Option {
	return func(w *Workspace) { w.tool = tool }
}

// New returns a workspace for cfg.
func New(cfg *config.File, opts ...Option) *Workspace {
	w := &Workspace{
		cfg:  cfg,
		auth: cfg.Policy(),
		log:  zerolog.Nop(),
		now:  time.Now,
		tool: edit.DefaultTool,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.bus == nil {
		w.bus = notify.NewBus(w.log)
	}
	if w.shadow == nil {
		w.shadow = shadow.New(cfg.ShadowMaxEntries)
	}
	if w.writer == nil {
		w.writer = persist.Writer{AutoCompile: cfg.Compile()}
	}
	return w
}

// Bus returns the notification bus.
func (w *Workspace) Bus() *notify.Bus {
	return w.bus
}

// Config returns the workspace configuration.
func (w *Workspace) Config() *config.File {
	return w.cfg
}

func (w *Workspace) authorize(sess *Session, lang string) error {
	if !w.auth.CanTranslate(sess.User, lang) {
		return fmt.Errorf("user %q may not translate %q: %w", sess.User.Username, lang, ErrForbidden)
	}
	return nil
}

// Languages lists the languages the session's user may translate.
func (w *Workspace) Languages(sess *Session) ([]string, error) {
	if err := w.authorize(sess, ""); err != nil {
		return nil, err
	}
	var out []string
	for _, lang := range w.cfg.DetectLanguages() {
		if w.auth.CanTranslate(sess.User, lang) {
			out = append(out, lang)
		}
	}
	return out, nil
}

// Catalogs lists the catalogs of lang.
func (w *Workspace) Catalogs(sess *Session, lang string) ([]config.Catalog, error) {
	if err := w.authorize(sess, lang); err != nil {
		return nil, err
	}
	if !w.cfg.LanguageAllowed(lang) {
		return nil, fmt.Errorf("language %q: %w", lang, ErrNotFound)
	}
	return w.cfg.FindCatalogs(lang)
}

// Select makes path the session's current catalog. path must be one of the
// catalogs discovered for lang. A catalog that cannot be written is copied
// into the shadow store right away.
func (w *Workspace) Select(sess *Session, path, lang string) (*po.File, error) {
	cats, err := w.Catalogs(sess, lang)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	found := false
	for _, c := range cats {
		if c.Path == abs {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("catalog %s for %q: %w", path, lang, ErrNotFound)
	}

	f, err := w.parse(abs)
	if err != nil {
		return nil, err
	}

	sess.Path, sess.Language = abs, lang
	sess.LastSaveConflict = false
	if w.writer.Writable(abs) {
		sess.setFellBack(abs, false)
		w.shadow.Delete(sess.Token(), abs)
	} else {
		w.log.Info().Str("path", abs).Msg("Catalog is read-only, keeping edits in session")
		sess.setFellBack(abs, true)
		w.shadow.Put(sess.Token(), abs, f)
	}
	return f, nil
}

func (w *Workspace) parse(path string) (*po.File, error) {
	f, err := po.ParseFile(path)
	if err != nil {
		return nil, err
	}
	f.WrapWidth = w.cfg.Wrap()
	return f, nil
}

// Load returns the session's current catalog for this request: a fresh parse
// of the file when it is writable, the shadow copy otherwise.
func (w *Workspace) Load(sess *Session) (*po.File, error) {
	if sess.Path == "" {
		return nil, ErrNoCatalog
	}
	if err := w.authorize(sess, sess.Language); err != nil {
		return nil, err
	}

	if !sess.FellBack(sess.Path) && w.writer.Writable(sess.Path) {
		return w.parse(sess.Path)
	}

	f, ok, err := w.shadow.Get(sess.Token(), sess.Path)
	if err != nil {
		return nil, err
	}
	if ok {
		f.WrapWidth = w.cfg.Wrap()
		return f, nil
	}

	// Shadow copy evicted or never created: start over from disk.
	f, err = w.parse(sess.Path)
	if err != nil {
		return nil, err
	}
	w.shadow.Put(sess.Token(), sess.Path, f)
	return f, nil
}
