package workspace

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/poshare/access"
	"github.com/minios-linux/poshare/config"
	"github.com/minios-linux/poshare/edit"
	"github.com/minios-linux/poshare/fingerprint"
	"github.com/minios-linux/poshare/notify"
	"github.com/minios-linux/poshare/persist"
	po "github.com/minios-linux/poshare/pofile"
)

const frCatalog = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Language: fr\n"
"Plural-Forms: nplurals=2; plural=(n > 1);\n"

#: shop/views.py:10
msgid "Cart"
msgstr "Panier"

#: shop/views.py:12
msgid "Checkout"
msgstr ""

#: shop/models.py:3
#, fuzzy
msgid "Price"
msgstr "Prix"

#: shop/templates/index.html:1
msgid "Welcome"
msgstr ""
`

const frJSCatalog = `msgid "Checkout"
msgstr "Paiement"
`

const deCatalog = `msgid "Cart"
msgstr "Warenkorb"
`

var (
	alice = access.User{Username: "alice", FirstName: "Alice", LastName: "Martin", Email: "alice@example.org", Authenticated: true, Groups: []string{"translators"}}
	bob   = access.User{Username: "bob", Authenticated: true, Groups: []string{"translators"}}
	eve   = access.User{Username: "eve", Authenticated: true}

	fixedNow = func() time.Time { return time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC) }
)

type fixture struct {
	dir    string
	frPath string
	cfg    *config.File
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) string {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	fr := write("locale/fr/LC_MESSAGES/django.po", frCatalog)
	write("locale/fr/LC_MESSAGES/djangojs.po", frJSCatalog)
	write("locale/de/LC_MESSAGES/django.po", deCatalog)

	cfg := config.Default(dir)
	cfg.MainLanguage = "de"
	return fixture{dir: dir, frPath: fr, cfg: cfg}
}

// fakePersister wraps the real writer to simulate read-only files and
// failing writes.
type fakePersister struct {
	persist.Writer
	readOnly bool
	failSave error
}

func (p fakePersister) Writable(path string) bool {
	return !p.readOnly && p.Writer.Writable(path)
}

func (p fakePersister) Save(f *po.File) (persist.Outcome, error) {
	if p.failSave != nil {
		return persist.Outcome{}, p.failSave
	}
	return p.Writer.Save(f)
}

func keyFor(t *testing.T, f *po.File, msgid string) string {
	t.Helper()
	e := f.Find(msgid, "")
	require.NotNil(t, e, msgid)
	return edit.ValueKey(fingerprint.Of(e), -1)
}

func diskCatalog(t *testing.T, path string) *po.File {
	t.Helper()
	f, err := po.ParseFile(path)
	require.NoError(t, err)
	return f
}

func TestSelectChecksAccessAndDiscovery(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg)

	_, err := w.Select(NewSession(eve), fx.frPath, "fr")
	assert.ErrorIs(t, err, ErrForbidden)

	sess := NewSession(alice)
	_, err = w.Select(sess, filepath.Join(fx.dir, "elsewhere.po"), "fr")
	assert.ErrorIs(t, err, ErrNotFound)

	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)
	assert.Equal(t, fx.frPath, sess.Path)
	assert.Equal(t, "fr", sess.Language)
	assert.False(t, sess.FellBack(fx.frPath))
	assert.Equal(t, "Panier", f.Find("Cart", "").MsgStr)

	langs, err := w.Languages(sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "fr"}, langs)

	cats, err := w.Catalogs(sess, "fr")
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}

func TestLoadWithoutSelection(t *testing.T) {
	fx := newFixture(t)
	_, err := New(fx.cfg).Load(NewSession(alice))
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestSaveWritesToDisk(t *testing.T) {
	fx := newFixture(t)
	bus := notify.NewBus(zerolog.Nop())
	var saved []notify.CatalogSaved
	bus.OnCatalogSaved(func(ev notify.CatalogSaved) { saved = append(saved, ev) })
	w := New(fx.cfg, WithBus(bus), WithClock(fixedNow), WithTool("poshare test"))

	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)

	res, err := w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Checkout"): "Commander"}})
	require.NoError(t, err)
	assert.True(t, res.Edit.Changed)
	require.True(t, res.Persisted)
	assert.Equal(t, WrittenToDisk, res.Persist.Outcome)
	assert.NoError(t, res.Persist.Err)
	assert.Equal(t, po.MOPath(fx.frPath), res.Persist.Saved.MOPath)

	disk := diskCatalog(t, fx.frPath)
	assert.Equal(t, "Commander", disk.Find("Checkout", "").MsgStr)
	assert.Equal(t, "Alice Martin <alice@example.org>", disk.HeaderField("Last-Translator"))
	assert.Equal(t, "poshare test", disk.HeaderField("X-Translated-Using"))
	assert.Equal(t, "2026-05-01 12:30+0000", disk.HeaderField("PO-Revision-Date"))

	mo, err := os.ReadFile(po.MOPath(fx.frPath))
	require.NoError(t, err)
	require.NoError(t, po.VerifyMO(disk, mo))

	require.Len(t, saved, 1)
	assert.Equal(t, "fr", saved[0].Language)
	assert.Equal(t, "alice", saved[0].User.Username)
}

func TestSaveWithoutChangesDoesNotWrite(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg)
	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)

	res, err := w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Cart"): "Panier"}})
	require.NoError(t, err)
	assert.False(t, res.Edit.Changed)
	assert.False(t, res.Persisted)

	data, err := os.ReadFile(fx.frPath)
	require.NoError(t, err)
	assert.Equal(t, frCatalog, string(data))
	_, err = os.Stat(po.MOPath(fx.frPath))
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentSessionsDetectConflicts(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg)

	a, b := NewSession(alice), NewSession(bob)
	_, err := w.Select(a, fx.frPath, "fr")
	require.NoError(t, err)
	_, err = w.Select(b, fx.frPath, "fr")
	require.NoError(t, err)

	// Both editors render the same state.
	fa, err := w.Load(a)
	require.NoError(t, err)
	fb, err := w.Load(b)
	require.NoError(t, err)
	cartA := keyFor(t, fa, "Cart")
	cartB, checkoutB := keyFor(t, fb, "Cart"), keyFor(t, fb, "Checkout")

	resA, err := w.Save(a, edit.Submission{Values: map[string]string{cartA: "Chariot"}})
	require.NoError(t, err)
	assert.Empty(t, resA.Edit.Conflicts)

	resB, err := w.Save(b, edit.Submission{Values: map[string]string{
		cartB:     "Caddie",
		checkoutB: "Commander",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{cartB}, resB.Edit.Conflicts)
	assert.True(t, b.LastSaveConflict)
	assert.False(t, a.LastSaveConflict)
	assert.Equal(t, WrittenToDisk, resB.Persist.Outcome)

	disk := diskCatalog(t, fx.frPath)
	assert.Equal(t, "Chariot", disk.Find("Cart", "").MsgStr, "the first save survives")
	assert.Equal(t, "Commander", disk.Find("Checkout", "").MsgStr, "non-conflicting edits still apply")
}

func TestReadOnlyCatalogUsesShadowCopy(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg, WithPersister(fakePersister{Writer: persist.Writer{AutoCompile: true}, readOnly: true}))

	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)
	assert.True(t, sess.FellBack(fx.frPath))

	res, err := w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Welcome"): "Bienvenue"}})
	require.NoError(t, err)
	require.True(t, res.Persisted)
	assert.Equal(t, WrittenToShadow, res.Persist.Outcome)
	assert.NoError(t, res.Persist.Err)

	data, err := os.ReadFile(fx.frPath)
	require.NoError(t, err)
	assert.Equal(t, frCatalog, string(data), "read-only file is left alone")

	again, err := w.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", again.Find("Welcome", "").MsgStr)

	other := NewSession(bob)
	_, err = w.Select(other, fx.frPath, "fr")
	require.NoError(t, err)
	theirs, err := w.Load(other)
	require.NoError(t, err)
	assert.Equal(t, "", theirs.Find("Welcome", "").MsgStr, "shadow copies are per session")
}

func TestWriteFailureFallsBackToShadow(t *testing.T) {
	fx := newFixture(t)
	diskFull := errors.New("disk full")
	w := New(fx.cfg, WithPersister(fakePersister{failSave: diskFull}))

	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)
	assert.False(t, sess.FellBack(fx.frPath))

	res, err := w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Welcome"): "Bienvenue"}})
	require.NoError(t, err, "a failed write is not fatal")
	assert.Equal(t, WrittenToShadow, res.Persist.Outcome)
	assert.ErrorIs(t, res.Persist.Err, diskFull)
	assert.True(t, sess.FellBack(fx.frPath))

	again, err := w.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", again.Find("Welcome", "").MsgStr)
	assert.Equal(t, "", diskCatalog(t, fx.frPath).Find("Welcome", "").MsgStr)
}

func TestMOFailureKeepsSessionOnDisk(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(po.MOPath(fx.frPath), "keep"), 0o755))
	w := New(fx.cfg)

	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)

	res, err := w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Welcome"): "Bienvenue"}})
	require.NoError(t, err)
	assert.Equal(t, WrittenToDisk, res.Persist.Outcome)
	assert.NoError(t, res.Persist.Err)
	assert.Error(t, res.Persist.Saved.CompileErr)
	assert.False(t, sess.FellBack(fx.frPath))
	assert.Equal(t, "Bienvenue", diskCatalog(t, fx.frPath).Find("Welcome", "").MsgStr)

	// Another editor's save is still visible to the first session.
	other := NewSession(bob)
	theirs, err := w.Select(other, fx.frPath, "fr")
	require.NoError(t, err)
	_, err = w.Save(other, edit.Submission{Values: map[string]string{keyFor(t, theirs, "Checkout"): "Commander"}})
	require.NoError(t, err)

	mine, err := w.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, "Commander", mine.Find("Checkout", "").MsgStr)
	assert.Equal(t, "Bienvenue", mine.Find("Welcome", "").MsgStr)
}

func TestPersistWithoutCatalog(t *testing.T) {
	fx := newFixture(t)
	res := New(fx.cfg).Persist(NewSession(alice), po.NewFile())
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNoCatalog)
}

func TestMergeFlow(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg)
	sess := NewSession(alice)
	_, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)

	_, err = w.PrepareMerge(sess, []byte("msgid \"broken"), false)
	var ferr *po.FormatError
	assert.True(t, errors.As(err, &ferr))

	upload := []byte("msgid \"Checkout\"\nmsgstr \"Payer\"\n\nmsgid \"Cart\"\nmsgstr \"Caddie\"\n\nmsgid \"Logout\"\nmsgstr \"Quitter\"\n")
	plan, err := w.PrepareMerge(sess, upload, false)
	require.NoError(t, err)
	require.Len(t, plan.Preview.New, 1)
	require.Len(t, plan.Preview.Changed, 1)
	assert.Equal(t, "Checkout", plan.Preview.Changed[0].Source.MsgID)

	data, err := os.ReadFile(fx.frPath)
	require.NoError(t, err)
	assert.Equal(t, frCatalog, string(data), "preview does not write")

	res, err := w.CommitMerge(plan)
	require.NoError(t, err)
	assert.Len(t, res.New, 1)
	assert.Len(t, res.Changed, 1)
	require.True(t, res.Persisted)
	assert.Equal(t, WrittenToDisk, res.Persist.Outcome)

	disk := diskCatalog(t, fx.frPath)
	assert.Equal(t, "Payer", disk.Find("Checkout", "").MsgStr)
	assert.Equal(t, "Panier", disk.Find("Cart", "").MsgStr)
	assert.Equal(t, "Quitter", disk.Find("Logout", "").MsgStr)
}

func TestMergeIntoReadOnlyCatalogReportsShadow(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg, WithPersister(fakePersister{readOnly: true}))
	sess := NewSession(alice)
	_, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)

	plan, err := w.PrepareMerge(sess, []byte("msgid \"Welcome\"\nmsgstr \"Bienvenue\"\n"), false)
	require.NoError(t, err)
	res, err := w.CommitMerge(plan)
	require.NoError(t, err)
	require.Len(t, res.Changed, 1)
	require.True(t, res.Persisted)
	assert.Equal(t, WrittenToShadow, res.Persist.Outcome)

	data, err := os.ReadFile(fx.frPath)
	require.NoError(t, err)
	assert.Equal(t, frCatalog, string(data))

	kept, err := w.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", kept.Find("Welcome", "").MsgStr)
}

func TestDownload(t *testing.T) {
	fx := newFixture(t)
	w := New(fx.cfg, WithClock(fixedNow), WithPersister(fakePersister{readOnly: true}))
	sess := NewSession(alice)
	f, err := w.Select(sess, fx.frPath, "fr")
	require.NoError(t, err)
	_, err = w.Save(sess, edit.Submission{Values: map[string]string{keyFor(t, f, "Welcome"): "Bienvenue"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.Download(sess, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	contents := make(map[string][]byte)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[zf.Name] = data
	}
	require.Contains(t, contents, "django.po")
	require.Contains(t, contents, "django.mo")

	poFile, err := po.ParseBytes(contents["django.po"])
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", poFile.Find("Welcome", "").MsgStr, "download carries shadow edits")
	assert.NoError(t, po.VerifyMO(poFile, contents["django.mo"]))
}

func TestDownloadName(t *testing.T) {
	sess := &Session{Path: "/srv/app/shop/locale/fr/LC_MESSAGES/django.po", Language: "fr"}
	assert.Equal(t, "shop_locale_fr_LC_MESSAGES_django.po.fr.zip", DownloadName(sess))

	short := &Session{Path: "fr/django.po", Language: "fr"}
	assert.Equal(t, "django.po.fr.zip", DownloadName(short))
}
