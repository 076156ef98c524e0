package workspace

import (
	"github.com/minios-linux/poshare/edit"
	"github.com/minios-linux/poshare/notify"
	"github.com/minios-linux/poshare/persist"
	po "github.com/minios-linux/poshare/pofile"
)

// Outcome tells where a persisted catalog ended up.
type Outcome int

const (
	// WrittenToDisk means the catalog file was replaced.
	WrittenToDisk Outcome = iota
	// WrittenToShadow means the catalog lives in the session's shadow copy.
	WrittenToShadow
	// Failed means nothing was stored.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case WrittenToDisk:
		return "disk"
	case WrittenToShadow:
		return "shadow"
	default:
		return "failed"
	}
}

// PersistResult reports the outcome of Persist. Err is set when writing the
// file failed; the edits are still safe in the shadow copy in that case.
// A catalog written without its MO file is WrittenToDisk with
// Saved.CompileErr set.
type PersistResult struct {
	Outcome Outcome
	Saved   persist.Outcome
	Err     error
}

// SaveResult reports a complete Save. Persist is only meaningful when
// Persisted is set; a submission that changed nothing is not written.
type SaveResult struct {
	Edit      edit.Result
	Persisted bool
	Persist   PersistResult
	Catalog   *po.File
}

// ApplyEdits applies sub to f on behalf of the session's user.
func (w *Workspace) ApplyEdits(sess *Session, f *po.File, sub edit.Submission) edit.Result {
	res := edit.Apply(f, sub, edit.Options{
		User:     sess.User,
		Language: sess.Language,
		Path:     sess.Path,
		Notifier: w.bus,
		Now:      w.now,
		Tool:     w.tool,
	})
	if res.HasConflicts() {
		sess.LastSaveConflict = true
		w.log.Warn().
			Str("path", sess.Path).
			Strs("keys", res.Conflicts).
			Msg("Submitted entries changed since they were rendered")
	}
	return res
}

// Persist stores f: on disk when the catalog is writable, in the session's
// shadow copy otherwise. A failed write switches the session to the shadow
// copy for this catalog.
func (w *Workspace) Persist(sess *Session, f *po.File) PersistResult {
	if sess.Path == "" {
		return PersistResult{Outcome: Failed, Err: ErrNoCatalog}
	}
	f.Path = sess.Path
	f.WrapWidth = w.cfg.Wrap()

	if sess.FellBack(sess.Path) || !w.writer.Writable(sess.Path) {
		sess.setFellBack(sess.Path, true)
		w.shadow.Put(sess.Token(), sess.Path, f)
		return PersistResult{Outcome: WrittenToShadow}
	}

	saved, err := w.writer.Save(f)
	if err != nil {
		w.log.Warn().Err(err).Str("path", sess.Path).Msg("Failed to save catalog, keeping edits in session")
		sess.setFellBack(sess.Path, true)
		w.shadow.Put(sess.Token(), sess.Path, f)
		return PersistResult{Outcome: WrittenToShadow, Saved: saved, Err: err}
	}

	if saved.CompileErr != nil {
		w.log.Warn().Err(saved.CompileErr).Str("path", sess.Path).Msg("Catalog saved but not compiled")
	}
	w.log.Debug().Str("path", sess.Path).Time("version", saved.Version).Msg("Catalog saved")
	w.bus.CatalogSaved(notify.CatalogSaved{Path: sess.Path, Language: sess.Language, User: sess.User})
	return PersistResult{Outcome: WrittenToDisk, Saved: saved}
}

// Save loads the current catalog, applies sub and persists the result when
// anything changed.
func (w *Workspace) Save(sess *Session, sub edit.Submission) (SaveResult, error) {
	f, err := w.Load(sess)
	if err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{Edit: w.ApplyEdits(sess, f, sub), Catalog: f}
	if res.Edit.Changed {
		res.Persisted = true
		res.Persist = w.Persist(sess, f)
	}
	return res, nil
}
