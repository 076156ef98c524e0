package workspace

import (
	"fmt"

	"github.com/minios-linux/poshare/merge"
	po "github.com/minios-linux/poshare/pofile"
)

// MergePlan is a previewed import waiting for confirmation.
type MergePlan struct {
	Source   *po.File
	Priority bool
	// Preview is what committing the plan would do to the catalog as it was
	// when the plan was made.
	Preview merge.Result

	sess *Session
	path string
}

// PrepareMerge parses an uploaded catalog and previews merging it into the
// session's current catalog.
func (w *Workspace) PrepareMerge(sess *Session, upload []byte, priority bool) (*MergePlan, error) {
	dst, err := w.Load(sess)
	if err != nil {
		return nil, err
	}
	src, err := po.ParseBytes(upload)
	if err != nil {
		return nil, fmt.Errorf("parsing upload: %w", err)
	}
	return &MergePlan{
		Source:   src,
		Priority: priority,
		Preview:  merge.Diff(dst, src, priority),
		sess:     sess,
		path:     sess.Path,
	}, nil
}

// MergeResult reports a committed merge and where the catalog ended up.
type MergeResult struct {
	merge.Result
	// Persisted is false when the merge changed nothing and no write was
	// attempted.
	Persisted bool
	Persist   PersistResult
}

// CommitMerge applies a prepared plan to the current state of the catalog
// and persists it. A catalog that could only be kept in the shadow copy is
// reported through Persist, not as an error.
func (w *Workspace) CommitMerge(plan *MergePlan) (MergeResult, error) {
	sess := plan.sess
	if sess.Path != plan.path {
		return MergeResult{}, fmt.Errorf("merge prepared for %s, session is on %s: %w", plan.path, sess.Path, ErrNoCatalog)
	}
	dst, err := w.Load(sess)
	if err != nil {
		return MergeResult{}, err
	}

	res := MergeResult{Result: merge.Priority(dst, plan.Source, plan.Priority)}
	if res.Empty() {
		return res, nil
	}
	res.Persisted = true
	res.Persist = w.Persist(sess, dst)
	if res.Persist.Outcome == Failed {
		return res, res.Persist.Err
	}
	w.log.Info().
		Str("path", sess.Path).
		Int("new", len(res.New)).
		Int("changed", len(res.Changed)).
		Stringer("outcome", res.Persist.Outcome).
		Msg("Merged uploaded catalog")
	return res, nil
}
