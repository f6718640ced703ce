package git

import (
	stderrors "errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// Stamp identifies the source revision a module was built from.
type Stamp struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	// Dirty is set when the worktree has uncommitted changes.
	Dirty bool `json:"dirty"`
}

// SourceStamp returns the stamp of the repository containing dir, or nil when
// dir is not under git or the repository has no commits yet.
func SourceStamp(dir string) (*Stamp, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryResource, "open repository").WithContext("path", dir).Build()
	}

	head, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryResource, "resolve HEAD").WithContext("path", dir).Build()
	}

	stamp := &Stamp{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		stamp.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree to compare
		return stamp, nil
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryResource, "worktree status").WithContext("path", dir).Build()
	}
	stamp.Dirty = !status.IsClean()
	return stamp, nil
}
