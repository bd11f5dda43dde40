package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/kurobon/gitlanes/internal/graph"
)

// DefaultAheadBehindLimit bounds the commits walked for one ahead/behind
// count.
const DefaultAheadBehindLimit = 1000

// maxTagDepth bounds tag-of-tag chains.
const maxTagDepth = 10

// Repository adapts a go-git repository to graph.Backend.
type Repository struct {
	repo *gogit.Repository
	// AheadBehindLimit caps the commits walked when comparing a branch with
	// its upstream. Longer divergences leave AheadBehind nil. Zero disables
	// the comparison.
	AheadBehindLimit int
}

// New wraps an already opened repository.
func New(r *gogit.Repository) *Repository {
	return &Repository{repo: r, AheadBehindLimit: DefaultAheadBehindLimit}
}

// Open opens the repository at path, looking for a .git directory in path
// or any of its parents.
func Open(path string) (*Repository, error) {
	r, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return New(r), nil
}

// OpenFS opens a repository stored on fs. A .git directory at the root is
// used as the object store with fs as worktree; otherwise fs is treated as
// a bare repository.
func OpenFS(fs billy.Filesystem) (*Repository, error) {
	dot := fs
	var worktree billy.Filesystem
	if fi, err := fs.Stat(gogit.GitDirName); err == nil && fi.IsDir() {
		if dot, err = fs.Chroot(gogit.GitDirName); err != nil {
			return nil, fmt.Errorf("chroot %s: %w", gogit.GitDirName, err)
		}
		worktree = fs
	}

	st := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	r, err := gogit.Open(st, worktree)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fs.Root(), err)
	}
	return New(r), nil
}

// ListReferences returns local branches, remote-tracking branches, tags and
// a detached HEAD, sorted by name.
func (r *Repository) ListReferences(ctx context.Context) ([]graph.Reference, error) {
	head, err := r.repo.Head()
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}

	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var refs []graph.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Symbolic refs such as refs/remotes/origin/HEAD duplicate a branch.
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		out := graph.Reference{Name: name, Target: ref.Hash()}
		switch {
		case name.IsBranch():
			out.IsHead = head != nil && head.Name() == name
		case name.IsRemote():
		case name.IsTag():
			out.IsTag = true
		case name == plumbing.HEAD:
			out.IsHead = true
		default:
			return nil
		}
		refs = append(refs, out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	if err := r.attachUpstreams(ctx, refs); err != nil {
		return nil, err
	}

	slices.SortFunc(refs, func(a, b graph.Reference) int {
		return strings.Compare(a.Name.String(), b.Name.String())
	})
	return refs, nil
}

// attachUpstreams fills AheadBehind for local branches with a configured
// upstream that exists.
func (r *Repository) attachUpstreams(ctx context.Context, refs []graph.Reference) error {
	if r.AheadBehindLimit <= 0 {
		return nil
	}
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	for i := range refs {
		ref := &refs[i]
		if !ref.Name.IsBranch() {
			continue
		}
		b, ok := cfg.Branches[ref.Name.Short()]
		if !ok || b.Merge == "" {
			continue
		}
		upstream := b.Merge
		if b.Remote != "" && b.Remote != "." {
			upstream = plumbing.NewRemoteReferenceName(b.Remote, b.Merge.Short())
		}
		up, err := r.repo.Reference(upstream, true)
		if err != nil {
			continue
		}
		ab, err := r.aheadBehind(ctx, ref.Target, up.Hash())
		if err != nil {
			return err
		}
		ref.AheadBehind = ab
	}
	return nil
}

// GetCommit reads one commit.
func (r *Repository) GetCommit(ctx context.Context, id graph.CommitID) (*graph.CommitRecord, error) {
	c, err := r.repo.CommitObject(id)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("commit %s: %w", id, graph.ErrCommitNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	return record(c), nil
}

// ResolveCommit peels annotated tags down to a commit.
func (r *Repository) ResolveCommit(ctx context.Context, id graph.CommitID) (graph.CommitID, error) {
	obj, err := r.repo.Object(plumbing.AnyObject, id)
	for depth := 0; depth < maxTagDepth; depth++ {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("object %s: %w", id, graph.ErrCommitNotFound)
		}
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("object %s: %w", id, err)
		}
		switch o := obj.(type) {
		case *object.Commit:
			return o.Hash, nil
		case *object.Tag:
			obj, err = o.Object()
		default:
			return plumbing.ZeroHash, fmt.Errorf("%s is a %s: %w", id, obj.Type(), graph.ErrNotCommit)
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%s: tag chain too deep: %w", id, graph.ErrNotCommit)
}

// BoundedTraversal returns up to limit commits reachable from tips, each tip
// walked newest first by committer time. Commits reached from an earlier tip
// are not repeated.
func (r *Repository) BoundedTraversal(ctx context.Context, tips []graph.CommitID, limit int) ([]*graph.CommitRecord, error) {
	seen := make(map[plumbing.Hash]bool)
	var out []*graph.CommitRecord
	for _, tip := range tips {
		if len(out) >= limit {
			break
		}
		if seen[tip] {
			continue
		}
		c, err := r.repo.CommitObject(tip)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", tip, err)
		}

		iter := object.NewCommitIterCTime(c, seen, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(out) >= limit {
				return storer.ErrStop
			}
			seen[c.Hash] = true
			out = append(out, record(c))
			return nil
		})
		iter.Close()
		// A shallow or partial clone ends in missing parents.
		if err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("walk %s: %w", tip, err)
		}
	}
	return out, nil
}

func record(c *object.Commit) *graph.CommitRecord {
	return graph.NewCommitRecord(c.Hash, c.Message, c.Committer.When, c.ParentHashes...)
}
