package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultPrimaryBranch is the branch placed first when none is configured.
const DefaultPrimaryBranch = "main"

// Resolution is the output of ResolveReferences.
type Resolution struct {
	Labels LabelMap
	// Tips holds one commit per distinct non-tag reference target. Tips[0]
	// is the primary line; the rest are newest first.
	Tips []*CommitRecord
	// Primary is the short name of the reference that produced Tips[0].
	Primary string
	Errors  []*ReferenceResolutionError
}

type tipCandidate struct {
	ref    Reference
	commit *CommitRecord
	order  int
}

// ResolveReferences lists the backend's references and resolves each one to
// its commit. References that fail to resolve are recorded in Errors and
// skipped.
func ResolveReferences(ctx context.Context, b Backend, primary string) (*Resolution, error) {
	logger := log.FromContext(ctx)
	if primary == "" {
		primary = DefaultPrimaryBranch
	}

	refs, err := b.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	res := &Resolution{Labels: make(LabelMap)}
	var candidates []tipCandidate

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := b.ResolveCommit(ctx, ref.Target)
		if err != nil {
			res.Errors = append(res.Errors, &ReferenceResolutionError{Ref: ref.Name.String(), Err: err})
			logger.Warn("skipping reference", "ref", ref.Name, "err", err)
			continue
		}

		res.Labels[id] = append(res.Labels[id], ReferenceLabel{
			DisplayName: displayName(ref),
			Target:      id,
			AheadBehind: ref.AheadBehind,
		})

		if ref.IsTag {
			continue
		}
		c, err := b.GetCommit(ctx, id)
		if err != nil {
			res.Errors = append(res.Errors, &ReferenceResolutionError{Ref: ref.Name.String(), Err: err})
			logger.Warn("skipping reference", "ref", ref.Name, "err", err)
			continue
		}
		candidates = append(candidates, tipCandidate{ref: ref, commit: c, order: len(candidates)})
	}

	res.Tips, res.Primary = orderTips(candidates, primary)
	logger.Debug("resolved references", "refs", len(refs), "tips", len(res.Tips), "primary", res.Primary, "errors", len(res.Errors))
	return res, nil
}

// orderTips moves the primary candidate to the front, sorts the others by
// commit time (newest first) and drops repeated commits.
func orderTips(candidates []tipCandidate, primary string) ([]*CommitRecord, string) {
	if len(candidates) == 0 {
		return nil, ""
	}

	pick := -1
	for i, c := range candidates {
		if matchesPrimary(c.ref.Name, primary) {
			pick = i
			break
		}
	}
	if pick < 0 {
		for i, c := range candidates {
			if c.ref.IsHead {
				pick = i
				break
			}
		}
	}

	rest := make([]tipCandidate, 0, len(candidates))
	for i, c := range candidates {
		if i != pick {
			rest = append(rest, c)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].commit.Timestamp.After(rest[j].commit.Timestamp)
	})

	ordered := rest
	if pick >= 0 {
		ordered = append([]tipCandidate{candidates[pick]}, rest...)
	}

	seen := make(map[CommitID]bool, len(ordered))
	tips := make([]*CommitRecord, 0, len(ordered))
	for _, c := range ordered {
		if seen[c.commit.ID] {
			continue
		}
		seen[c.commit.ID] = true
		tips = append(tips, c.commit)
	}
	return tips, ordered[0].ref.Name.Short()
}

func matchesPrimary(name plumbing.ReferenceName, primary string) bool {
	return name.Short() == primary || name.String() == primary
}

func displayName(ref Reference) string {
	short := ref.Name.Short()
	switch {
	case ref.IsHead:
		return "* " + short
	case ref.IsTag:
		return "tag: " + short
	default:
		return short
	}
}
