package graph

import "context"

// Backend is the version-control collaborator the pipeline reads from. An
// implementation is one explicit session on one repository.
type Backend interface {
	// ListReferences returns every branch, remote-tracking branch and tag.
	ListReferences(ctx context.Context) ([]Reference, error)
	// GetCommit returns the commit with the given id, or an error wrapping
	// ErrCommitNotFound.
	GetCommit(ctx context.Context, id CommitID) (*CommitRecord, error)
	// ResolveCommit peels tag objects until a commit id is reached. It
	// returns an error wrapping ErrNotCommit if the chain ends elsewhere.
	ResolveCommit(ctx context.Context, id CommitID) (CommitID, error)
}

// Traverser is implemented by backends that can fetch a bounded slice of
// history from several tips in a single call.
type Traverser interface {
	BoundedTraversal(ctx context.Context, tips []CommitID, limit int) ([]*CommitRecord, error)
}
