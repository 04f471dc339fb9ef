package notes

import "context"

// Store defines the persistence operations the HTTP layer depends on.
type Store interface {
	Create(ctx context.Context, input NoteCreate) (*Note, error)
	List(ctx context.Context, skip, limit int) ([]Note, error)
	GetByID(ctx context.Context, id int64) (*Note, error)
	Update(ctx context.Context, id int64, patch NotePatch, full bool) (*Note, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var _ Store = (*Repository)(nil)
