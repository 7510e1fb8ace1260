package todos

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("todo not found")
	ErrInvalidID = errors.New("invalid todo id")
)

type Repository interface {
	List(ctx context.Context) ([]Todo, error)
	Get(ctx context.Context, id string) (Todo, error)
	Create(ctx context.Context, title *string) (Todo, error)
	Update(ctx context.Context, id string, patch Patch) (Todo, error)
	Delete(ctx context.Context, id string) (Todo, error)
}

// ValidID reports whether id has the shape of a store identifier
// (24 hex characters), independent of whether a todo with that id exists.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

type memEntry struct {
	seq  int64
	todo Todo
}

type InMemoryRepo struct {
	mu    sync.Mutex
	seq   int64
	store map[string]memEntry
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		store: make(map[string]memEntry),
	}
}

func (r *InMemoryRepo) List(_ context.Context) ([]Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]memEntry, 0, len(r.store))
	for _, e := range r.store {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b memEntry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]Todo, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.todo)
	}
	return out, nil
}

func (r *InMemoryRepo) Get(_ context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	id = oid.Hex()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	return e.todo, nil
}

func (r *InMemoryRepo) Create(_ context.Context, title *string) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	t := Todo{
		ID:        newID(),
		Title:     copyString(title),
		Completed: false,
	}
	r.store[t.ID] = memEntry{seq: r.seq, todo: t}
	return t, nil
}

func (r *InMemoryRepo) Update(_ context.Context, id string, patch Patch) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	id = oid.Hex()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	e.todo = patch.apply(e.todo)
	r.store[id] = e
	return e.todo, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	id = oid.Hex()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	delete(r.store, id)
	return e.todo, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
