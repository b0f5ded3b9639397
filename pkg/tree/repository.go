package tree

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/quill/pkg/logging"
	"github.com/entrhq/quill/pkg/store"
)

// DefaultKey is the store key the tree blob lives under.
const DefaultKey = "storage-key"

// ErrNotFound is returned by lookups naming an id that is not in the tree.
var ErrNotFound = errors.New("tree: node not found")

// Logger is the subset of *logging.Logger the repository writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Repository owns the load, mutate, save cycle over a store.Store.
//
// Every mutation reloads the full snapshot, checks its preconditions, and
// writes the full snapshot back. Mutations on one Repository are serialized;
// separate processes sharing a store are last-write-wins.
type Repository struct {
	store store.Store
	key   string
	ids   IDGenerator
	log   Logger

	mu sync.Mutex

	// fallbackID keeps the synthesized root stable across loads while the
	// store is still empty or unreadable.
	fallbackMu sync.Mutex
	fallbackID string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Option configures a Repository.
type Option func(*Repository)

// WithKey sets the store key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(r *Repository) {
		r.ids = ids
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(r *Repository) {
		r.log = l
	}
}

// NewRepository creates a repository persisting to s.
func NewRepository(s store.Store, opts ...Option) *Repository {
	r := &Repository{
		store: s,
		key:   DefaultKey,
		ids:   UUIDGenerator{},
		log:   logging.NewNopLogger(),
		subs:  make(map[int]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the store key in use.
func (r *Repository) Key() string {
	return r.key
}

type fixedID string

func (f fixedID) Next() string { return string(f) }

// Load reads and decodes the snapshot. Missing, empty or corrupt data yields
// a single-root snapshot; only store failures return an error.
func (r *Repository) Load(ctx context.Context) (*Snapshot, error) {
	value, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("tree: load: %w", err)
	}

	s, decodeErr := Decode(value)
	if decodeErr == nil {
		return s, nil
	}
	if ok && value != "" {
		r.log.Warnf("discarding unreadable snapshot under %q: %v", r.key, decodeErr)
	}

	r.fallbackMu.Lock()
	if r.fallbackID == "" {
		r.fallbackID = r.ids.Next()
	}
	id := r.fallbackID
	r.fallbackMu.Unlock()

	return NewSnapshot(fixedID(id)), nil
}

// Save serializes s and overwrites the stored blob.
func (r *Repository) Save(ctx context.Context, s *Snapshot) error {
	text, err := Serialize(s)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, r.key, text); err != nil {
		return fmt.Errorf("tree: save: %w", err)
	}
	return nil
}

// mutate runs fn against a freshly loaded snapshot and persists it only when
// fn reports Applied. Subscribers run after the lock is released.
func (r *Repository) mutate(ctx context.Context, op string, fn func(s *Snapshot) (Result, error)) (Result, error) {
	res, err := r.apply(ctx, op, fn)
	if err == nil && res.OK() {
		r.notify()
	}
	return res, err
}

func (r *Repository) apply(ctx context.Context, op string, fn func(s *Snapshot) (Result, error)) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	res, err := fn(s)
	if err != nil {
		return res, err
	}
	if res.Outcome != Applied {
		r.log.Debugf("%s %s: %s", op, res.ID, res.Outcome)
		return res, nil
	}

	if err := r.Save(ctx, s); err != nil {
		return Result{}, err
	}
	r.log.Debugf("%s %s: applied", op, res.ID)
	return res, nil
}

// GetNode returns the node with id, or the root when id is empty.
func (r *Repository) GetNode(ctx context.Context, id string) (*Node, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return s.Root(), nil
	}
	n, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, nil
}

// Children returns the resolved children of folder id (the root when id is
// empty). Leaves have no children.
func (r *Repository) Children(ctx context.Context, id string) ([]*Node, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = s.RootID()
	}
	if _, ok := s.Get(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Children(id), nil
}

// CreateLeaf stores a new snippet as the last child of the root.
func (r *Repository) CreateLeaf(ctx context.Context, contextText, content, label string) (Result, error) {
	return r.mutate(ctx, "create leaf", func(s *Snapshot) (Result, error) {
		id := r.uniqueID(s)
		root := s.Root()
		s.insert(newLeaf(NodeData{ID: id, Label: label, Context: contextText, Content: content}, root.ID()))
		root.ChildIDs = append(root.ChildIDs, id)
		return Result{Outcome: Applied, ID: id}, nil
	})
}

// CreateFolder adds an empty folder. With relativeTo empty it goes under the
// root; otherwise under relativeTo when that is a folder, or beside it when
// it is a leaf.
func (r *Repository) CreateFolder(ctx context.Context, name, relativeTo string) (Result, error) {
	return r.mutate(ctx, "create folder", func(s *Snapshot) (Result, error) {
		parentID := s.RootID()
		if relativeTo != "" {
			rel, ok := s.Get(relativeTo)
			if !ok {
				return Result{Outcome: RejectedMissing, ID: relativeTo}, nil
			}
			parentID = rel.ID()
			if !rel.IsFolder() {
				parentID = rel.Parent()
			}
		}

		parent, ok := s.Get(parentID)
		if parentID == "" || !ok || !parent.IsFolder() {
			return Result{Outcome: RejectedMissing, ID: relativeTo}, nil
		}

		id := r.uniqueID(s)
		s.insert(newFolder(NodeData{ID: id, Label: name}, parent.ID()))
		parent.ChildIDs = append(parent.ChildIDs, id)
		return Result{Outcome: Applied, ID: id}, nil
	})
}

// Rename changes only the label of id.
func (r *Repository) Rename(ctx context.Context, id, label string) (Result, error) {
	return r.mutate(ctx, "rename", func(s *Snapshot) (Result, error) {
		n, ok := s.Get(id)
		if !ok {
			return Result{Outcome: RejectedMissing, ID: id}, nil
		}
		n.Data.Label = label
		return Result{Outcome: Applied, ID: id}, nil
	})
}

// Delete removes id and splices it out of its parent's children, after gate
// approves. policy decides whether descendants go too. The root cannot be
// deleted, and a nil gate declines.
//
// The gate runs before the repository lock is taken, so a slow or
// interactive confirmation does not hold up other mutations. The node is
// resolved again once the lock is held.
func (r *Repository) Delete(ctx context.Context, id string, gate Confirmer, policy DeletePolicy) (Result, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	if res, ok := deletable(s, id); !ok {
		r.log.Debugf("delete %s: %s", id, res.Outcome)
		return res, nil
	}
	if gate == nil {
		return Result{Outcome: Declined, ID: id}, nil
	}

	approved, err := gate.Confirm(ctx, deletePrompt(s, id, policy))
	if err != nil {
		return Result{ID: id}, fmt.Errorf("tree: confirm delete: %w", err)
	}
	if !approved {
		r.log.Debugf("delete %s: declined", id)
		return Result{Outcome: Declined, ID: id}, nil
	}

	return r.mutate(ctx, "delete", func(s *Snapshot) (Result, error) {
		if res, ok := deletable(s, id); !ok {
			return res, nil
		}
		n, _ := s.Get(id)

		var doomed []string
		if policy == CascadeChildren {
			doomed = s.Descendants(id)
		}
		if policy == OrphanChildren && len(n.ChildIDs) > 0 {
			r.log.Warnf("deleting folder %s leaves %d child(ren) unreachable", id, len(n.ChildIDs))
		}

		for _, did := range append(doomed, id) {
			r.detach(s, did)
			s.remove(did)
		}
		return Result{Outcome: Applied, ID: id}, nil
	})
}

// deletable reports whether id may be deleted from s, and the rejection
// when it may not.
func deletable(s *Snapshot, id string) (Result, bool) {
	if _, ok := s.Get(id); !ok {
		return Result{Outcome: RejectedMissing, ID: id}, false
	}
	if id == s.RootID() {
		return Result{Outcome: RejectedRoot, ID: id}, false
	}
	return Result{Outcome: Applied, ID: id}, true
}

func deletePrompt(s *Snapshot, id string, policy DeletePolicy) string {
	n, _ := s.Get(id)
	if policy == CascadeChildren {
		if nested := len(s.Descendants(id)); nested > 0 {
			return fmt.Sprintf("Are you sure you want to delete %q and %d nested item(s)?", n.Data.Label, nested)
		}
	}
	return fmt.Sprintf("Are you sure you want to delete %q?", n.Data.Label)
}

// Move reparents source. The new parent is target when target is a folder,
// otherwise target's parent. A move into source's own subtree is rejected.
func (r *Repository) Move(ctx context.Context, source, target string) (Result, error) {
	return r.mutate(ctx, "move", func(s *Snapshot) (Result, error) {
		if source == target {
			return Result{Outcome: RejectedSameNode, ID: source}, nil
		}

		src, ok := s.Get(source)
		if !ok {
			return Result{Outcome: RejectedMissing, ID: source}, nil
		}
		tgt, ok := s.Get(target)
		if ok && source == s.RootID() {
			// Stray parent-less folders stop the upward walk, so the root
			// is refused by id.
			return Result{Outcome: RejectedCycle, ID: source}, nil
		}
		if !ok {
			return Result{Outcome: RejectedMissing, ID: source}, nil
		}

		newParentID := tgt.ID()
		if !tgt.IsFolder() {
			newParentID = tgt.Parent()
		}
		newParent, ok := s.Get(newParentID)
		if newParentID == "" || !ok || !newParent.IsFolder() {
			return Result{Outcome: RejectedMissing, ID: source}, nil
		}

		if s.wouldCycle(source, newParentID) {
			return Result{Outcome: RejectedCycle, ID: source}, nil
		}

		r.detach(s, source)
		src.setParent(newParentID)
		newParent.ChildIDs = append(newParent.ChildIDs, source)
		return Result{Outcome: Applied, ID: source}, nil
	})
}

// detach removes id from its current parent's child list, if any.
func (r *Repository) detach(s *Snapshot, id string) {
	n, ok := s.Get(id)
	if !ok || n.IsRoot() {
		return
	}
	if p, ok := s.Get(n.Parent()); ok {
		p.removeChild(id)
	}
}

func (r *Repository) uniqueID(s *Snapshot) string {
	for {
		id := r.ids.Next()
		if _, taken := s.Get(id); !taken && id != "" {
			return id
		}
		r.log.Warnf("id generator returned taken id %q, retrying", id)
	}
}

func (r *Repository) lookup(ctx context.Context, id string) (*Node, error) {
	n, err := r.GetNode(ctx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && id == "") {
		return nil, nil
	}
	return n, err
}

// GetContext returns the context text of id, or "" when id is unresolved.
func (r *Repository) GetContext(ctx context.Context, id string) (string, error) {
	n, err := r.lookup(ctx, id)
	if n == nil {
		return "", err
	}
	return n.Data.Context, nil
}

// GetContent returns the content text of id, or "" when id is unresolved.
func (r *Repository) GetContent(ctx context.Context, id string) (string, error) {
	n, err := r.lookup(ctx, id)
	if n == nil {
		return "", err
	}
	return n.Data.Content, nil
}

// GetContextAndContent returns context and content joined by a newline, or
// "" when id is unresolved.
func (r *Repository) GetContextAndContent(ctx context.Context, id string) (string, error) {
	n, err := r.lookup(ctx, id)
	if n == nil {
		return "", err
	}
	return n.Data.Context + "\n" + n.Data.Content, nil
}

// Text returns the text an editor should insert for id under mode.
func (r *Repository) Text(ctx context.Context, id string, mode InsertMode) (string, error) {
	switch mode {
	case InsertContent:
		return r.GetContent(ctx, id)
	case InsertContext:
		return r.GetContext(ctx, id)
	default:
		return r.GetContextAndContent(ctx, id)
	}
}

// Subscribe registers fn to run after every applied mutation. The returned
// func removes the subscription.
func (r *Repository) Subscribe(fn func()) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			defer r.subMu.Unlock()
			delete(r.subs, id)
		})
	}
}

func (r *Repository) notify() {
	r.subMu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
