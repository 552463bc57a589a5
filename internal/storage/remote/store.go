package remote

import (
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/birthdays/internal/auth"
	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/event"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
)

const (
	groupPrefix    = model.PrefixGroup + ":"
	birthdayPrefix = model.PrefixBirthday + ":"
)

// Store is the remote entity store.
type Store struct {
	db   *DB
	opts storage.Options
	bus  *event.Bus

	// beforeCommit runs at the end of every write transaction; an error
	// aborts the transaction.
	beforeCommit func(op string) error
}

var _ storage.Store = (*Store)(nil)

// Open opens the document store described by dbOpts.
func Open(dbOpts Options, opts storage.Options) (*Store, error) {
	db, err := OpenDB(dbOpts)
	if err != nil {
		return nil, apperrors.NewPersistenceError("open remote store", err)
	}
	return New(db, opts), nil
}

// New wraps an open database.
func New(db *DB, opts storage.Options) *Store {
	opts = opts.WithDefaults()
	logging.DebugLog("remote store opened", logging.KeyBackend, "remote", "path", db.Path())
	return &Store{db: db, opts: opts, bus: opts.Bus}
}

// Bus returns the bus the store publishes on.
func (s *Store) Bus() *event.Bus {
	return s.bus
}

// Close closes the bus and the database.
func (s *Store) Close() error {
	s.bus.Close()
	return s.db.Close()
}

func (s *Store) update(op string, fn func(txn *badger.Txn) error) error {
	err := s.db.db.Update(func(txn *badger.Txn) error {
		if err := fn(txn); err != nil {
			return err
		}
		if s.beforeCommit != nil {
			return s.beforeCommit(op)
		}
		return nil
	})
	return apperrors.NewPersistenceError(op, err)
}

func (s *Store) view(op string, fn func(txn *badger.Txn) error) error {
	return apperrors.NewPersistenceError(op, s.db.db.View(fn))
}

func (s *Store) publish(owner string, topics ...event.Topic) {
	at := s.opts.Now()
	for _, t := range topics {
		s.bus.Publish(event.Event{Topic: t, OwnerID: owner, At: at})
	}
}

// =============================================================================
// Groups
// =============================================================================

// CreateGroup stores a new group owned by the caller.
func (s *Store) CreateGroup(ctx context.Context, name, icon, color string) (*model.Group, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.opts.PrepareGroup(owner, name, icon, color)
	if err != nil {
		return nil, err
	}

	if err := s.update("create group", func(txn *badger.Txn) error {
		return setDoc(txn, g)
	}); err != nil {
		return nil, err
	}

	logging.DebugContext(ctx, "group created", logging.KeyGroupID, g.ID, logging.KeyOwner, owner)
	s.publish(owner, event.TopicGroups)
	return g, nil
}

// GetGroup returns one of the caller's groups. Other principals' groups
// are reported as not found.
func (s *Store) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	var g *model.Group
	err = s.view("get group", func(txn *badger.Txn) error {
		var err error
		g, err = ownedGroup(txn, owner, id)
		return err
	})
	return g, err
}

// ListGroups returns the caller's groups in creation order.
func (s *Store) ListGroups(ctx context.Context) ([]*model.Group, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.listGroups(owner)
}

func (s *Store) listGroups(owner string) ([]*model.Group, error) {
	var groups []*model.Group
	err := s.view("list groups", func(txn *badger.Txn) error {
		var err error
		groups, err = scanPrefix(txn, groupPrefix, newGroup, func(g *model.Group) bool {
			return g.OwnerID == owner
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	storage.SortGroups(groups)
	return groups, nil
}

// DeleteGroup removes the group and its birthdays in one transaction.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return err
	}

	var removed int
	err = s.update("delete group", func(txn *badger.Txn) error {
		g := newGroup()
		if err := getDoc(txn, model.GenerateGroupKey(id), g); err != nil {
			if IsErrKeyNotFound(err) {
				return apperrors.NewNotFoundError("group", id)
			}
			return err
		}
		if g.OwnerID != owner {
			return apperrors.NewAuthError(apperrors.ErrPrincipalMismatch)
		}

		birthdays, err := scanPrefix(txn, birthdayPrefix, newBirthday, func(b *model.Birthday) bool {
			return b.GroupID == id
		})
		if err != nil {
			return err
		}
		for _, b := range birthdays {
			if err := txn.Delete([]byte(b.GetKey())); err != nil {
				return err
			}
		}
		removed = len(birthdays)
		return txn.Delete([]byte(g.GetKey()))
	})
	if err != nil {
		return err
	}

	logging.DebugContext(ctx, "group deleted", logging.KeyGroupID, id, logging.KeyCount, removed)
	s.publish(owner, event.TopicGroups, event.TopicBirthdays)
	return nil
}

func ownedGroup(txn *badger.Txn, owner, id string) (*model.Group, error) {
	g := newGroup()
	if err := getDoc(txn, model.GenerateGroupKey(id), g); err != nil {
		if IsErrKeyNotFound(err) {
			return nil, apperrors.NewNotFoundError("group", id)
		}
		return nil, err
	}
	if g.OwnerID != owner {
		return nil, apperrors.NewNotFoundError("group", id)
	}
	return g, nil
}

// =============================================================================
// Birthdays
// =============================================================================

// CreateBirthday stores a birthday in one of the caller's groups.
func (s *Store) CreateBirthday(ctx context.Context, name string, date time.Time, comment, groupID string) (*model.Birthday, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.opts.PrepareBirthday(owner, name, date, comment, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.update("create birthday", func(txn *badger.Txn) error {
		if _, err := ownedGroup(txn, owner, b.GroupID); err != nil {
			return err
		}
		return setDoc(txn, b)
	}); err != nil {
		return nil, err
	}

	logging.DebugContext(ctx, "birthday created", logging.KeyBirthdayID, b.ID, logging.KeyGroupID, b.GroupID)
	s.publish(owner, event.TopicBirthdays)
	return b, nil
}

// GetBirthday returns one of the caller's birthdays.
func (s *Store) GetBirthday(ctx context.Context, id string) (*model.Birthday, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	b := newBirthday()
	err = s.view("get birthday", func(txn *badger.Txn) error {
		if err := getDoc(txn, model.GenerateBirthdayKey(id), b); err != nil {
			if IsErrKeyNotFound(err) {
				return apperrors.NewNotFoundError("birthday", id)
			}
			return err
		}
		if b.OwnerID != owner {
			return apperrors.NewNotFoundError("birthday", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBirthdays returns the caller's birthdays in groupID, ordered by date.
func (s *Store) ListBirthdays(ctx context.Context, groupID string) ([]*model.Birthday, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, apperrors.NewValidationError("groupId", apperrors.ErrGroupRequired, "")
	}
	return s.listBirthdays(owner, groupID)
}

// ListAllBirthdays returns all of the caller's birthdays, ordered by date.
func (s *Store) ListAllBirthdays(ctx context.Context) ([]*model.Birthday, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.listBirthdays(owner, "")
}

func (s *Store) listBirthdays(owner, groupID string) ([]*model.Birthday, error) {
	var birthdays []*model.Birthday
	err := s.view("list birthdays", func(txn *badger.Txn) error {
		var err error
		birthdays, err = scanPrefix(txn, birthdayPrefix, newBirthday, func(b *model.Birthday) bool {
			return b.OwnerID == owner && (groupID == "" || b.GroupID == groupID)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	storage.SortBirthdays(birthdays)
	return birthdays, nil
}

// DeleteBirthday removes one of the caller's birthdays.
func (s *Store) DeleteBirthday(ctx context.Context, id string) error {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return err
	}

	err = s.update("delete birthday", func(txn *badger.Txn) error {
		b := newBirthday()
		if err := getDoc(txn, model.GenerateBirthdayKey(id), b); err != nil {
			if IsErrKeyNotFound(err) {
				return apperrors.NewNotFoundError("birthday", id)
			}
			return err
		}
		if b.OwnerID != owner {
			return apperrors.NewAuthError(apperrors.ErrPrincipalMismatch)
		}
		return txn.Delete([]byte(b.GetKey()))
	})
	if err != nil {
		return err
	}

	logging.DebugContext(ctx, "birthday deleted", logging.KeyBirthdayID, id)
	s.publish(owner, event.TopicBirthdays)
	return nil
}

// =============================================================================
// Watches
// =============================================================================

// WatchGroups streams the caller's groups.
func (s *Store) WatchGroups(ctx context.Context, fn storage.GroupsHandler) (*event.Subscription, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return storage.Watch(ctx, s.bus, owner, []event.Topic{event.TopicGroups},
		func(context.Context) ([]*model.Group, error) { return s.listGroups(owner) },
		fn), nil
}

// WatchBirthdays streams the caller's birthdays in groupID, or all of them
// when groupID is "".
func (s *Store) WatchBirthdays(ctx context.Context, groupID string, fn storage.BirthdaysHandler) (*event.Subscription, error) {
	owner, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return storage.Watch(ctx, s.bus, owner, []event.Topic{event.TopicBirthdays},
		func(context.Context) ([]*model.Birthday, error) { return s.listBirthdays(owner, groupID) },
		fn), nil
}
