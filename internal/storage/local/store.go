package local

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/event"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
)

// Store is the local entity store. Records carry no owner.
type Store struct {
	db   *gorm.DB
	opts storage.Options
	bus  *event.Bus
}

var (
	_ storage.Store     = (*Store)(nil)
	_ storage.Versioned = (*Store)(nil)
)

// Open opens the SQLite database at path and wraps it in a Store.
func Open(path string, opts storage.Options) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, apperrors.NewPersistenceError("open local store", err)
	}
	logging.DebugLog("local store opened", logging.KeyBackend, "local", "path", path)
	return New(db, opts), nil
}

// New wraps an already migrated database.
func New(db *gorm.DB, opts storage.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{db: db, opts: opts, bus: opts.Bus}
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Bus returns the bus the store publishes on.
func (s *Store) Bus() *event.Bus {
	return s.bus
}

// Close closes the bus and the database.
func (s *Store) Close() error {
	s.bus.Close()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DataVersion returns SQLite's data_version for the store's connection. It
// moves when another connection, usually another process, commits.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.WithContext(ctx).Raw("PRAGMA data_version").Scan(&v).Error; err != nil {
		return 0, apperrors.NewPersistenceError("read data version", err)
	}
	return v, nil
}

func (s *Store) publish(topics ...event.Topic) {
	at := s.opts.Now()
	for _, t := range topics {
		s.bus.Publish(event.Event{Topic: t, At: at})
	}
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(entity, id)
	}
	return err
}

// =============================================================================
// Groups
// =============================================================================

// CreateGroup stores a new group.
func (s *Store) CreateGroup(ctx context.Context, name, icon, color string) (*model.Group, error) {
	g, err := s.opts.PrepareGroup("", name, icon, color)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, apperrors.NewPersistenceError("create group", err)
	}

	logging.DebugContext(ctx, "group created", logging.KeyGroupID, g.ID)
	s.publish(event.TopicGroups)
	return g, nil
}

// GetGroup returns a group by id.
func (s *Store) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	if err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, apperrors.NewPersistenceError("get group", notFound(err, "group", id))
	}
	return &g, nil
}

// ListGroups returns every group in creation order.
func (s *Store) ListGroups(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&groups).Error; err != nil {
		return nil, apperrors.NewPersistenceError("list groups", err)
	}
	storage.SortGroups(groups)
	return groups, nil
}

// DeleteGroup removes the group and its birthdays in one transaction.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g model.Group
		if err := tx.First(&g, "id = ?", id).Error; err != nil {
			return notFound(err, "group", id)
		}

		res := tx.Where("group_id = ?", id).Delete(&model.Birthday{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Delete(&model.Group{}, "id = ?", id).Error
	})
	if err != nil {
		return apperrors.NewPersistenceError("delete group", err)
	}

	logging.DebugContext(ctx, "group deleted", logging.KeyGroupID, id, logging.KeyCount, removed)
	s.publish(event.TopicGroups, event.TopicBirthdays)
	return nil
}

// =============================================================================
// Birthdays
// =============================================================================

// CreateBirthday stores a birthday in an existing group.
func (s *Store) CreateBirthday(ctx context.Context, name string, date time.Time, comment, groupID string) (*model.Birthday, error) {
	b, err := s.opts.PrepareBirthday("", name, date, comment, groupID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Group{}).Where("id = ?", b.GroupID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NewNotFoundError("group", b.GroupID)
		}
		return tx.Create(b).Error
	})
	if err != nil {
		return nil, apperrors.NewPersistenceError("create birthday", err)
	}

	logging.DebugContext(ctx, "birthday created", logging.KeyBirthdayID, b.ID, logging.KeyGroupID, b.GroupID)
	s.publish(event.TopicBirthdays)
	return b, nil
}

// GetBirthday returns a birthday by id.
func (s *Store) GetBirthday(ctx context.Context, id string) (*model.Birthday, error) {
	var b model.Birthday
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, apperrors.NewPersistenceError("get birthday", notFound(err, "birthday", id))
	}
	return &b, nil
}

// ListBirthdays returns the birthdays of one group ordered by date.
func (s *Store) ListBirthdays(ctx context.Context, groupID string) ([]*model.Birthday, error) {
	if groupID == "" {
		return nil, apperrors.NewValidationError("groupId", apperrors.ErrGroupRequired, "")
	}
	return s.listBirthdays(ctx, groupID)
}

// ListAllBirthdays returns every birthday ordered by date.
func (s *Store) ListAllBirthdays(ctx context.Context) ([]*model.Birthday, error) {
	return s.listBirthdays(ctx, "")
}

func (s *Store) listBirthdays(ctx context.Context, groupID string) ([]*model.Birthday, error) {
	q := s.db.WithContext(ctx).Order("date, created_at, id")
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	var birthdays []*model.Birthday
	if err := q.Find(&birthdays).Error; err != nil {
		return nil, apperrors.NewPersistenceError("list birthdays", err)
	}
	storage.SortBirthdays(birthdays)
	return birthdays, nil
}

// DeleteBirthday removes one birthday.
func (s *Store) DeleteBirthday(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Birthday{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.NewPersistenceError("delete birthday", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("birthday", id)
	}

	logging.DebugContext(ctx, "birthday deleted", logging.KeyBirthdayID, id)
	s.publish(event.TopicBirthdays)
	return nil
}

// =============================================================================
// Watches
// =============================================================================

// WatchGroups streams every group.
func (s *Store) WatchGroups(ctx context.Context, fn storage.GroupsHandler) (*event.Subscription, error) {
	return storage.Watch(ctx, s.bus, "", []event.Topic{event.TopicGroups}, s.ListGroups, fn), nil
}

// WatchBirthdays streams the birthdays of groupID, or all of them when
// groupID is "".
func (s *Store) WatchBirthdays(ctx context.Context, groupID string, fn storage.BirthdaysHandler) (*event.Subscription, error) {
	return storage.Watch(ctx, s.bus, "", []event.Topic{event.TopicBirthdays},
		func(ctx context.Context) ([]*model.Birthday, error) { return s.listBirthdays(ctx, groupID) },
		fn), nil
}
