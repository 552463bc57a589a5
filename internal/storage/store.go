// Package storage defines the entity store shared by the local and remote
// backends: the Store interface, record preparation, canonical ordering and
// change watching.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/event"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/validate"
)

// GroupsHandler receives the full group collection on every change.
type GroupsHandler func(groups []*model.Group, err error)

// BirthdaysHandler receives the full birthday collection on every change.
type BirthdaysHandler func(birthdays []*model.Birthday, err error)

// Store persists groups and birthdays. In the remote backend every call is
// scoped to the principal carried by ctx (see auth.WithPrincipal).
type Store interface {
	CreateGroup(ctx context.Context, name, icon, color string) (*model.Group, error)
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
	// DeleteGroup removes the group and all of its birthdays atomically.
	DeleteGroup(ctx context.Context, id string) error

	CreateBirthday(ctx context.Context, name string, date time.Time, comment, groupID string) (*model.Birthday, error)
	GetBirthday(ctx context.Context, id string) (*model.Birthday, error)
	ListBirthdays(ctx context.Context, groupID string) ([]*model.Birthday, error)
	ListAllBirthdays(ctx context.Context) ([]*model.Birthday, error)
	DeleteBirthday(ctx context.Context, id string) error

	// WatchGroups calls fn with the current groups now and after every
	// change until ctx is done or the subscription is cancelled.
	WatchGroups(ctx context.Context, fn GroupsHandler) (*event.Subscription, error)
	// WatchBirthdays is WatchGroups for the birthdays of one group, or of
	// every group when groupID is "".
	WatchBirthdays(ctx context.Context, groupID string, fn BirthdaysHandler) (*event.Subscription, error)

	Close() error
}

// Versioned is implemented by stores that other processes can write to
// while this one has them open. DataVersion changes after every commit made
// through another connection.
type Versioned interface {
	DataVersion(ctx context.Context) (int64, error)
}

// Options configures behavior common to both backends.
type Options struct {
	// EmptyName decides what happens to birthdays without a name.
	EmptyName validate.EmptyNamePolicy
	// DefaultName replaces empty names under validate.EmptyNameDefault.
	DefaultName string
	// Now is the clock used for timestamps.
	Now func() time.Time
	// NewID generates record identifiers.
	NewID func() string
	// Bus receives change events. A new bus is created when nil.
	Bus *event.Bus
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.EmptyName == "" {
		o.EmptyName = validate.EmptyNameReject
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Bus == nil {
		o.Bus = event.NewBus()
	}
	return o
}

// PrepareGroup validates input and builds a new group owned by owner.
func (o Options) PrepareGroup(owner, name, icon, color string) (*model.Group, error) {
	name, err := validate.GroupName(name)
	if err != nil {
		return nil, err
	}
	icon, err = validate.Icon(icon)
	if err != nil {
		return nil, err
	}
	color, err = validate.Color(color)
	if err != nil {
		return nil, err
	}

	now := o.Now().UTC()
	return &model.Group{
		ID:        o.NewID(),
		Name:      name,
		Icon:      icon,
		Color:     color,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PrepareBirthday validates input and builds a new birthday owned by owner.
// The group reference is only checked for presence here; resolving it is
// the backend's job.
func (o Options) PrepareBirthday(owner, name string, date time.Time, comment, groupID string) (*model.Birthday, error) {
	name, err := validate.BirthdayName(name, o.EmptyName, o.DefaultName)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, apperrors.NewValidationError("date", apperrors.ErrInvalidDate, "")
	}
	comment, err = validate.Comment(comment)
	if err != nil {
		return nil, err
	}
	groupID, err = validate.GroupID(groupID)
	if err != nil {
		return nil, err
	}

	now := o.Now().UTC()
	return &model.Birthday{
		ID:        o.NewID(),
		Name:      name,
		Date:      model.CivilDate(date),
		Comment:   comment,
		GroupID:   groupID,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
