package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/birthdays/internal/auth"
	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
	"github.com/manav03panchal/birthdays/internal/storage/storagetest"
)

// Helper to create an in-memory store for testing
func setupTestStore(t *testing.T, opts storage.Options) *Store {
	s, err := Open(Options{InMemory: true}, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func asUser(id string) context.Context {
	return auth.WithPrincipal(context.Background(), id)
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, opts storage.Options) (storage.Store, context.Context) {
		return setupTestStore(t, opts), asUser("alice")
	})
}

// =============================================================================
// DB Tests
// =============================================================================

func TestOpenDB(t *testing.T) {
	t.Run("in_memory", func(t *testing.T) {
		db, err := OpenDB(Options{InMemory: true})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		assert.NotNil(t, db.Badger())
		assert.NoError(t, db.Close())
	})

	t.Run("empty_path_uses_in_memory", func(t *testing.T) {
		db, err := OpenDB(Options{Path: ""})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		db.Close()
	})

	t.Run("on_disk", func(t *testing.T) {
		dir := t.TempDir()
		db, err := OpenDB(Options{Path: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, db.Path())
		db.Close()
	})

	t.Run("locked", func(t *testing.T) {
		dir := t.TempDir()
		db, err := OpenDB(Options{Path: dir})
		require.NoError(t, err)
		defer db.Close()

		_, err = Open(Options{Path: dir}, storage.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrStoreLocked)
		assert.Contains(t, apperrors.GetSuggestion(err), "daemon")
	})
}

func TestDocumentsCarryOwner(t *testing.T) {
	s := setupTestStore(t, storagetest.Options())
	ctx := asUser("alice")

	g, err := s.CreateGroup(ctx, "Family", "heart", "")
	require.NoError(t, err)

	txn := s.db.Badger().NewTransaction(false)
	defer txn.Discard()
	data, err := txn.Get([]byte(g.GetKey()))
	require.NoError(t, err)
	raw, err := data.ValueCopy(nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userId":"alice"`)
}

// =============================================================================
// Principal Tests
// =============================================================================

func TestRequiresPrincipal(t *testing.T) {
	s := setupTestStore(t, storagetest.Options())
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["CreateGroup"] = s.CreateGroup(ctx, "Family", "", "")
	_, checks["GetGroup"] = s.GetGroup(ctx, "g")
	_, checks["ListGroups"] = s.ListGroups(ctx)
	checks["DeleteGroup"] = s.DeleteGroup(ctx, "g")
	_, checks["CreateBirthday"] = s.CreateBirthday(ctx, "Alice", time.Now(), "", "g")
	_, checks["GetBirthday"] = s.GetBirthday(ctx, "b")
	_, checks["ListBirthdays"] = s.ListBirthdays(ctx, "g")
	_, checks["ListAllBirthdays"] = s.ListAllBirthdays(ctx)
	checks["DeleteBirthday"] = s.DeleteBirthday(ctx, "b")
	_, checks["WatchGroups"] = s.WatchGroups(ctx, func([]*model.Group, error) {})
	_, checks["WatchBirthdays"] = s.WatchBirthdays(ctx, "", func([]*model.Birthday, error) {})

	for op, err := range checks {
		t.Run(op, func(t *testing.T) {
			assert.True(t, apperrors.IsAuthError(err), "%s: %v", op, err)
			assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
		})
	}
}

func TestPrincipalIsolation(t *testing.T) {
	s := setupTestStore(t, storagetest.Options())
	alice, bob := asUser("alice"), asUser("bob")

	aliceGroup, err := s.CreateGroup(alice, "Alice's family", "", "")
	require.NoError(t, err)
	aliceBirthday, err := s.CreateBirthday(alice, "Mum", time.Date(1960, 5, 5, 0, 0, 0, 0, time.UTC), "", aliceGroup.ID)
	require.NoError(t, err)

	t.Run("lists_are_scoped", func(t *testing.T) {
		groups, err := s.ListGroups(bob)
		require.NoError(t, err)
		assert.Empty(t, groups)

		all, err := s.ListAllBirthdays(bob)
		require.NoError(t, err)
		assert.Empty(t, all)

		inGroup, err := s.ListBirthdays(bob, aliceGroup.ID)
		require.NoError(t, err)
		assert.Empty(t, inGroup)
	})

	t.Run("reads_are_not_found", func(t *testing.T) {
		_, err := s.GetGroup(bob, aliceGroup.ID)
		assert.True(t, apperrors.IsNotFoundError(err))
		_, err = s.GetBirthday(bob, aliceBirthday.ID)
		assert.True(t, apperrors.IsNotFoundError(err))
	})

	t.Run("create_in_foreign_group", func(t *testing.T) {
		_, err := s.CreateBirthday(bob, "Intruder", time.Now(), "", aliceGroup.ID)
		assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)
	})

	t.Run("deletes_are_auth_errors", func(t *testing.T) {
		err := s.DeleteGroup(bob, aliceGroup.ID)
		assert.True(t, apperrors.IsAuthError(err))
		assert.ErrorIs(t, err, apperrors.ErrPrincipalMismatch)

		err = s.DeleteBirthday(bob, aliceBirthday.ID)
		assert.True(t, apperrors.IsAuthError(err))
	})

	t.Run("alice_untouched", func(t *testing.T) {
		all, err := s.ListAllBirthdays(alice)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestWatchIsScoped(t *testing.T) {
	s := setupTestStore(t, storagetest.Options())
	alice, bob := asUser("alice"), asUser("bob")

	calls := make(chan int, 10)
	sub, err := s.WatchGroups(bob, func(groups []*model.Group, err error) {
		calls <- len(groups)
	})
	require.NoError(t, err)
	t.Cleanup(sub.Cancel)

	assert.Equal(t, 0, <-calls, "initial snapshot")

	_, err = s.CreateGroup(alice, "Family", "", "")
	require.NoError(t, err)

	select {
	case n := <-calls:
		t.Fatalf("bob was notified of alice's change (%d groups)", n)
	case <-time.After(50 * time.Millisecond):
	}
}

// =============================================================================
// Atomicity Tests
// =============================================================================

func TestDeleteGroupIsAtomic(t *testing.T) {
	s := setupTestStore(t, storagetest.Options())
	ctx := asUser("alice")

	g, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := s.CreateBirthday(ctx, name, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), "", g.ID)
		require.NoError(t, err)
	}

	commitErr := errors.New("write conflict")
	s.beforeCommit = func(op string) error {
		if op == "delete group" {
			return commitErr
		}
		return nil
	}

	err = s.DeleteGroup(ctx, g.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistenceError(err))
	assert.ErrorIs(t, err, commitErr)

	s.beforeCommit = nil

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	birthdays, err := s.ListBirthdays(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, birthdays, 3)
}
