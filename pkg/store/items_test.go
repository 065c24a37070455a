package store

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

// priorities returns title -> priority for the unfinished items of a list.
func priorities(t *testing.T, s *Store, userID, listID int64) map[string]int {
	t.Helper()
	items, err := s.ListItems(context.Background(), userID, ItemQuery{ListID: &listID, Finished: boolPtr(false)})
	require.NoError(t, err)
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Title] = it.Priority
	}
	return out
}

// assertDense checks that the unfinished items of a list hold exactly 1..N.
func assertDense(t *testing.T, s *Store, userID, listID int64) {
	t.Helper()
	items, err := s.ListItems(context.Background(), userID, ItemQuery{ListID: &listID, Finished: boolPtr(false)})
	require.NoError(t, err)

	got := make([]int, 0, len(items))
	for _, it := range items {
		got = append(got, it.Priority)
	}
	sort.Ints(got)
	for i, p := range got {
		if p != i+1 {
			t.Fatalf("priorities of list %d are not dense: %v", listID, got)
		}
	}
}

func TestItems_GroceriesScenario(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	list, err := store.CreateList(ctx, alice.ID, NewList{Name: "Groceries"})
	require.NoError(t, err)

	milk, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: "Milk"})
	require.NoError(t, err)
	assert.Equal(t, 1, milk.Priority)

	eggs, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: "Eggs"})
	require.NoError(t, err)
	assert.Equal(t, 2, eggs.Priority, "new items go on top")

	t.Run("same slot is a no-op", func(t *testing.T) {
		_, err := store.UpdateItem(ctx, alice.ID, eggs.ID, ItemPatch{Priority: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Eggs": 2, "Milk": 1}, priorities(t, store, alice.ID, list.ID))
	})

	t.Run("drag milk to top", func(t *testing.T) {
		_, err := store.UpdateItem(ctx, alice.ID, milk.ID, ItemPatch{Priority: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Milk": 2, "Eggs": 1}, priorities(t, store, alice.ID, list.ID))
	})

	t.Run("insert in the middle", func(t *testing.T) {
		_, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: "Bread", Priority: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Milk": 3, "Bread": 2, "Eggs": 1}, priorities(t, store, alice.ID, list.ID))
	})

	t.Run("out of range targets clamp", func(t *testing.T) {
		it, err := store.UpdateItem(ctx, alice.ID, eggs.ID, ItemPatch{Priority: intPtr(99)})
		require.NoError(t, err)
		assert.Equal(t, 3, it.Priority)

		it, err = store.UpdateItem(ctx, alice.ID, eggs.ID, ItemPatch{Priority: intPtr(-4)})
		require.NoError(t, err)
		assert.Equal(t, 1, it.Priority)
		assertDense(t, store, alice.ID, list.ID)
	})
}

func TestItems_FinishAndReopen(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	list, err := store.CreateList(ctx, alice.ID, NewList{Name: "Chores"})
	require.NoError(t, err)

	ids := map[string]int64{}
	for _, title := range []string{"Dishes", "Laundry", "Vacuum"} {
		it, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: title})
		require.NoError(t, err)
		ids[title] = it.ID
	}
	require.Equal(t, map[string]int{"Vacuum": 3, "Laundry": 2, "Dishes": 1}, priorities(t, store, alice.ID, list.ID))

	done, err := store.UpdateItem(ctx, alice.ID, ids["Laundry"], ItemPatch{Finished: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, done.Finished)
	assert.Equal(t, 0, done.Priority)
	assert.Equal(t, map[string]int{"Vacuum": 2, "Dishes": 1}, priorities(t, store, alice.ID, list.ID))

	reopened, err := store.UpdateItem(ctx, alice.ID, ids["Laundry"], ItemPatch{Finished: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Priority, "reopened items re-enter at the top")
	assertDense(t, store, alice.ID, list.ID)

	t.Run("index puts finished last", func(t *testing.T) {
		_, err := store.UpdateItem(ctx, alice.ID, ids["Vacuum"], ItemPatch{Finished: boolPtr(true)})
		require.NoError(t, err)

		items, err := store.ListItems(ctx, alice.ID, ItemQuery{ListID: &list.ID})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Laundry", items[0].Title)
		assert.Equal(t, "Dishes", items[1].Title)
		assert.Equal(t, "Vacuum", items[2].Title)
	})

	t.Run("clear finished", func(t *testing.T) {
		n, err := store.DeleteItems(ctx, alice.ID, ItemQuery{ListID: &list.ID, Finished: boolPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, map[string]int{"Laundry": 2, "Dishes": 1}, priorities(t, store, alice.ID, list.ID))
	})

	t.Run("bulk delete needs a list", func(t *testing.T) {
		_, err := store.DeleteItems(ctx, alice.ID, ItemQuery{Finished: boolPtr(true)})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestItems_DeleteCompacts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	list, err := store.CreateList(ctx, alice.ID, NewList{Name: "Errands"})
	require.NoError(t, err)

	var middle *Item
	for i, title := range []string{"Bank", "Post", "Pharmacy"} {
		it, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: title})
		require.NoError(t, err)
		if i == 1 {
			middle = it
		}
	}

	require.NoError(t, store.DeleteItem(ctx, alice.ID, middle.ID))
	assert.Equal(t, map[string]int{"Pharmacy": 2, "Bank": 1}, priorities(t, store, alice.ID, list.ID))

	assert.ErrorIs(t, store.DeleteItem(ctx, alice.ID, middle.ID), ErrNotFound)
}

func TestItems_MoveBetweenLists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	bob := mustCreateUser(t, store, "bob", false)

	home, err := store.CreateList(ctx, alice.ID, NewList{Name: "Home"})
	require.NoError(t, err)
	shared, err := store.CreateList(ctx, bob.ID, NewList{Name: "Shared", Shared: true})
	require.NoError(t, err)

	a, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: home.ID, Title: "A"})
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, alice.ID, NewItem{ListID: home.ID, Title: "B"})
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, bob.ID, NewItem{ListID: shared.ID, Title: "C"})
	require.NoError(t, err)

	moved, err := store.UpdateItem(ctx, alice.ID, a.ID, ItemPatch{ListID: &shared.ID})
	require.NoError(t, err)
	assert.Equal(t, shared.ID, moved.ListID)
	assert.Equal(t, bob.ID, moved.CreateUserID, "items carry the owner of their list")
	assert.Equal(t, 2, moved.Priority)

	assert.Equal(t, map[string]int{"B": 1}, priorities(t, store, alice.ID, home.ID))
	assert.Equal(t, map[string]int{"A": 2, "C": 1}, priorities(t, store, bob.ID, shared.ID))
}

func TestItems_OwnershipIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	bob := mustCreateUser(t, store, "bob", false)

	private, err := store.CreateList(ctx, alice.ID, NewList{Name: "Private"})
	require.NoError(t, err)
	household, err := store.CreateList(ctx, alice.ID, NewList{Name: "Household", Shared: true})
	require.NoError(t, err)

	secret, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: private.ID, Title: "Gift"})
	require.NoError(t, err)

	t.Run("private items answer not found", func(t *testing.T) {
		_, err := store.GetItem(ctx, bob.ID, secret.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.UpdateItem(ctx, bob.ID, secret.ID, ItemPatch{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, store.DeleteItem(ctx, bob.ID, secret.ID), ErrNotFound)

		_, err = store.CreateItem(ctx, bob.ID, NewItem{ListID: private.ID, Title: "Spy"})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.DeleteItems(ctx, bob.ID, ItemQuery{ListID: &private.ID})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("criteria cannot widen scope", func(t *testing.T) {
		items, err := store.ListItems(ctx, bob.ID, ItemQuery{ListID: &private.ID})
		require.NoError(t, err)
		assert.Empty(t, items)

		items, err = store.ListItems(ctx, bob.ID, ItemQuery{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("shared list items are writable by anyone", func(t *testing.T) {
		it, err := store.CreateItem(ctx, bob.ID, NewItem{ListID: household.ID, Title: "Soap"})
		require.NoError(t, err)
		assert.Equal(t, alice.ID, it.CreateUserID)
		assert.Equal(t, bob.ID, it.ModifyUserID)

		it, err = store.UpdateItem(ctx, bob.ID, it.ID, ItemPatch{Title: strPtr("Hand soap")})
		require.NoError(t, err)
		assert.Equal(t, "Hand soap", it.Title)

		items, err := store.ListItems(ctx, bob.ID, ItemQuery{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, household.ID, items[0].ListID)
	})

	t.Run("cannot move into an invisible list", func(t *testing.T) {
		items, err := store.ListItems(ctx, bob.ID, ItemQuery{ListID: &household.ID})
		require.NoError(t, err)
		require.NotEmpty(t, items)

		_, err = store.UpdateItem(ctx, bob.ID, items[0].ID, ItemPatch{ListID: int64Ptr(private.ID)})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestItems_ConflictRepair(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	list, err := store.CreateList(ctx, alice.ID, NewList{Name: "Groceries"})
	require.NoError(t, err)

	milk, err := store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: "Milk"})
	require.NoError(t, err)
	_, err = store.CreateItem(ctx, alice.ID, NewItem{ListID: list.ID, Title: "Eggs"})
	require.NoError(t, err)

	// Simulate a duplicate left behind by an older writer.
	_, err = store.DB().Exec("UPDATE todo_items SET priority = 1 WHERE list_id = ?", list.ID)
	require.NoError(t, err)

	_, err = store.UpdateItem(ctx, alice.ID, milk.ID, ItemPatch{Title: strPtr("Oat milk")})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Eggs": 2, "Oat milk": 1}, priorities(t, store, alice.ID, list.ID))
}

func TestItems_OrderingInvariant(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice", true)
	lists := make([]int64, 2)
	for i := range lists {
		l, err := store.CreateList(ctx, alice.ID, NewList{Name: "L"})
		require.NoError(t, err)
		lists[i] = l.ID
	}

	rng := rand.New(rand.NewSource(42))
	var ids []int64

	for step := 0; step < 200; step++ {
		switch op := rng.Intn(6); {
		case op == 0 || len(ids) == 0:
			in := NewItem{ListID: lists[rng.Intn(len(lists))], Title: "item"}
			if rng.Intn(2) == 0 {
				in.Priority = intPtr(rng.Intn(8) - 1)
			}
			it, err := store.CreateItem(ctx, alice.ID, in)
			require.NoError(t, err)
			ids = append(ids, it.ID)
		case op == 1:
			idx := rng.Intn(len(ids))
			require.NoError(t, store.DeleteItem(ctx, alice.ID, ids[idx]))
			ids = append(ids[:idx], ids[idx+1:]...)
		case op == 2:
			_, err := store.UpdateItem(ctx, alice.ID, ids[rng.Intn(len(ids))], ItemPatch{Finished: boolPtr(rng.Intn(2) == 0)})
			require.NoError(t, err)
		case op == 3:
			_, err := store.UpdateItem(ctx, alice.ID, ids[rng.Intn(len(ids))], ItemPatch{ListID: &lists[rng.Intn(len(lists))]})
			require.NoError(t, err)
		default:
			_, err := store.UpdateItem(ctx, alice.ID, ids[rng.Intn(len(ids))], ItemPatch{Priority: intPtr(rng.Intn(10) - 2)})
			require.NoError(t, err)
		}

		for _, l := range lists {
			assertDense(t, store, alice.ID, l)
		}
	}
}

func strPtr(v string) *string { return &v }
