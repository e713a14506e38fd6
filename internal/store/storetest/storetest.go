// Package storetest is the behaviour suite every store.Store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store"
)

// Factory returns a fresh, empty store. Implementations should register
// cleanup on t.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("AddAssignsSequentialIDs", func(t *testing.T) { testAddSequentialIDs(t, open(t)) })
	t.Run("AddTrimsText", func(t *testing.T) { testAddTrimsText(t, open(t)) })
	t.Run("AddRejectsBadPriority", func(t *testing.T) { testAddRejectsBadPriority(t, open(t)) })
	t.Run("AddRejectsBlankText", func(t *testing.T) { testAddRejectsBlankText(t, open(t)) })
	t.Run("PriorityCheckedBeforeText", func(t *testing.T) { testPriorityCheckedFirst(t, open(t)) })
	t.Run("ListOrdersByPriorityThenID", func(t *testing.T) { testListOrdering(t, open(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, open(t)) })
	t.Run("ListReturnsCopy", func(t *testing.T) { testListReturnsCopy(t, open(t)) })
	t.Run("DeleteTwice", func(t *testing.T) { testDeleteTwice(t, open(t)) })
	t.Run("DeleteUnknown", func(t *testing.T) { testDeleteUnknown(t, open(t)) })
	t.Run("IDsNeverReused", func(t *testing.T) { testIDsNeverReused(t, open(t)) })
	t.Run("MissingPriorities", func(t *testing.T) { testMissingPriorities(t, open) })
	t.Run("ConcurrentAdds", func(t *testing.T) { testConcurrentAdds(t, open(t)) })
	t.Run("Properties", func(t *testing.T) { testProperties(t, open) })
}

func count(t *testing.T, s store.Store) int {
	t.Helper()
	items, err := s.List(context.Background())
	require.NoError(t, err)
	return len(items)
}

func testAddSequentialIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		it, err := s.Add(ctx, fmt.Sprintf("task %d", want), want)
		require.NoError(t, err)
		assert.Equal(t, want, it.ID)
		assert.Equal(t, want, it.Priority)
	}
}

func testAddTrimsText(t *testing.T, s store.Store) {
	it, err := s.Add(context.Background(), "  \tbuy milk \n", 2)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", it.Text)

	items, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "buy milk", items[0].Text)
}

func testAddRejectsBadPriority(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, p := range []int{0, -1, -100} {
		_, err := s.Add(ctx, "valid text", p)
		require.Error(t, err, "priority %d", p)
		assert.True(t, store.IsValidation(err))
		assert.Equal(t, store.MsgPriorityNotPositive, err.Error())
	}
	assert.Zero(t, count(t, s))

	// Failures never advance the counter.
	it, err := s.Add(ctx, "first real item", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, it.ID)
}

func testAddRejectsBlankText(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, text := range []string{"", " ", "\t\n  "} {
		_, err := s.Add(ctx, text, 1)
		require.Error(t, err, "text %q", text)
		assert.True(t, store.IsValidation(err))
		assert.Equal(t, store.MsgTextEmpty, err.Error())
	}
	assert.Zero(t, count(t, s))
}

func testPriorityCheckedFirst(t *testing.T, s store.Store) {
	_, err := s.Add(context.Background(), "   ", 0)
	require.Error(t, err)
	assert.Equal(t, store.MsgPriorityNotPositive, err.Error())
}

func testListOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, in := range []struct {
		text string
		pri  int
	}{{"buy milk", 2}, {"write report", 1}, {"call bank", 1}} {
		_, err := s.Add(ctx, in.text, in.pri)
		require.NoError(t, err)
	}

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{
		{ID: 2, Text: "write report", Priority: 1},
		{ID: 3, Text: "call bank", Priority: 1},
		{ID: 1, Text: "buy milk", Priority: 2},
	}, items)
}

func testListEmpty(t *testing.T, s store.Store) {
	items, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func testListReturnsCopy(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Add(ctx, "kept", 1)
	require.NoError(t, err)

	items, err := s.List(ctx)
	require.NoError(t, err)
	items[0].Text = "mutated"

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", again[0].Text)
}

func testDeleteTwice(t *testing.T, s store.Store) {
	ctx := context.Background()
	it, err := s.Add(ctx, "a", 1)
	require.NoError(t, err)
	_, err = s.Add(ctx, "b", 1)
	require.NoError(t, err)
	before := count(t, s)

	ok, err := s.Delete(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, before-1, count(t, s))
}

func testDeleteUnknown(t *testing.T, s store.Store) {
	ok, err := s.Delete(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testIDsNeverReused(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.Add(ctx, "a", 1)
	require.NoError(t, err)
	b, err := s.Add(ctx, "b", 1)
	require.NoError(t, err)

	ok, err := s.Delete(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)

	c, err := s.Add(ctx, "c", 1)
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID)
	assert.Greater(t, b.ID, a.ID)
}

func testMissingPriorities(t *testing.T, open Factory) {
	tests := []struct {
		name       string
		priorities []int
		want       []int
	}{
		{name: "empty store", priorities: nil, want: []int{}},
		{name: "one and three", priorities: []int{1, 3}, want: []int{2}},
		{name: "only five", priorities: []int{5}, want: []int{1, 2, 3, 4}},
		{name: "contiguous", priorities: []int{1, 2, 3}, want: []int{}},
		{name: "duplicates", priorities: []int{4, 4, 1, 1}, want: []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			for i, p := range tt.priorities {
				_, err := s.Add(ctx, fmt.Sprintf("item %d", i), p)
				require.NoError(t, err)
			}
			got, err := s.MissingPriorities(ctx)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("shrinks after deleting the max", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		_, err := s.Add(ctx, "low", 1)
		require.NoError(t, err)
		high, err := s.Add(ctx, "high", 4)
		require.NoError(t, err)

		got, err := s.MissingPriorities(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, got)

		_, err = s.Delete(ctx, high.ID)
		require.NoError(t, err)
		got, err = s.MissingPriorities(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{}, got)
	})

	t.Run("huge priority is refused, not expanded", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		_, err := s.Add(ctx, "far away", 9_000_000_000_000_000_000)
		require.NoError(t, err)

		_, err = s.MissingPriorities(ctx)
		assert.ErrorIs(t, err, store.ErrTooManyGaps)
	})
}

func testConcurrentAdds(t *testing.T, s store.Store) {
	const n = 50
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it, err := s.Add(ctx, fmt.Sprintf("task %d", i), i%5+1)
			if assert.NoError(t, err) {
				ids <- it.ID
			}
			_, _ = s.List(ctx)
			_, _ = s.MissingPriorities(ctx)
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make([]int, 0, n)
	for id := range ids {
		seen = append(seen, id)
	}
	sort.Ints(seen)
	require.Len(t, seen, n)
	for i, id := range seen {
		assert.Equal(t, i+1, id)
	}
}

// op is one step of a generated store session.
type op struct {
	add      bool
	text     string
	priority int
	deleteAt int
}

func opGen() *rapid.Generator[op] {
	return rapid.Custom(func(t *rapid.T) op {
		if rapid.IntRange(0, 3).Draw(t, "kind") > 0 {
			return op{
				add:      true,
				text:     rapid.StringMatching(`[ ]{0,2}[a-z]{0,6}[ ]{0,2}`).Draw(t, "text"),
				priority: rapid.IntRange(-2, 12).Draw(t, "priority"),
			}
		}
		return op{deleteAt: rapid.IntRange(0, 40).Draw(t, "id")}
	})
}

func testProperties(t *testing.T, open Factory) {
	rapid.Check(t, func(rt *rapid.T) {
		s := open(t)
		ctx := context.Background()
		ops := rapid.SliceOfN(opGen(), 1, 40).Draw(rt, "ops")

		live := map[int]model.Item{}
		lastID := 0
		for _, o := range ops {
			if !o.add {
				_, existed := live[o.deleteAt]
				ok, err := s.Delete(ctx, o.deleteAt)
				if err != nil {
					rt.Fatalf("delete: %v", err)
				}
				if ok != existed {
					rt.Fatalf("delete(%d) = %v, want %v", o.deleteAt, ok, existed)
				}
				delete(live, o.deleteAt)
				continue
			}

			it, err := s.Add(ctx, o.text, o.priority)
			valid := o.priority >= 1 && store.NormalizeText(o.text) != ""
			if !valid {
				if err == nil || !store.IsValidation(err) {
					rt.Fatalf("add(%q, %d) should fail validation, got %v", o.text, o.priority, err)
				}
				continue
			}
			if err != nil {
				rt.Fatalf("add(%q, %d): %v", o.text, o.priority, err)
			}
			if it.ID <= lastID {
				rt.Fatalf("id %d not greater than previous %d", it.ID, lastID)
			}
			if it.Text != store.NormalizeText(o.text) {
				rt.Fatalf("text %q not trimmed", it.Text)
			}
			lastID = it.ID
			live[it.ID] = it
		}

		items, err := s.List(ctx)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if len(items) != len(live) {
			rt.Fatalf("list has %d items, want %d", len(items), len(live))
		}
		for i := 1; i < len(items); i++ {
			a, b := items[i-1], items[i]
			if a.Priority > b.Priority || (a.Priority == b.Priority && a.ID >= b.ID) {
				rt.Fatalf("items out of order: %+v before %+v", a, b)
			}
		}

		missing, err := s.MissingPriorities(ctx)
		if err != nil {
			rt.Fatalf("missing: %v", err)
		}
		used := map[int]bool{}
		maxP := 0
		for _, it := range live {
			used[it.Priority] = true
			if it.Priority > maxP {
				maxP = it.Priority
			}
		}
		want := []int{}
		for i := 1; i <= maxP; i++ {
			if !used[i] {
				want = append(want, i)
			}
		}
		if fmt.Sprint(missing) != fmt.Sprint(want) {
			rt.Fatalf("missing = %v, want %v", missing, want)
		}
	})
}
