package transcript

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserchat/internal/protocol"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func TestStoreAppendAssignsMonotonicIDs(t *testing.T) {
	store := NewStore(WithClock(fixedClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))))
	first := store.Append(Message{Role: RoleUser, Kind: KindPlain, Text: "one", ID: 99})
	second := store.Append(Message{Role: RoleAgent, Kind: KindStatus, Text: "two"})

	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.Equal(t, 2, store.Len())
}

func TestStoreAllPreservesAppendOrder(t *testing.T) {
	store := NewStore()
	for _, text := range []string{"a", "b", "c"} {
		store.Append(Message{Role: RoleAgent, Kind: KindPlain, Text: text})
	}
	all := store.All()
	require.Len(t, all, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, all[i].Text)
		assert.Equal(t, uint64(i+1), all[i].ID)
	}
}

func TestStoreMessagesAreImmutable(t *testing.T) {
	store := NewStore()
	list := &protocol.ProductList{Items: []protocol.Product{{Name: "orig"}}, TotalFound: 1}
	appended := store.Append(Message{Role: RoleAgent, Kind: KindProducts, Products: list})

	list.Items[0].Name = "mutated source"
	appended.Products.Items[0].Name = "mutated return"
	appended.Text = "mutated text"

	all := store.All()
	all[0].Products.Items[0].Name = "mutated read"

	got, ok := store.Get(appended.ID)
	require.True(t, ok)
	assert.Equal(t, "orig", got.Products.Items[0].Name)
	assert.Empty(t, got.Text)
}

func TestStoreGet(t *testing.T) {
	store := NewStore()
	store.Append(Message{Text: "x"})
	msg := store.Append(Message{Text: "y"})

	got, ok := store.Get(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "y", got.Text)

	_, ok = store.Get(42)
	assert.False(t, ok)
}

func TestStoreConcurrentAppendsStayUnique(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append(Message{Role: RoleAgent, Kind: KindPlain})
		}()
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for _, msg := range store.All() {
		assert.False(t, seen[msg.ID], "duplicate id %d", msg.ID)
		seen[msg.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestMessageTimestamp(t *testing.T) {
	assert.Equal(t, "--:--:--", Message{}.Timestamp())
	at := time.Date(2025, 1, 2, 13, 14, 15, 0, time.Local)
	assert.Equal(t, "13:14:15", Message{CreatedAt: at}.Timestamp())
}
