package handle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corinnegroth/federate-core/handle"
)

type stubItem struct {
	id   handle.Handle
	name string
}

func (s *stubItem) ID() handle.Handle { return s.id }
func (s *stubItem) Name() string      { return s.name }

func TestRegistryNameAndHandleLookup(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	var a = &stubItem{id: 1, name: "a"}
	var b = &stubItem{id: 2, name: "b"}

	require.NoError(t, r.Insert(a))
	require.NoError(t, r.Insert(b))

	found, ok := r.ByName("a")
	require.True(t, ok)
	assert.Same(t, a, found)

	found, ok = r.ByHandle(2)
	require.True(t, ok)
	assert.Same(t, b, found)
}

func TestRegistryDuplicateName(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	require.NoError(t, r.Insert(&stubItem{id: 1, name: "a"}))
	var err = r.Insert(&stubItem{id: 2, name: "a"})
	assert.ErrorIs(t, err, handle.ErrDuplicateName)
}

func TestRegistryMissingLookup(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	_, ok := r.ByName("nope")
	assert.False(t, ok)

	_, ok = r.ByHandle(99)
	assert.False(t, ok)
}

func TestRegistryOutOfOrderInsertionStillSortsForLookup(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	require.NoError(t, r.Insert(&stubItem{id: 5, name: "five"}))
	require.NoError(t, r.Insert(&stubItem{id: 1, name: "one"}))
	require.NoError(t, r.Insert(&stubItem{id: 3, name: "three"}))

	for _, h := range []handle.Handle{1, 3, 5} {
		_, ok := r.ByHandle(h)
		assert.True(t, ok, "expected handle %d to be found", h)
	}
	_, ok := r.ByHandle(4)
	assert.False(t, ok)
}

func TestRegistryByHandleOnEmptyRegistry(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	_, ok := r.ByHandle(0)
	assert.False(t, ok)
}

func TestRegistryEachVisitsInHandleOrder(t *testing.T) {
	var r = handle.NewRegistry[stubItem]()
	require.NoError(t, r.Insert(&stubItem{id: 5, name: "five"}))
	require.NoError(t, r.Insert(&stubItem{id: 1, name: "one"}))

	var seen []handle.Handle
	r.Each(func(item *stubItem) { seen = append(seen, item.ID()) })
	assert.Equal(t, []handle.Handle{1, 5}, seen)
}
