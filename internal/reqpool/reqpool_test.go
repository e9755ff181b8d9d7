package reqpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableRequiresPowerOfTwo(t *testing.T) {
	_, err := NewTable(100, 0)
	require.Error(t, err)

	tbl, err := NewTable(128, 0)
	require.NoError(t, err)
	assert.Equal(t, 128, tbl.Size())
}

func TestAllocXIDStridesAndSkipsZero(t *testing.T) {
	tbl, err := NewTable(16, 0)
	require.NoError(t, err)

	first := tbl.AllocXID()
	second := tbl.AllocXID()
	assert.Equal(t, uint32(11), first)
	assert.Equal(t, uint32(22), second)
}

func TestAllocXIDSkipsZeroWrap(t *testing.T) {
	tbl, err := NewTable(16, 0xFFFFFFFF-10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		xid := tbl.AllocXID()
		assert.NotZero(t, xid)
	}
}

func TestInsertAndTake(t *testing.T) {
	tbl, err := NewTable(16, 0)
	require.NoError(t, err)

	slot := &Slot{XID: 11}
	require.NoError(t, tbl.Insert(slot))
	assert.Equal(t, 1, tbl.Len())

	got, ok := tbl.Take(11)
	require.True(t, ok)
	assert.Same(t, slot, got)
	assert.Equal(t, 0, tbl.Len())
}

func TestInsertCollisionReturnsTableFull(t *testing.T) {
	tbl, err := NewTable(16, 0)
	require.NoError(t, err)

	require.NoError(t, tbl.Insert(&Slot{XID: 1}))
	err = tbl.Insert(&Slot{XID: 17}) // collides: 1&15 == 17&15
	require.ErrorIs(t, err, ErrTableFull)
}

func TestTakeMissingOrStaleXID(t *testing.T) {
	tbl, err := NewTable(16, 0)
	require.NoError(t, err)

	_, ok := tbl.Take(42)
	assert.False(t, ok)

	require.NoError(t, tbl.Insert(&Slot{XID: 1}))
	_, ok = tbl.Take(17) // same index, different XID
	assert.False(t, ok)
}

func TestTakeAtDrainsRegardlessOfXID(t *testing.T) {
	tbl, err := NewTable(16, 0)
	require.NoError(t, err)

	require.NoError(t, tbl.Insert(&Slot{XID: 5}))

	slot, xid, ok := tbl.TakeAt(5)
	require.True(t, ok)
	assert.Equal(t, uint32(5), xid)
	assert.NotNil(t, slot)
	assert.Equal(t, 0, tbl.Len())

	_, _, ok = tbl.TakeAt(5)
	assert.False(t, ok)
}

func TestArenaGetPutRoundTrip(t *testing.T) {
	a := NewArena(512 << 10)
	buf := a.Get()
	assert.Len(t, buf, 512<<10)
	a.Put(buf)

	buf2 := a.Get()
	assert.Len(t, buf2, 512<<10)
}

func TestArenaEnforcesMinimum(t *testing.T) {
	a := NewArena(1024)
	buf := a.Get()
	assert.Len(t, buf, MinBufferSize)
}
