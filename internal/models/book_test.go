package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPosition(symbol string) *Position {
	return &Position{
		Symbol:    symbol,
		Quantity:  10,
		AvgPrice:  100,
		EntryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testStop(symbol string) *ActiveStop {
	return NewActiveStop(symbol, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0.05, 0.15)
}

func TestBookOpenAndClose(t *testing.T) {
	var b Book

	require.NoError(t, b.Open(RolePrimary, testPosition("BOIL"), testStop("BOIL")))
	assert.Equal(t, 1, b.OpenCount())
	assert.NotNil(t, b.Position(RolePrimary))
	assert.NotNil(t, b.Stop(RolePrimary))
	assert.Nil(t, b.Position(RoleInverse))

	closed := b.Close(RolePrimary)
	require.NotNil(t, closed)
	assert.Equal(t, "BOIL", closed.Symbol)
	assert.Equal(t, 0, b.OpenCount())
	assert.Nil(t, b.Stop(RolePrimary))
}

func TestBookMutualExclusivity(t *testing.T) {
	var b Book
	require.NoError(t, b.Open(RolePrimary, testPosition("BOIL"), testStop("BOIL")))

	// Opposing slot occupied: the pair is mutually exclusive.
	err := b.Open(RoleInverse, testPosition("KOLD"), testStop("KOLD"))
	assert.Error(t, err)
	assert.Equal(t, 1, b.OpenCount())

	// After closing, the other side may open.
	b.Close(RolePrimary)
	assert.NoError(t, b.Open(RoleInverse, testPosition("KOLD"), testStop("KOLD")))
}

func TestBookDoubleOpenSameRole(t *testing.T) {
	var b Book
	require.NoError(t, b.Open(RolePrimary, testPosition("BOIL"), testStop("BOIL")))
	assert.Error(t, b.Open(RolePrimary, testPosition("BOIL"), testStop("BOIL")))
}

func TestBookOpenRequiresStop(t *testing.T) {
	var b Book
	assert.Error(t, b.Open(RolePrimary, testPosition("BOIL"), nil))
}

func TestBookOpenValidatesPosition(t *testing.T) {
	var b Book
	bad := testPosition("BOIL")
	bad.Quantity = 0
	assert.Error(t, b.Open(RolePrimary, bad, testStop("BOIL")))
}

func TestBookCloseEmptySlot(t *testing.T) {
	var b Book
	assert.Nil(t, b.Close(RolePrimary))
}

func TestBookReset(t *testing.T) {
	var b Book
	require.NoError(t, b.Open(RoleInverse, testPosition("KOLD"), testStop("KOLD")))
	b.Reset()
	assert.Equal(t, 0, b.OpenCount())
	assert.Empty(t, b.Positions())
}

func TestRoleOther(t *testing.T) {
	assert.Equal(t, RoleInverse, RolePrimary.Other())
	assert.Equal(t, RolePrimary, RoleInverse.Other())
	assert.Equal(t, "primary", RolePrimary.String())
	assert.Equal(t, "inverse", RoleInverse.String())
}
