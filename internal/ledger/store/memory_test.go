package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryCreate(t *testing.T) {
	t.Run("AssignsDenseSequentialIdentifiers", func(t *testing.T) {
		m := NewMemory()

		for i, name := range []string{"Lemon", "Mango", "Peach"} {
			p, err := m.Create(name, 1, testTime)
			require.NoError(t, err)
			require.Equal(t, i, p.ID)
		}
		require.Equal(t, 3, m.Len())
	})

	t.Run("KeepsBothIndicesOnTheSameRecord", func(t *testing.T) {
		m := NewMemory()

		created, err := m.Create("Lemon", 5, testTime)
		require.NoError(t, err)

		byID, err := m.GetByID(created.ID)
		require.NoError(t, err)
		byName, err := m.GetByName("Lemon")
		require.NoError(t, err)
		require.Equal(t, byID, byName)

		_, err = m.Update(created.ID, func(p *model.Product) { p.Quantity = 9 })
		require.NoError(t, err)

		byID, err = m.GetByID(created.ID)
		require.NoError(t, err)
		byName, err = m.GetByName("Lemon")
		require.NoError(t, err)
		require.Equal(t, int64(9), byID.Quantity)
		require.Equal(t, int64(9), byName.Quantity)
	})

	t.Run("RejectsDuplicateName", func(t *testing.T) {
		m := NewMemory()

		_, err := m.Create("Lemon", 5, testTime)
		require.NoError(t, err)
		_, err = m.Create("Lemon", 5, testTime)
		require.ErrorIs(t, err, ErrNameTaken)
		require.Equal(t, 1, m.Len())
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		m := NewMemory()

		_, err := m.Create("", 5, testTime)
		require.ErrorIs(t, err, ledger.ErrInvalidName)
	})
}

func TestMemoryLookups(t *testing.T) {
	t.Run("OutOfRangeIDIsNotFound", func(t *testing.T) {
		m := NewMemory()
		_, err := m.Create("Lemon", 5, testTime)
		require.NoError(t, err)

		for _, id := range []int{-1, 1, 99} {
			_, err := m.GetByID(id)
			require.ErrorIs(t, err, ledger.ErrProductNotFound)
		}
	})

	t.Run("EmptyNameMeansDoesNotExist", func(t *testing.T) {
		m := NewMemory()
		_, err := m.GetByName("")
		require.ErrorIs(t, err, ledger.ErrProductNotFound)
	})

	t.Run("ReadsReturnIsolatedCopies", func(t *testing.T) {
		m := NewMemory()
		created, err := m.Create("Lemon", 5, testTime)
		require.NoError(t, err)

		p, err := m.GetByID(created.ID)
		require.NoError(t, err)
		p.Quantity = 999
		p.Buyers = append(p.Buyers, "mallory")
		p.PurchasedAt["mallory"] = testTime

		fresh, err := m.GetByID(created.ID)
		require.NoError(t, err)
		require.Equal(t, int64(5), fresh.Quantity)
		require.Empty(t, fresh.Buyers)
		require.Empty(t, fresh.PurchasedAt)
	})
}

func TestMemoryListAvailable(t *testing.T) {
	m := NewMemory()

	_, err := m.Create("Lemon", 0, testTime)
	require.NoError(t, err)
	_, err = m.Create("Mango", 2, testTime)
	require.NoError(t, err)
	_, err = m.Create("Peach", 1, testTime)
	require.NoError(t, err)

	names, err := m.ListAvailable()
	require.NoError(t, err)
	require.Equal(t, []string{"Mango", "Peach"}, names)

	// Lemon stays addressable even while hidden.
	p, err := m.GetByName("Lemon")
	require.NoError(t, err)
	require.Equal(t, 0, p.ID)
}
