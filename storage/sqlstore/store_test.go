package sqlstore

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"activityrewards/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get([]byte("missing"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put([]byte("slot/b"), []byte("two")))
	require.NoError(t, store.Put([]byte("slot/a"), []byte("one")))
	require.NoError(t, store.Put([]byte("slou"), []byte("outside")))

	value, err := store.Get([]byte("slot/a"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	require.NoError(t, store.Put([]byte("slot/a"), []byte("uno")))
	value, err = store.Get([]byte("slot/a"))
	require.NoError(t, err)
	require.Equal(t, []byte("uno"), value)

	var keys []string
	require.NoError(t, store.Iterate([]byte("slot/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	require.Equal(t, []string{"slot/a", "slot/b"}, keys)

	ok, err := store.Has([]byte("slot/b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Delete([]byte("slot/b")))
	ok, err = store.Has([]byte("slot/b"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenValidation(t *testing.T) {
	_, err := Open(DriverSQLite, "  ")
	require.ErrorIs(t, err, ErrDSNRequired)
	_, err = Open("mysql", "dsn")
	require.Error(t, err)
}

func TestPrefixEnd(t *testing.T) {
	require.Equal(t, []byte("slou"), prefixEnd([]byte("slot")))
	require.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	require.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}
