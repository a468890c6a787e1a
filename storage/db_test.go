package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	require.NoError(t, db.Put([]byte("alpha"), []byte("one")))

	value, err := db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	ok, err := db.Has([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = db.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.Get([]byte("missing"))
	require.Error(t, err)
}

func TestMemDBBatchWrite(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	batch := new(Batch)
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Put([]byte("a"), []byte("3"))
	require.Equal(t, 3, batch.Len())

	require.NoError(t, db.Write(batch))

	value, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value, "later batch entries override earlier ones")

	value, err = db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)
}

func TestBatchCopiesInput(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	key := []byte("key")
	value := []byte("value")
	batch := new(Batch)
	batch.Put(key, value)
	value[0] = 'x'

	require.NoError(t, db.Write(batch))
	stored, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), stored)
}
