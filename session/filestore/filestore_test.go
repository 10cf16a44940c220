package filestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masterfulhomes/dashwise-go/session"
	"github.com/masterfulhomes/dashwise-go/session/filestore"
)

func TestWriteReadClearRoundtrip(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	record := &session.Record{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Role:         "finance",
		User:         &session.UserProfile{ID: "user-1", Username: "pmartin", Role: "finance"},
	}
	require.NoError(t, store.Write(record))

	read, err := store.Read()
	require.NoError(t, err)
	require.Equal(t, record, read)

	require.NoError(t, store.Clear())
	read, err = store.Read()
	require.NoError(t, err)
	require.Nil(t, read)
}

func TestReadMissingFile(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	read, err := store.Read()
	require.NoError(t, err)
	require.Nil(t, read)
}

func TestClearIsIdempotent(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestWriteReplacesPreviousRecord(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Write(&session.Record{AccessToken: "a1", RefreshToken: "r1", Role: "admin"}))
	require.NoError(t, store.Write(&session.Record{AccessToken: "a2", RefreshToken: "r2", Role: "admin"}))

	read, err := store.Read()
	require.NoError(t, err)
	require.Equal(t, "a2", read.AccessToken)
	require.Equal(t, "r2", read.RefreshToken)
}
