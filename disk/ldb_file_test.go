package disk

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestOpenLdbFile_Should_Keep_File_Identity_When_Reopened(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.RemoveAll(dbName)

	f, created, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	assert.True(t, created)

	fileID := f.ID()
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, created, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	defer f2.Close()

	assert.False(t, created)
	assert.Equal(t, fileID, f2.ID())
	assert.Equal(t, pid, f2.LastPageID())
}

func TestLdbFile_Should_Serve_The_Page_File_Contract(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.RemoveAll(dbName)

	f, _, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	defer f.Close()

	pid, err := f.AllocatePage()
	require.NoError(t, err)

	// fresh page reads as zeroes
	data := make([]byte, PageSize)
	require.NoError(t, f.ReadPage(pid, data))
	assert.Equal(t, make([]byte, PageSize), data)

	want := bytes.Repeat([]byte{0x7E}, PageSize)
	require.NoError(t, f.WritePage(pid, want))
	require.NoError(t, f.ReadPage(pid, data))
	assert.Equal(t, want, data)

	// unknown pages are rejected the same way the os backed file does it
	assert.ErrorIs(t, f.ReadPage(pid+1, data), ErrPageNotFound)
	assert.ErrorIs(t, f.WritePage(pid+1, data), ErrPageNotFound)

	require.NoError(t, f.DeletePage(pid))
	require.NoError(t, f.DeletePage(pid))
	assert.ErrorIs(t, f.ReadPage(pid, data), ErrPageNotFound)
	assert.ErrorIs(t, f.WritePage(pid, data), ErrPageNotFound)
}

func TestLdbFile_AllocatePage_Should_Not_Reuse_Deleted_Ids(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.RemoveAll(dbName)

	f, _, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	defer f.Close()

	pid1, err := f.AllocatePage()
	require.NoError(t, err)
	pid2, err := f.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, f.DeletePage(pid1))

	pid3, err := f.AllocatePage()
	require.NoError(t, err)
	assert.Greater(t, pid3, pid2)
}

func TestLdbFile_WritePage_Should_Not_Resurrect_A_Page_Deleted_Concurrently(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.RemoveAll(dbName)

	f, _, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	defer f.Close()

	content := bytes.Repeat([]byte{0x42}, PageSize)
	data := make([]byte, PageSize)
	for i := 0; i < 20; i++ {
		pid, err := f.AllocatePage()
		require.NoError(t, err)

		// the write may land before the delete or be rejected after it, in
		// no interleaving may the deleted page come back
		var g errgroup.Group
		g.Go(func() error {
			if err := f.WritePage(pid, content); err != nil && !errors.Is(err, ErrPageNotFound) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			return f.DeletePage(pid)
		})
		require.NoError(t, g.Wait())

		assert.ErrorIs(t, f.ReadPage(pid, data), ErrPageNotFound)
	}
}

func TestLdbFile_LivePageIDs_Should_Return_Ids_In_Ascending_Order(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.RemoveAll(dbName)

	f, _, err := OpenLdbFile(dbName)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 5; i++ {
		_, err := f.AllocatePage()
		require.NoError(t, err)
	}
	require.NoError(t, f.DeletePage(2))
	require.NoError(t, f.DeletePage(5))

	live, err := f.LivePageIDs()
	require.NoError(t, err)
	assert.Equal(t, []PageID{1, 3, 4}, live)
}
