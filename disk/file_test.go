package disk

import (
	"bytes"
	"io"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Should_Create_File_When_It_Does_Not_Exist(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, created, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, f.ID())
	assert.Equal(t, PageID(0), f.LastPageID())
	assert.Equal(t, dbName, f.Path())
}

func TestOpen_Should_Keep_File_Identity_When_Reopened(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	fileID := f.ID()
	require.NoError(t, f.Close())

	f2, created, err := Open(dbName)
	require.NoError(t, err)
	defer f2.Close()

	assert.False(t, created)
	assert.Equal(t, fileID, f2.ID())
}

func TestOpen_Should_Fail_When_File_Is_Not_A_Page_File(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	junk := bytes.Repeat([]byte{0x42}, PageSize)
	require.NoError(t, os.WriteFile(dbName, junk, 0666))

	_, _, err := Open(dbName)
	assert.ErrorContains(t, err, "not a page file")
}

func TestFile_AllocatePage_Should_Return_Zero_Filled_Pages(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	pid, err := f.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, f.WritePage(pid, bytes.Repeat([]byte{0xAB}, PageSize)))

	// recycle it and check the old content is gone
	require.NoError(t, f.DeletePage(pid))
	pid2, err := f.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, pid, pid2)

	data := make([]byte, PageSize)
	require.NoError(t, f.ReadPage(pid2, data))
	assert.Equal(t, make([]byte, PageSize), data)
}

func TestFile_ReadPage_Should_Return_ErrPageNotFound_When_Page_Is_Unknown(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	pid, err := f.AllocatePage()
	require.NoError(t, err)

	data := make([]byte, PageSize)

	// the header page is never handed out
	assert.ErrorIs(t, f.ReadPage(0, data), ErrPageNotFound)
	// past the end of the file
	assert.ErrorIs(t, f.ReadPage(pid+1, data), ErrPageNotFound)

	// a deleted page is gone
	require.NoError(t, f.DeletePage(pid))
	assert.ErrorIs(t, f.ReadPage(pid, data), ErrPageNotFound)
	assert.ErrorIs(t, f.WritePage(pid, data), ErrPageNotFound)
}

func TestFile_ReadPage_Should_Fail_When_Buffer_Size_Is_Wrong(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	pid, err := f.AllocatePage()
	require.NoError(t, err)

	assert.Error(t, f.ReadPage(pid, make([]byte, PageSize-1)))
	assert.Error(t, f.WritePage(pid, make([]byte, PageSize+1)))
}

func TestFile_WritePage_Should_Persist_Data_Across_Reopen(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)

	pid, err := f.AllocatePage()
	require.NoError(t, err)
	want := bytes.Repeat([]byte{0x5C}, PageSize)
	require.NoError(t, f.WritePage(pid, want))
	require.NoError(t, f.Close())

	f2, _, err := Open(dbName)
	require.NoError(t, err)
	defer f2.Close()

	got := make([]byte, PageSize)
	require.NoError(t, f2.ReadPage(pid, got))
	assert.Equal(t, want, got)
}

func TestFile_DeletePage_Should_Be_Idempotent(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	// never allocated
	assert.NoError(t, f.DeletePage(42))

	pid, err := f.AllocatePage()
	require.NoError(t, err)
	assert.NoError(t, f.DeletePage(pid))
	assert.NoError(t, f.DeletePage(pid))
	assert.Equal(t, []PageID{pid}, f.FreePageIDs())
}

func TestFile_AllocatePage_Should_Recycle_Freed_Pages_In_Order(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 4; i++ {
		_, err := f.AllocatePage()
		require.NoError(t, err)
	}
	require.NoError(t, f.DeletePage(2))
	require.NoError(t, f.DeletePage(3))

	// freed pages come back first in first out, then the file grows again
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(2), pid)

	pid, err = f.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(3), pid)

	pid, err = f.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(5), pid)
}

func TestFile_FreeList_Should_Survive_Reopen(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.AllocatePage()
		require.NoError(t, err)
	}
	require.NoError(t, f.DeletePage(2))
	require.NoError(t, f.DeletePage(4))
	require.NoError(t, f.Close())

	f2, _, err := Open(dbName)
	require.NoError(t, err)
	defer f2.Close()

	assert.Equal(t, []PageID{2, 4}, f2.FreePageIDs())

	pid, err := f2.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(2), pid)

	pid, err = f2.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(4), pid)

	pid, err = f2.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, PageID(5), pid)
}

func TestFile_LivePageIDs_Should_Skip_Freed_Pages(t *testing.T) {
	log.SetOutput(io.Discard)
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	f, _, err := Open(dbName)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 5; i++ {
		_, err := f.AllocatePage()
		require.NoError(t, err)
	}
	require.NoError(t, f.DeletePage(1))
	require.NoError(t, f.DeletePage(3))

	live, err := f.LivePageIDs()
	require.NoError(t, err)
	assert.Equal(t, []PageID{2, 4, 5}, live)
}
