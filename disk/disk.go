package disk

import (
	"errors"

	"github.com/google/uuid"
)

//go:generate mockgen -source disk.go -destination disk_mock.go -package disk

// PageSize is the fixed size of every page handed out by a page file. Buffers
// passed to ReadPage and WritePage must be exactly this long.
const PageSize int = 4096

// FlushInstantly makes WritePage fsync before returning. Setting it to false
// speeds up single threaded tests considerably but data might be lost on power
// loss even after a successful write.
const FlushInstantly bool = true

// PageID identifies one page inside a page file. Page 0 holds the file header
// and is never handed out by AllocatePage.
type PageID uint64

// InvalidPageID is returned together with a non-nil error by operations that
// allocate pages.
const InvalidPageID = PageID(^uint64(0))

// FileID is the durable identity of a page file. It is generated once when the
// file is created and survives renames and reopens, so two handles refer to the
// same file iff their IDs are equal.
type FileID = uuid.UUID

// ErrPageNotFound is returned when a page id is not backed by the file, either
// because it was never allocated or because it has been deleted since.
var ErrPageNotFound = errors.New("page not found in file")

// IPageFile is a store of fixed size pages addressed by PageID. Implementations
// are safe for concurrent use.
type IPageFile interface {
	// ID returns the durable identity of the file.
	ID() FileID

	// Path returns the location the file was opened with.
	Path() string

	// ReadPage reads the page with the given id into dst, which must be
	// PageSize bytes long. Returns ErrPageNotFound if the page was never
	// allocated or has been deleted.
	ReadPage(id PageID, dst []byte) error

	// WritePage durably replaces the content of the page with the given id.
	// src must be PageSize bytes long. Returns ErrPageNotFound if the page
	// was never allocated or has been deleted.
	WritePage(id PageID, src []byte) error

	// AllocatePage returns the id of a fresh zero filled page.
	AllocatePage() (PageID, error)

	// DeletePage removes the page with the given id from the file. Deleting
	// a page that does not exist is a no-op.
	DeletePage(id PageID) error

	Close() error
}
