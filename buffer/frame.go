package buffer

import (
	"github.com/snowtothemax/CS564-P2/disk"
)

// frameDesc is the bookkeeping record of one frame. The page content itself
// lives in the slot with the same index in the pool.
type frameDesc struct {
	file     disk.IPageFile
	fileID   disk.FileID
	pageNo   disk.PageID
	pinCount int
	valid    bool
	refbit   bool
	dirty    bool
}

// set marks the frame as holding the given page, pinned once for the caller
// that asked for it and recently used so the clock spares it for a sweep.
func (f *frameDesc) set(file disk.IPageFile, pageNo disk.PageID) {
	f.file = file
	f.fileID = file.ID()
	f.pageNo = pageNo
	f.pinCount = 1
	f.valid = true
	f.refbit = true
	f.dirty = false
}

// reset returns the frame to its free state.
func (f *frameDesc) reset() {
	f.file = nil
	f.fileID = disk.FileID{}
	f.pageNo = disk.InvalidPageID
	f.pinCount = 0
	f.valid = false
	f.refbit = false
	f.dirty = false
}
