package buffer

import (
	"fmt"

	"github.com/snowtothemax/CS564-P2/disk"
)

// pageKey identifies a page globally, by file identity rather than by handle,
// so two handles to the same file resolve to the same entry.
type pageKey struct {
	file   disk.FileID
	pageNo disk.PageID
}

// pageTable maps resident pages to the index of the frame holding them.
type pageTable map[pageKey]int

func (t pageTable) lookup(file disk.FileID, pageNo disk.PageID) (int, bool) {
	frameIdx, ok := t[pageKey{file, pageNo}]
	return frameIdx, ok
}

func (t pageTable) insert(file disk.FileID, pageNo disk.PageID, frameIdx int) {
	key := pageKey{file, pageNo}
	if _, ok := t[key]; ok {
		panic(fmt.Sprintf("page %v of file %v is already in the page table", pageNo, file))
	}
	t[key] = frameIdx
}

func (t pageTable) remove(file disk.FileID, pageNo disk.PageID) {
	delete(t, pageKey{file, pageNo})
}
