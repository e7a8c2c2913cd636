package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/snowtothemax/CS564-P2/disk"
)

var ErrPageNotPinned = errors.New("page is not pinned")
var ErrPagePinned = errors.New("page is pinned")
var ErrInvalidFrame = errors.New("frame holds no valid page")
var ErrPoolExhausted = errors.New("buffer pool exhausted, all frames are pinned")

// Stats counts pool activity since construction.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	WriteBacks uint64
}

// BufferPool caches a fixed number of disk pages in memory. Frames are
// recycled with the second chance policy: a sweeping hand skips pinned frames,
// gives recently used frames one more sweep by clearing their reference bit,
// and evicts the first frame that has neither protection, writing it back
// first if it is dirty.
//
// Every public method holds the pool lock for its whole duration, io included,
// so methods act as single atomic steps with respect to each other.
type BufferPool struct {
	poolSize  int
	frames    []frameDesc
	slots     [][]byte
	pages     pageTable
	clockHand int
	stats     Stats
	lock      sync.Mutex
}

// GetPage pins the page with the given number of the given file and returns
// the frame slot holding its content. A resident page is served from memory;
// anything else costs a frame allocation and one read from the file. The slot
// stays valid until the last Unpin.
func (b *BufferPool) GetPage(file disk.IPageFile, pageNo disk.PageID) ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pages.lookup(file.ID(), pageNo); ok {
		f := &b.frames[frameIdx]
		f.refbit = true
		f.pinCount++
		b.stats.Hits++
		return b.slots[frameIdx], nil
	}

	frameIdx, err := b.allocFrame()
	if err != nil {
		return nil, err
	}

	// on failure the frame is left free for the next allocation
	if err := file.ReadPage(pageNo, b.slots[frameIdx]); err != nil {
		return nil, err
	}

	b.pages.insert(file.ID(), pageNo, frameIdx)
	b.frames[frameIdx].set(file, pageNo)
	b.stats.Misses++
	return b.slots[frameIdx], nil
}

// NewPage allocates a fresh page in the given file and pins it in a frame. The
// returned slot is zero filled. The page is already durable when NewPage
// returns, so callers that lose interest must FreePage it rather than drop it.
func (b *BufferPool) NewPage(file disk.IPageFile) (disk.PageID, []byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	pageNo, err := file.AllocatePage()
	if err != nil {
		return disk.InvalidPageID, nil, err
	}

	frameIdx, err := b.allocFrame()
	if err != nil {
		// the page is already on disk, give it back instead of leaking it
		_ = file.DeletePage(pageNo)
		return disk.InvalidPageID, nil, err
	}

	slot := b.slots[frameIdx]
	for i := range slot {
		slot[i] = 0
	}
	b.pages.insert(file.ID(), pageNo, frameIdx)
	b.frames[frameIdx].set(file, pageNo)
	return pageNo, slot, nil
}

// Unpin drops one pin from the page. dirty records that the caller modified
// the slot; the flag sticks until the content reaches disk, no later Unpin can
// take it back. Unpinning a page that is not resident is a no-op, one that is
// resident but not pinned fails with ErrPageNotPinned and leaves the frame
// untouched.
func (b *BufferPool) Unpin(file disk.IPageFile, pageNo disk.PageID, dirty bool) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pages.lookup(file.ID(), pageNo)
	if !ok {
		return nil
	}

	f := &b.frames[frameIdx]
	if f.pinCount == 0 {
		return fmt.Errorf("unpin page %d of file %s: %w", pageNo, file.Path(), ErrPageNotPinned)
	}
	f.pinCount--
	if dirty {
		f.dirty = true
	}
	return nil
}

// FlushFile writes every dirty page of the given file to disk and evicts all
// of the file's pages from the pool. Fails with ErrPagePinned if any of them
// is still pinned; frames handled before the pinned one stay flushed and
// evicted.
func (b *BufferPool) FlushFile(file disk.IPageFile) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	fileID := file.ID()
	for i := range b.frames {
		f := &b.frames[i]
		if f.fileID != fileID {
			continue
		}
		if f.pinCount > 0 {
			return fmt.Errorf("flush file %s: page %d: %w", file.Path(), f.pageNo, ErrPagePinned)
		}
		if !f.valid {
			return fmt.Errorf("flush file %s: frame %d: %w", file.Path(), i, ErrInvalidFrame)
		}
		if f.dirty {
			if err := f.file.WritePage(f.pageNo, b.slots[i]); err != nil {
				return fmt.Errorf("write back page %d: %w", f.pageNo, err)
			}
			f.dirty = false
			b.stats.WriteBacks++
		}
		b.pages.remove(f.fileID, f.pageNo)
		f.reset()
	}
	return nil
}

// FreePage drops the page from the pool and deletes it from the file. A dirty
// resident copy is discarded, not written back; the page is about to stop
// existing. Fails with ErrPagePinned if the page is still pinned, in which
// case the file is not touched.
func (b *BufferPool) FreePage(file disk.IPageFile, pageNo disk.PageID) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pages.lookup(file.ID(), pageNo); ok {
		f := &b.frames[frameIdx]
		if f.pinCount > 0 {
			return fmt.Errorf("free page %d of file %s: %w", pageNo, file.Path(), ErrPagePinned)
		}
		b.pages.remove(file.ID(), pageNo)
		f.reset()
	}
	return file.DeletePage(pageNo)
}

// Close writes every dirty page back to its owning file. Pages stay resident
// and pinned pages stay pinned; it is not an error to keep using the pool
// afterwards. Returns the first write error but keeps flushing the rest.
func (b *BufferPool) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	var firstErr error
	for i := range b.frames {
		f := &b.frames[i]
		if !f.valid || !f.dirty {
			continue
		}
		if err := f.file.WritePage(f.pageNo, b.slots[i]); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("write back page %d: %w", f.pageNo, err)
			}
			continue
		}
		f.dirty = false
		b.stats.WriteBacks++
	}
	return firstErr
}

// allocFrame runs the clock over the frame table and returns the index of a
// frame ready to receive a page: descriptor reset, no page table entry, old
// content written back if it was dirty. After two full sweeps every unpinned
// frame has had its reference bit cleared and been seen again, so a frame
// still unavailable means everything is pinned.
func (b *BufferPool) allocFrame() (int, error) {
	for i := 0; i < 2*b.poolSize; i++ {
		b.advanceClock()
		f := &b.frames[b.clockHand]

		if !f.valid {
			return b.clockHand, nil
		}
		if f.refbit {
			// recently used, spare it this sweep
			f.refbit = false
			continue
		}
		if f.pinCount > 0 {
			continue
		}

		if f.dirty {
			if err := f.file.WritePage(f.pageNo, b.slots[b.clockHand]); err != nil {
				return 0, fmt.Errorf("write back page %d: %w", f.pageNo, err)
			}
			f.dirty = false
			b.stats.WriteBacks++
		}
		b.pages.remove(f.fileID, f.pageNo)
		f.reset()
		b.stats.Evictions++
		return b.clockHand, nil
	}
	return 0, ErrPoolExhausted
}

func (b *BufferPool) advanceClock() {
	b.clockHand = (b.clockHand + 1) % b.poolSize
}

// Stats returns a snapshot of the pool counters.
func (b *BufferPool) Stats() Stats {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.stats
}

// NumPinned returns the number of frames with a pinned page.
func (b *BufferPool) NumPinned() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	n := 0
	for i := range b.frames {
		if b.frames[i].pinCount > 0 {
			n++
		}
	}
	return n
}

// PoolSize returns the fixed number of frames.
func (b *BufferPool) PoolSize() int {
	return b.poolSize
}

// DumpFrames writes the current frame table to w, one line per frame, for
// debugging.
func (b *BufferPool) DumpFrames(w io.Writer) {
	b.lock.Lock()
	defer b.lock.Unlock()

	valid := 0
	for i := range b.frames {
		f := &b.frames[i]
		if !f.valid {
			fmt.Fprintf(w, "frame %d: free\n", i)
			continue
		}
		valid++
		fmt.Fprintf(w, "frame %d: file %v page %d pin %d refbit %v dirty %v\n",
			i, f.fileID, f.pageNo, f.pinCount, f.refbit, f.dirty)
	}
	fmt.Fprintf(w, "%d valid frames out of %d\n", valid, b.poolSize)
}

// NewBufferPool creates a pool with poolSize frames, all free. The clock hand
// starts on the last frame so that the first allocation examines frame 0.
func NewBufferPool(poolSize int) *BufferPool {
	if poolSize <= 0 {
		panic(fmt.Sprintf("pool size must be positive, got %d", poolSize))
	}

	frames := make([]frameDesc, poolSize)
	for i := range frames {
		frames[i].reset()
	}
	slots := make([][]byte, poolSize)
	for i := range slots {
		slots[i] = make([]byte, disk.PageSize)
	}

	return &BufferPool{
		poolSize:  poolSize,
		frames:    frames,
		slots:     slots,
		pages:     pageTable{},
		clockHand: poolSize - 1,
	}
}
