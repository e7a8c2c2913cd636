package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	fileMagic   uint32 = 0x50474631 // "PGF1"
	fileVersion uint32 = 1
)

var _ LivePager = &File{}

// File is an os file backed page store. Page 0 is the header: magic, format
// version, file id and the free list bounds. Deleted pages are threaded into
// an on-disk free list, each free page holding the id of the next one in its
// first 8 bytes, and are recycled by AllocatePage before the file is extended.
type File struct {
	file *os.File
	path string

	mu     sync.Mutex
	header header
	// freed mirrors the on-disk free list so liveness checks need no io. It is
	// rebuilt by walking the list when an existing file is opened.
	freed map[PageID]struct{}
}

type header struct {
	id           FileID
	lastPageID   PageID
	freeListHead PageID
	freeListTail PageID
}

// Open opens the page file at path, creating it if it does not exist. The
// second return value reports whether a new file was created.
func Open(path string) (*File, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, false, err
	}

	stats, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	log.Printf("opening page file %s, size is %d", path, stats.Size())

	d := &File{file: f, path: path, freed: map[PageID]struct{}{}}

	if stats.Size() == 0 {
		if err := d.setHeader(header{id: uuid.New()}); err != nil {
			f.Close()
			return nil, false, err
		}
		return d, true, nil
	}

	buf := make([]byte, PageSize)
	if err := d.readRaw(0, buf); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("reading header of %s: %w", path, err)
	}
	h, err := readHeader(buf)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	d.header = h

	if err := d.loadFreeList(); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return d, false, nil
}

// ID returns the identity generated when the file was first created.
func (d *File) ID() FileID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header.id
}

func (d *File) Path() string {
	return d.path
}

func (d *File) ReadPage(id PageID, dst []byte) error {
	if len(dst) != PageSize {
		return fmt.Errorf("dst is %d bytes, page size is %d", len(dst), PageSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.live(id) {
		return fmt.Errorf("read page %d: %w", id, ErrPageNotFound)
	}
	return d.readRaw(id, dst)
}

func (d *File) WritePage(id PageID, src []byte) error {
	if len(src) != PageSize {
		return fmt.Errorf("src is %d bytes, page size is %d", len(src), PageSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.live(id) {
		return fmt.Errorf("write page %d: %w", id, ErrPageNotFound)
	}
	return d.writeRaw(id, src)
}

// AllocatePage pops the head of the free list, or extends the file when the
// list is empty. The returned page is zero filled either way; recycled pages
// still carry their free list link on disk.
func (d *File) AllocatePage() (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.popFreeList()
	if err != nil {
		return InvalidPageID, err
	}
	if id == 0 {
		h := d.header
		h.lastPageID++
		if err := d.setHeader(h); err != nil {
			return InvalidPageID, err
		}
		id = h.lastPageID
	}

	if err := d.writeRaw(id, make([]byte, PageSize)); err != nil {
		return InvalidPageID, err
	}
	return id, nil
}

// DeletePage appends the page with the given id to the free list and sets it
// as tail. Deleting a page that is unknown or already free is a no-op.
func (d *File) DeletePage(id PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.live(id) {
		return nil
	}

	h := d.header
	if h.freeListHead == 0 {
		h.freeListHead = id
		h.freeListTail = id
	} else {
		// link the old tail to the newly freed page
		buf := make([]byte, PageSize)
		if err := d.readRaw(h.freeListTail, buf); err != nil {
			return err
		}
		binary.BigEndian.PutUint64(buf, uint64(id))
		if err := d.writeRaw(h.freeListTail, buf); err != nil {
			return err
		}
		h.freeListTail = id
	}
	if err := d.setHeader(h); err != nil {
		return err
	}
	d.freed[id] = struct{}{}
	return nil
}

func (d *File) Close() error {
	return d.file.Close()
}

// LastPageID returns the highest page id the file ever allocated.
func (d *File) LastPageID() PageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header.lastPageID
}

// FreePageIDs returns the ids currently on the free list in ascending order.
func (d *File) FreePageIDs() []PageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := maps.Keys(d.freed)
	slices.Sort(ids)
	return ids
}

// LivePageIDs returns the ids of all allocated and not yet deleted pages in
// ascending order.
func (d *File) LivePageIDs() ([]PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]PageID, 0, int(d.header.lastPageID)-len(d.freed))
	for id := PageID(1); id <= d.header.lastPageID; id++ {
		if _, freed := d.freed[id]; !freed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// live reports whether id refers to an allocated page. Callers must hold mu.
func (d *File) live(id PageID) bool {
	if id == 0 || id > d.header.lastPageID {
		return false
	}
	_, freed := d.freed[id]
	return !freed
}

func (d *File) popFreeList() (PageID, error) {
	h := d.header
	if h.freeListHead == 0 {
		return 0, nil
	}

	id := h.freeListHead
	if h.freeListHead == h.freeListTail {
		// list becomes empty
		h.freeListHead, h.freeListTail = 0, 0
	} else {
		buf := make([]byte, PageSize)
		if err := d.readRaw(id, buf); err != nil {
			return 0, err
		}
		h.freeListHead = PageID(binary.BigEndian.Uint64(buf))
	}
	if err := d.setHeader(h); err != nil {
		return 0, err
	}
	delete(d.freed, id)
	return id, nil
}

// loadFreeList walks the on-disk list from head to tail and collects every id
// into freed. Links outside the file or visited twice mean the list on disk is
// broken and the file is refused.
func (d *File) loadFreeList() error {
	h := d.header
	if h.freeListHead == 0 {
		if h.freeListTail != 0 {
			return fmt.Errorf("corrupt free list: head is 0 but tail is %d", h.freeListTail)
		}
		return nil
	}

	buf := make([]byte, PageSize)
	id := h.freeListHead
	for {
		if id == 0 || id > h.lastPageID {
			return fmt.Errorf("corrupt free list: link to page %d", id)
		}
		if _, ok := d.freed[id]; ok {
			return fmt.Errorf("corrupt free list: page %d linked twice", id)
		}
		d.freed[id] = struct{}{}

		if id == h.freeListTail {
			return nil
		}
		if err := d.readRaw(id, buf); err != nil {
			return err
		}
		id = PageID(binary.BigEndian.Uint64(buf))
	}
}

func (d *File) setHeader(h header) error {
	page := make([]byte, PageSize)
	writeHeader(h, page)
	if err := d.writeRaw(0, page); err != nil {
		return err
	}
	d.header = h
	return nil
}

func (d *File) readRaw(id PageID, dst []byte) error {
	if _, err := d.file.Seek(int64(PageSize)*int64(id), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(d.file, dst)
	return err
}

func (d *File) writeRaw(id PageID, src []byte) error {
	if _, err := d.file.Seek(int64(PageSize)*int64(id), io.SeekStart); err != nil {
		return err
	}
	n, err := d.file.Write(src)
	if err != nil {
		return err
	}
	if n != len(src) {
		return io.ErrShortWrite
	}
	if FlushInstantly {
		return d.file.Sync()
	}
	return nil
}

func readHeader(data []byte) (header, error) {
	if binary.BigEndian.Uint32(data) != fileMagic {
		return header{}, errors.New("not a page file")
	}
	if v := binary.BigEndian.Uint32(data[4:]); v != fileVersion {
		return header{}, fmt.Errorf("unsupported page file version %d", v)
	}

	var h header
	copy(h.id[:], data[8:24])
	h.lastPageID = PageID(binary.BigEndian.Uint64(data[24:]))
	h.freeListHead = PageID(binary.BigEndian.Uint64(data[32:]))
	h.freeListTail = PageID(binary.BigEndian.Uint64(data[40:]))
	return h, nil
}

func writeHeader(h header, dest []byte) {
	binary.BigEndian.PutUint32(dest, fileMagic)
	binary.BigEndian.PutUint32(dest[4:], fileVersion)
	copy(dest[8:24], h.id[:])
	binary.BigEndian.PutUint64(dest[24:], uint64(h.lastPageID))
	binary.BigEndian.PutUint64(dest[32:], uint64(h.freeListHead))
	binary.BigEndian.PutUint64(dest[40:], uint64(h.freeListTail))
}
