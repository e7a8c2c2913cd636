package disk

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// key layout inside the store: pages live under 'p' followed by the big endian
// page id, file metadata under a single 'm' key. Big endian keys keep the page
// iterator ordered by id.
const (
	ldbPagePrefix byte = 'p'
	ldbMetaKey    byte = 'm'
)

const ldbMetaSize = 32

var _ LivePager = &LdbFile{}

// LdbFile is a page store backed by a leveldb database instead of a flat os
// file. Unlike File it keeps no free list; deleted pages simply disappear from
// the store and their ids are never reused.
type LdbFile struct {
	db   *leveldb.DB
	path string
	wo   *opt.WriteOptions

	mu   sync.Mutex
	meta ldbMeta
}

type ldbMeta struct {
	id         FileID
	lastPageID PageID
}

// OpenLdbFile opens the leveldb backed page file at path, creating it if it
// does not exist. The second return value reports whether a new file was
// created.
func OpenLdbFile(path string) (*LdbFile, bool, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, false, err
	}

	d := &LdbFile{db: db, path: path, wo: &opt.WriteOptions{Sync: FlushInstantly}}

	raw, err := db.Get([]byte{ldbMetaKey}, nil)
	if err == leveldb.ErrNotFound {
		d.meta = ldbMeta{id: uuid.New()}
		if err := db.Put([]byte{ldbMetaKey}, writeLdbMeta(d.meta), d.wo); err != nil {
			db.Close()
			return nil, false, err
		}
		return d, true, nil
	}
	if err != nil {
		db.Close()
		return nil, false, err
	}

	meta, err := readLdbMeta(raw)
	if err != nil {
		db.Close()
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	d.meta = meta
	return d, false, nil
}

func (d *LdbFile) ID() FileID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta.id
}

func (d *LdbFile) Path() string {
	return d.path
}

func (d *LdbFile) ReadPage(id PageID, dst []byte) error {
	if len(dst) != PageSize {
		return fmt.Errorf("dst is %d bytes, page size is %d", len(dst), PageSize)
	}

	raw, err := d.db.Get(ldbPageKey(id), nil)
	if err == leveldb.ErrNotFound {
		return fmt.Errorf("read page %d: %w", id, ErrPageNotFound)
	}
	if err != nil {
		return err
	}
	if len(raw) != PageSize {
		return fmt.Errorf("page %d is %d bytes in store, page size is %d", id, len(raw), PageSize)
	}
	copy(dst, raw)
	return nil
}

func (d *LdbFile) WritePage(id PageID, src []byte) error {
	if len(src) != PageSize {
		return fmt.Errorf("src is %d bytes, page size is %d", len(src), PageSize)
	}

	// the existence check and the put must exclude DeletePage, a write racing
	// a delete could otherwise put the deleted page back
	d.mu.Lock()
	defer d.mu.Unlock()

	key := ldbPageKey(id)
	ok, err := d.db.Has(key, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("write page %d: %w", id, ErrPageNotFound)
	}
	return d.db.Put(key, src, d.wo)
}

// AllocatePage bumps the id counter and writes the new zero page and the
// updated metadata in one batch.
func (d *LdbFile) AllocatePage() (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.meta.lastPageID + 1

	batch := new(leveldb.Batch)
	batch.Put(ldbPageKey(id), make([]byte, PageSize))
	batch.Put([]byte{ldbMetaKey}, writeLdbMeta(ldbMeta{id: d.meta.id, lastPageID: id}))
	if err := d.db.Write(batch, d.wo); err != nil {
		return InvalidPageID, err
	}

	d.meta.lastPageID = id
	return id, nil
}

func (d *LdbFile) DeletePage(id PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Delete(ldbPageKey(id), d.wo)
}

func (d *LdbFile) Close() error {
	return d.db.Close()
}

// LastPageID returns the highest page id the file ever allocated.
func (d *LdbFile) LastPageID() PageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta.lastPageID
}

// LivePageIDs returns the ids of all pages currently in the store in ascending
// order.
func (d *LdbFile) LivePageIDs() ([]PageID, error) {
	iter := d.db.NewIterator(util.BytesPrefix([]byte{ldbPagePrefix}), nil)
	defer iter.Release()

	var ids []PageID
	for iter.Next() {
		ids = append(ids, PageID(binary.BigEndian.Uint64(iter.Key()[1:])))
	}
	return ids, iter.Error()
}

func ldbPageKey(id PageID) []byte {
	key := make([]byte, 9)
	key[0] = ldbPagePrefix
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

func readLdbMeta(data []byte) (ldbMeta, error) {
	if len(data) != ldbMetaSize {
		return ldbMeta{}, fmt.Errorf("metadata record is %d bytes, expected %d", len(data), ldbMetaSize)
	}
	if binary.BigEndian.Uint32(data) != fileMagic {
		return ldbMeta{}, fmt.Errorf("not a page file store")
	}
	if v := binary.BigEndian.Uint32(data[4:]); v != fileVersion {
		return ldbMeta{}, fmt.Errorf("unsupported page file version %d", v)
	}

	var m ldbMeta
	copy(m.id[:], data[8:24])
	m.lastPageID = PageID(binary.BigEndian.Uint64(data[24:]))
	return m, nil
}

func writeLdbMeta(m ldbMeta) []byte {
	data := make([]byte, ldbMetaSize)
	binary.BigEndian.PutUint32(data, fileMagic)
	binary.BigEndian.PutUint32(data[4:], fileVersion)
	copy(data[8:24], m.id[:])
	binary.BigEndian.PutUint64(data[24:], uint64(m.lastPageID))
	return data
}
