package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
)

const (
	backupMagic   uint32 = 0x5047424B // "PGBK"
	backupVersion uint32 = 1
)

// LivePager is a page file that can enumerate the pages it currently backs.
// Both File and LdbFile implement it.
type LivePager interface {
	IPageFile
	LastPageID() PageID
	LivePageIDs() ([]PageID, error)
}

// Backup writes a snapshot of f to w: a fixed header carrying the file id,
// followed by every live page as (id, length, snappy block). Restoring the
// stream reproduces the file with the same identity, page ids and free list
// membership.
func Backup(f LivePager, w io.Writer) error {
	ids, err := f.LivePageIDs()
	if err != nil {
		return err
	}

	hdr := make([]byte, 40)
	binary.BigEndian.PutUint32(hdr, backupMagic)
	binary.BigEndian.PutUint32(hdr[4:], backupVersion)
	id := f.ID()
	copy(hdr[8:24], id[:])
	binary.BigEndian.PutUint64(hdr[24:], uint64(f.LastPageID()))
	binary.BigEndian.PutUint64(hdr[32:], uint64(len(ids)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	page := make([]byte, PageSize)
	rec := make([]byte, 12)
	for _, pid := range ids {
		if err := f.ReadPage(pid, page); err != nil {
			return fmt.Errorf("backing up page %d: %w", pid, err)
		}
		comp := snappy.Encode(nil, page)

		binary.BigEndian.PutUint64(rec, uint64(pid))
		binary.BigEndian.PutUint32(rec[8:], uint32(len(comp)))
		if _, err := w.Write(rec); err != nil {
			return err
		}
		if _, err := w.Write(comp); err != nil {
			return err
		}
	}
	return nil
}

// Restore builds a new page file at path from a stream produced by Backup.
// Pages that were on the free list when the backup was taken are absent from
// the stream and end up on the free list of the restored file as well. Fails
// if path already exists.
func Restore(r io.Reader, path string) (*File, error) {
	hdr := make([]byte, 40)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint32(hdr) != backupMagic {
		return nil, errors.New("not a page file backup")
	}
	if v := binary.BigEndian.Uint32(hdr[4:]); v != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %d", v)
	}
	var fileID FileID
	copy(fileID[:], hdr[8:24])
	last := PageID(binary.BigEndian.Uint64(hdr[24:]))
	count := binary.BigEndian.Uint64(hdr[32:])
	if count > uint64(last) {
		return nil, fmt.Errorf("backup carries %d pages but highest page id is %d", count, last)
	}

	d, created, err := Open(path)
	if err != nil {
		return nil, err
	}
	if !created {
		d.Close()
		return nil, fmt.Errorf("refusing to restore over existing file %s", path)
	}
	fail := func(err error) (*File, error) {
		d.Close()
		os.Remove(path)
		return nil, err
	}

	if err := d.setHeader(header{id: fileID, lastPageID: last}); err != nil {
		return fail(err)
	}
	// extend the file up to the last page so that free list writes below
	// never land past the end of the file
	if last > 0 {
		if err := d.writeRaw(last, make([]byte, PageSize)); err != nil {
			return fail(err)
		}
	}

	rec := make([]byte, 12)
	maxComp := snappy.MaxEncodedLen(PageSize)
	seen := make(map[PageID]struct{}, count)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, rec); err != nil {
			return fail(err)
		}
		pid := PageID(binary.BigEndian.Uint64(rec))
		clen := binary.BigEndian.Uint32(rec[8:])
		if pid == 0 || pid > last {
			return fail(fmt.Errorf("backup carries page %d, highest page id is %d", pid, last))
		}
		if _, dup := seen[pid]; dup {
			return fail(fmt.Errorf("backup carries page %d twice", pid))
		}
		// no record of a single page can legitimately be longer than the
		// snappy worst case, reject before allocating
		if uint64(clen) > uint64(maxComp) {
			return fail(fmt.Errorf("page %d: compressed size %d exceeds the snappy bound %d", pid, clen, maxComp))
		}

		comp := make([]byte, clen)
		if _, err := io.ReadFull(r, comp); err != nil {
			return fail(err)
		}
		page, err := snappy.Decode(nil, comp)
		if err != nil {
			return fail(fmt.Errorf("page %d: %w", pid, err))
		}
		if len(page) != PageSize {
			return fail(fmt.Errorf("page %d decompressed to %d bytes, page size is %d", pid, len(page), PageSize))
		}

		if err := d.writeRaw(pid, page); err != nil {
			return fail(err)
		}
		seen[pid] = struct{}{}
	}

	// everything not in the stream was free at backup time
	for pid := PageID(1); pid <= last; pid++ {
		if _, ok := seen[pid]; !ok {
			if err := d.DeletePage(pid); err != nil {
				return fail(err)
			}
		}
	}
	return d, nil
}
