package buffer_test

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/snowtothemax/CS564-P2/buffer"
	"github.com/snowtothemax/CS564-P2/disk"
)

// Example walks a page through its life: created and pinned, modified, given
// back to the pool and finally flushed to disk.
func Example() {
	log.SetOutput(io.Discard)
	os.Remove("example.db")

	f, _, err := disk.Open("example.db")
	if err != nil {
		panic(err)
	}
	defer os.Remove("example.db")
	defer f.Close()

	pool := buffer.NewBufferPool(2)

	pageNo, page, err := pool.NewPage(f)
	if err != nil {
		panic(err)
	}
	copy(page, "hello")
	if err := pool.Unpin(f, pageNo, true); err != nil {
		panic(err)
	}

	page, err = pool.GetPage(f, pageNo)
	if err != nil {
		panic(err)
	}
	fmt.Printf("page %d holds %q\n", pageNo, page[:5])
	if err := pool.Unpin(f, pageNo, false); err != nil {
		panic(err)
	}

	if err := pool.FlushFile(f); err != nil {
		panic(err)
	}
	fmt.Println("flushed")

	// Output:
	// page 1 holds "hello"
	// flushed
}
