package byteutil

import (
	"bytes"
	"sync"
)

var buffers = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// Buffer takes an empty buffer from the pool.
func Buffer() *bytes.Buffer {
	return buffers.Get().(*bytes.Buffer)
}

// Release resets b and returns it to the pool. Bytes obtained from b must not
// be used afterwards.
func Release(b *bytes.Buffer) {
	b.Reset()
	buffers.Put(b)
}
