package bridge

import (
	"io"
	"net/http"
	"os"
)

// DefaultChunkSize is the read size used when streaming a file-backed
// response body.
const DefaultChunkSize = 64 * 1024

// FileStream turns an open file handle into a chunked response body. The
// file is read in bounded chunks and each chunk is flushed to the client
// before the next is produced, so transmission is driven by the
// transport's readiness and memory use stays constant regardless of file
// size.
type FileStream struct {
	file      *os.File
	chunkSize int
}

// NewFileStream wraps file with the default chunk size.
func NewFileStream(file *os.File) *FileStream {
	return &FileStream{file: file, chunkSize: DefaultChunkSize}
}

// WriteTo streams the file to w, closing the file when done. When w
// implements http.Flusher each chunk is flushed as soon as it is written.
func (fs *FileStream) WriteTo(w io.Writer) (int64, error) {
	defer func() { _ = fs.file.Close() }()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, fs.chunkSize)

	var written int64
	for {
		n, readErr := fs.file.Read(buf)
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
