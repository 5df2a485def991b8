package conduit

import "os"

// Body is the closed set of response body representations. Exactly one
// variant backs every Response; consumers switch over the concrete types
// and treat an unknown variant as a programming error, so adding a fourth
// kind forces every consumer site to be updated.
type Body interface {
	isBody()
}

// StaticBody is an immutable byte slice with process-wide lifetime, for
// example a compiled-in asset. Written to the wire without copying.
type StaticBody []byte

func (StaticBody) isBody() {}

// OwnedBody is a heap buffer owned by the response. Ownership transfers to
// the wire layer when the response is written.
type OwnedBody []byte

func (OwnedBody) isBody() {}

// FileBody is an open file handle to be streamed to the client in bounded
// chunks. The wire layer closes the file after transmission.
type FileBody struct {
	File *os.File
}

func (FileBody) isBody() {}
