package blobstore

import (
	"bytes"
	"io"
)

func newByteReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
