// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
)

// zopen returns a reader for the given file, transparently
// decompressing the input if fnm ends with ".gz".
func zopen(fnm string) (io.ReadCloser, error) {
	f, err := os.Open(fnm)
	if err != nil || !strings.HasSuffix(fnm, ".gz") {
		return f, err
	}
	rdr, err := pgzip.NewReader(bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipr{rdr, f}, nil
}

// gzipr wraps a ReadCloser and a Closer, presenting a single Close()
// method that closes both wrapped objects.
type gzipr struct {
	io.ReadCloser
	io.Closer
}

func (gr gzipr) Close() error {
	e1 := gr.ReadCloser.Close()
	e2 := gr.Closer.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

// zcreate creates (or truncates) the given file, creating parent
// directories as needed, and compresses the output if fnm ends with
// ".gz". Close flushes everything; callers must check its error.
func zcreate(fnm string) (io.WriteCloser, error) {
	if dir := filepath.Dir(fnm); dir != "." {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(fnm)
	if err != nil {
		return nil, err
	}
	bufw := bufio.NewWriterSize(f, 1<<20)
	zw := &zwriter{f: f, bufw: bufw, w: bufw}
	if strings.HasSuffix(fnm, ".gz") {
		zw.gzw = pgzip.NewWriter(bufw)
		zw.w = zw.gzw
	}
	return zw, nil
}

type zwriter struct {
	f      *os.File
	bufw   *bufio.Writer
	gzw    *pgzip.Writer
	w      io.Writer
	closed bool
}

func (zw *zwriter) Write(p []byte) (int, error) {
	return zw.w.Write(p)
}

// Close flushes and closes all layers. Calling it more than once is
// harmless: later calls return nil.
func (zw *zwriter) Close() error {
	if zw.closed {
		return nil
	}
	zw.closed = true
	var err error
	if zw.gzw != nil {
		err = zw.gzw.Close()
	}
	if e := zw.bufw.Flush(); err == nil {
		err = e
	}
	if e := zw.f.Close(); err == nil {
		err = e
	}
	return err
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
