/*
 * files.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//compression returns the compression format for fname, from its extension:
//"gz", "zst" or "" for plain files.
func compression(fname string) string {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".gz":
		return "gz"
	case ".zst", ".zstd":
		return "zst"
	}
	return ""
}

//multiCloser closes the decompressor/compressor before the file.
type multiCloser struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

//openSource opens fname and returns a reader that decompresses the data
//if the extension of the file calls for it.
func openSource(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	switch compression(fname) {
	case "gz":
		gz, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, err
		}
		return &multiCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case "zst":
		zr, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, err
		}
		rc := zr.IOReadCloser()
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	return f, nil
}

//openTarget creates fname and returns a writer that compresses the data
//if the extension of the file calls for it.
func openTarget(fname string) (io.WriteCloser, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, err
	}
	switch compression(fname) {
	case "gz":
		gz := gzip.NewWriter(f)
		return &multiCloser{Writer: gz, closers: []io.Closer{gz, f}}, nil
	case "zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &multiCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	}
	return f, nil
}

//XYZFileRead reads a geometry from an XYZ file. Files ending in .gz or .zst
//are decompressed with gzip or zstd, respectively.
func XYZFileRead(fname string) (*Geometry, error) {
	errid := "XYZFileRead"
	in, err := openSource(fname)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errid, fname, err)
	}
	g, err := GeometryFromXYZ(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errid, fname, err)
	}
	return g, nil
}

//XYZTrajFileRead reads a multi-frame XYZ file into a Molecule. Compression
//is handled as in XYZFileRead.
func XYZTrajFileRead(fname string) (*Molecule, error) {
	in, err := openSource(fname)
	if err != nil {
		return nil, fmt.Errorf("XYZTrajFileRead: %w", err)
	}
	defer in.Close()
	return XYZTrajRead(in)
}

//XYZFileWrite writes g to the file fname in XYZ format, with the given title.
//Files ending in .gz or .zst are compressed with gzip or zstd, respectively.
func XYZFileWrite(fname string, g *Geometry, title string) (err error) {
	errid := "XYZFileWrite"
	out, err := openTarget(fname)
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: %s: %w", errid, fname, cerr)
		}
	}()
	if _, err = io.WriteString(out, g.XYZ(title)); err != nil {
		return fmt.Errorf("%s: %s: %w", errid, fname, err)
	}
	return nil
}
