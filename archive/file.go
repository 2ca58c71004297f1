package archive

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/spf13/afero"

	"github.com/wippyai/slang/errors"
)

// OpenMode selects the direction of a file-backed archive.
type OpenMode uint8

const (
	ModeRead OpenMode = iota
	ModeWrite
)

func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "unknown"
	}
}

// File is an Archive backed by a file. It must be closed; Close flushes
// pending writes.
type File struct {
	Archive
	path string
	f    afero.File
	bw   *bufio.Writer
}

// OpenFile opens path on fs as an archive in the given mode. Write mode
// creates or truncates the file.
func OpenFile(fs afero.Fs, path string, mode OpenMode, order binary.ByteOrder) (*File, error) {
	switch mode {
	case ModeRead:
		f, err := fs.Open(path)
		if err != nil {
			return nil, openError(path, err)
		}
		return &File{
			Archive: NewReader(bufio.NewReader(f), order),
			path:    path,
			f:       f,
		}, nil
	case ModeWrite:
		f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, openError(path, err)
		}
		bw := bufio.NewWriter(f)
		return &File{
			Archive: NewWriter(bw, order),
			path:    path,
			f:       f,
			bw:      bw,
		}, nil
	default:
		return nil, errors.InvalidInput(errors.PhaseLoad, "unknown open mode "+mode.String())
	}
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.New(errors.PhaseLoad, errors.KindNotFound).
			Value(path).
			Cause(err).
			Detail("file %q not found", path).
			Build()
	}
	return errors.Load("open "+path, err)
}

// Path returns the path the archive was opened with.
func (f *File) Path() string {
	return f.path
}

// Close flushes buffered writes and closes the file.
func (f *File) Close() error {
	var flushErr error
	if f.bw != nil {
		flushErr = f.bw.Flush()
	}
	closeErr := f.f.Close()
	if flushErr != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, flushErr, "flush "+f.path)
	}
	if closeErr != nil {
		return errors.Load("close "+f.path, closeErr)
	}
	return nil
}
