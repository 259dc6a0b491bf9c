package ingest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

// resettableSource is a stream input that can be opened from the start any
// number of times. The two-pass protocol reads every stream twice, so inputs
// that cannot be reopened, such as pipes, are not supported for stream modes.
type resettableSource interface {
	// Open returns a fresh reader positioned at the start of the input.
	Open() (io.ReadCloser, error)

	// Name identifies the input in logs.
	Name() string
}

// fileSource reopens a file on disk for each pass.
type fileSource struct {
	path string
}

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, types.WrapError(types.INPUT_OPEN_FAILED, "failed to open input file "+s.path, err)
	}
	return f, nil
}

func (s fileSource) Name() string {
	return s.path
}

// zipEntrySource reopens one archive entry for each pass. Reopening
// decompresses the entry from the start, which is how a stream inside an
// archive is rewound.
type zipEntrySource struct {
	archive string
	file    *zip.File
}

func (s zipEntrySource) Open() (io.ReadCloser, error) {
	rc, err := s.file.Open()
	if err != nil {
		return nil, types.WrapError(types.INPUT_RESET_FAILED, "failed to open archive entry "+s.Name(), err)
	}
	return rc, nil
}

func (s zipEntrySource) Name() string {
	return s.archive + "!" + s.file.Name
}

// Data file extensions recognized inside archives. Anything else is skipped.
const (
	extBundle = ".json"
)

var extStreams = []string{".ndjson", ".jsonl"}

// isBundleEntry reports whether an archive entry holds a bundle document.
func isBundleEntry(name string) bool {
	return strings.EqualFold(filepath.Ext(name), extBundle)
}

// isStreamEntry reports whether an archive entry holds a line-delimited stream.
func isStreamEntry(name string) bool {
	ext := filepath.Ext(name)
	for _, candidate := range extStreams {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}
