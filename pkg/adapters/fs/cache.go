package fs

import (
	"os"
	"time"

	"github.com/aretw0/tillage/pkg/core"
)

// fileStamp identifies one version of a store file on disk. Atomic writes
// replace the file, so a new write changes the identity as well as the times.
type fileStamp struct {
	info    os.FileInfo
	modTime time.Time
	size    int64
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{info: info, modTime: info.ModTime(), size: info.Size()}
}

func (s fileStamp) matches(info os.FileInfo) bool {
	if s.info == nil || info == nil {
		return false
	}
	return os.SameFile(s.info, info) && s.modTime.Equal(info.ModTime()) && s.size == info.Size()
}

// snapshot caches the decoded records of the last file version read or
// written, so repeated reads skip parsing.
type snapshot[T any] struct {
	stamp   fileStamp
	records []T
	err     error
	valid   bool
}

// fresh reports whether the cached records still describe info.
func (s *snapshot[T]) fresh(info os.FileInfo) bool {
	return s.valid && s.stamp.matches(info)
}

// store remembers a deep copy of records (or the decode error) for the file
// version info.
func (s *snapshot[T]) store(info os.FileInfo, records []T, err error) {
	s.stamp = stampOf(info)
	s.records = core.CloneRecords(records)
	s.err = err
	s.valid = true
}

func (s *snapshot[T]) invalidate() {
	*s = snapshot[T]{}
}

// Len returns the number of cached records.
func (s *snapshot[T]) Len() int {
	if !s.valid {
		return 0
	}
	return len(s.records)
}
