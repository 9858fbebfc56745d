// Package norfs mounts the log-structured filesystem on the external NOR
// flash and exposes the golden-image file operations on top of it.
//
// The littlefs library owns the on-flash format; this package owns its
// configuration, the mount lifecycle, the open-handle table and the CRC
// helper.
package norfs

import (
	"errors"
	"io"
	"os"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/config"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/crcunit"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/storage"
	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

// littlefs geometry over the NOR driver's block model.
const (
	lfsReadSize      = 128
	lfsProgSize      = lfsReadSize
	lfsLookaheadSize = lfsReadSize / 8
	lfsBlockSize     = 65536
	lfsBlockCount    = 128
	lfsBlockCycles   = -1 // wear leveling handled by usage pattern, not the FS

	// The cache request is 64 B; the library needs a multiple of the program
	// size, so it rounds up to one program unit.
	lfsCacheSize = lfsProgSize
)

var (
	// ErrNotMounted reports a file operation before a successful Init.
	ErrNotMounted = errors.New("norfs: not mounted")

	// ErrAlreadyOpen reports a second open on a logical file whose handle is
	// still live.
	ErrAlreadyOpen = errors.New("norfs: file already open")

	// ErrNotOpen reports I/O on a logical file with no live handle.
	ErrNotOpen = errors.New("norfs: file not open")
)

// File is the slice of the filesystem's file surface this adapter uses.
type File interface {
	io.ReadWriteCloser
}

// Filesystem is the slice of the littlefs surface this adapter uses; tests
// substitute an in-memory implementation.
type Filesystem interface {
	Mount() error
	Format() error
	Unmount() error
	OpenFile(name string, flags int) (File, error)
	Remove(name string) error
}

// modeFlags converts user file modes to littlefs open flags.
var modeFlags = [storage.NumModes]int{
	storage.ReadOnly:        os.O_RDONLY,
	storage.WriteOnly:       os.O_WRONLY,
	storage.ReadWrite:       os.O_RDWR,
	storage.ReadCreate:      os.O_RDONLY | os.O_CREATE,
	storage.WriteCreate:     os.O_WRONLY | os.O_CREATE,
	storage.WriteAppend:     os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	storage.ReadWriteCreate: os.O_RDWR | os.O_CREATE,
}

// fileNames maps logical file IDs to on-flash names.
var fileNames = [storage.NumFiles]string{
	storage.GoldenImage: config.DefaultImageName,
	storage.File2:       "file2.txt",
}

func init() {
	fileNames[storage.GoldenImage] = config.ImageName()
}

// Store is the littlefs wrapper instance: the filesystem, its mount flag and
// one handle slot per logical file.
type Store struct {
	fs      Filesystem
	mounted bool

	handles [storage.NumFiles]File
}

// lfsAdapter narrows *littlefs.LFS to the local Filesystem interface.
type lfsAdapter struct {
	l *littlefs.LFS
}

func (a lfsAdapter) Mount() error   { return a.l.Mount() }
func (a lfsAdapter) Format() error  { return a.l.Format() }
func (a lfsAdapter) Unmount() error { return a.l.Unmount() }
func (a lfsAdapter) Remove(name string) error {
	return a.l.Remove(name)
}
func (a lfsAdapter) OpenFile(name string, flags int) (File, error) {
	return a.l.OpenFile(name, flags)
}

// fsBlockDevice narrows the NOR driver's geometry to the filesystem's: the
// program granule is 128 bytes (half a flash page, always a legal page
// program) and the visible capacity is pinned to the configured block count
// so the on-flash layout is identical across chip sizes.
type fsBlockDevice struct {
	tinyfs.BlockDevice
}

func (d fsBlockDevice) WriteBlockSize() int64 { return lfsProgSize }
func (d fsBlockDevice) EraseBlockSize() int64 { return lfsBlockSize }
func (d fsBlockDevice) Size() int64 {
	size := int64(lfsBlockSize) * lfsBlockCount
	if backing := d.BlockDevice.Size(); backing < size {
		size = backing
	}
	return size
}

// New builds a Store over a block device with the fixed littlefs geometry.
func New(bd tinyfs.BlockDevice) *Store {
	lfs := littlefs.New(fsBlockDevice{BlockDevice: bd})
	lfs.Configure(&littlefs.Config{
		CacheSize:     lfsCacheSize,
		LookaheadSize: lfsLookaheadSize,
		BlockCycles:   lfsBlockCycles,
	})
	return NewWithFilesystem(lfsAdapter{l: lfs})
}

// NewWithFilesystem builds a Store over an arbitrary filesystem (tests).
func NewWithFilesystem(fs Filesystem) *Store {
	return &Store{fs: fs}
}

// Init mounts the filesystem. A mount failure is expected on first boot or
// after corruption: format and mount again; the second failure propagates.
func (s *Store) Init() error {
	err := s.fs.Mount()
	if err != nil {
		if err = s.fs.Format(); err == nil {
			err = s.fs.Mount()
		}
	}
	if err != nil {
		return err
	}
	s.mounted = true
	return nil
}

// Deinit unmounts the filesystem.
func (s *Store) Deinit() error {
	if err := s.fs.Unmount(); err != nil {
		return err
	}
	s.mounted = false
	return nil
}

// Open opens a logical file in the given mode. Only one handle per logical
// file may be live.
func (s *Store) Open(id storage.FileID, mode storage.Mode) error {
	if !s.mounted {
		return ErrNotMounted
	}
	if id >= storage.NumFiles || mode >= storage.NumModes {
		return os.ErrInvalid
	}
	if s.handles[id] != nil {
		return ErrAlreadyOpen
	}

	f, err := s.fs.OpenFile(fileNames[id], modeFlags[mode])
	if err != nil {
		return err
	}
	s.handles[id] = f
	return nil
}

// Close closes the live handle of a logical file. Closing an un-open file is
// a no-op, so teardown paths can close unconditionally.
func (s *Store) Close(id storage.FileID) error {
	if id >= storage.NumFiles || s.handles[id] == nil {
		return nil
	}
	err := s.handles[id].Close()
	s.handles[id] = nil
	return err
}

// Read reads from the live handle of a logical file and returns the byte
// count, which is short at end of file.
func (s *Store) Read(id storage.FileID, p []byte) (int, error) {
	if id >= storage.NumFiles || s.handles[id] == nil {
		return 0, ErrNotOpen
	}
	n, err := s.handles[id].Read(p)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// Write writes the whole buffer to the live handle of a logical file.
func (s *Store) Write(id storage.FileID, p []byte) error {
	if id >= storage.NumFiles || s.handles[id] == nil {
		return ErrNotOpen
	}
	n, err := s.handles[id].Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Delete removes a logical file by name.
func (s *Store) Delete(id storage.FileID) error {
	if !s.mounted {
		return ErrNotMounted
	}
	if id >= storage.NumFiles {
		return os.ErrInvalid
	}
	return s.fs.Remove(fileNames[id])
}

// FileCRC opens a logical file read-only and streams it through buf into the
// CRC unit, returning the accumulated value.
func (s *Store) FileCRC(id storage.FileID, buf []byte) (uint32, error) {
	if err := s.Open(id, storage.ReadOnly); err != nil {
		return 0, err
	}
	defer s.Close(id)

	return crcunit.FileChecksum(crcunit.New(), buf, func(p []byte) (int, error) {
		return s.Read(id, p)
	})
}
