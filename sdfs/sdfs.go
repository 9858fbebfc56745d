// Package sdfs mounts the FAT filesystem on the SD card and exposes the
// golden-image file operations the transfer paths need.
//
// The FAT implementation is the library's; this package owns the mount
// lifecycle, the mode mapping, the handle table and the CRC helper.
package sdfs

import (
	"errors"
	"io"
	"os"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/config"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/crcunit"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/storage"
)

var (
	// ErrNotMounted reports a file operation before a successful Init.
	ErrNotMounted = errors.New("sdfs: not mounted")

	// ErrAlreadyOpen reports a second open on a logical file whose handle is
	// still live.
	ErrAlreadyOpen = errors.New("sdfs: file already open")

	// ErrNotOpen reports I/O on a logical file with no live handle.
	ErrNotOpen = errors.New("sdfs: file not open")
)

// File is the slice of the FAT library's file surface this adapter uses.
// Handles that also implement io.Seeker get the append seek-to-EOF.
type File interface {
	io.ReadWriteCloser
}

// Filesystem is the slice of the FAT library's surface this adapter uses;
// tests substitute an in-memory implementation.
type Filesystem interface {
	Mount() error
	Unmount() error
	OpenFile(name string, flags int) (File, error)
	Stat(name string) (os.FileInfo, error)
}

// modeFlags converts user file modes to FAT open flags. WriteAppend opens
// write/create and seeks to the end before the first write.
var modeFlags = [storage.NumModes]int{
	storage.ReadOnly:        os.O_RDONLY,
	storage.WriteOnly:       os.O_WRONLY,
	storage.ReadWrite:       os.O_RDWR,
	storage.ReadCreate:      os.O_RDONLY | os.O_CREATE,
	storage.WriteCreate:     os.O_WRONLY | os.O_CREATE,
	storage.WriteAppend:     os.O_WRONLY | os.O_CREATE,
	storage.ReadWriteCreate: os.O_RDWR | os.O_CREATE,
}

// fileNames maps logical file IDs to on-card names.
var fileNames = [storage.NumFiles]string{
	storage.GoldenImage: config.DefaultImageName,
	storage.File2:       "file2.txt",
}

func init() {
	fileNames[storage.GoldenImage] = config.ImageName()
}

// Store is the FAT wrapper instance.
type Store struct {
	fs      Filesystem
	mounted bool

	// prepare runs before the mount (card bring-up on hardware).
	prepare func() error

	handles [storage.NumFiles]File
}

// NewWithFilesystem builds a Store over an arbitrary filesystem.
func NewWithFilesystem(fs Filesystem) *Store {
	return &Store{fs: fs}
}

// Init brings up the card, then mounts. A failure propagates; the SD path is
// simply reported absent.
func (s *Store) Init() error {
	if s.prepare != nil {
		if err := s.prepare(); err != nil {
			return err
		}
	}
	if err := s.fs.Mount(); err != nil {
		return err
	}
	s.mounted = true
	return nil
}

// Deinit unmounts the card filesystem.
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
	if mode == storage.WriteAppend {
		if sk, ok := f.(io.Seeker); ok {
			if _, err := sk.Seek(0, io.SeekEnd); err != nil {
				f.Close()
				return err
			}
		}
	}
	s.handles[id] = f
	return nil
}

// Close closes the live handle of a logical file; a no-op without one.
func (s *Store) Close(id storage.FileID) error {
	if id >= storage.NumFiles || s.handles[id] == nil {
		return nil
	}
	err := s.handles[id].Close()
	s.handles[id] = nil
	return err
}

// Read reads from the live handle and returns the byte count, short at end
// of file.
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

// Size returns the byte size of a logical file.
func (s *Store) Size(id storage.FileID) (uint32, error) {
	if !s.mounted {
		return 0, ErrNotMounted
	}
	if id >= storage.NumFiles {
		return 0, os.ErrInvalid
	}
	info, err := s.fs.Stat(fileNames[id])
	if err != nil {
		return 0, err
	}
	return uint32(info.Size()), nil
}

// Present checks that a logical file exists by opening and closing it
// read-only.
func (s *Store) Present(id storage.FileID) error {
	if err := s.Open(id, storage.ReadOnly); err != nil {
		return err
	}
	return s.Close(id)
}

// FileCRC opens a logical file read-only and streams it through buf into the
// CRC unit.
func (s *Store) FileCRC(id storage.FileID, buf []byte) (uint32, error) {
	if err := s.Open(id, storage.ReadOnly); err != nil {
		return 0, err
	}
	defer s.Close(id)

	return crcunit.FileChecksum(crcunit.New(), buf, func(p []byte) (int, error) {
		return s.Read(id, p)
	})
}

// Golden-image surface consumed by the orchestrator.

// GoldenPresent reports whether the golden image exists on the card.
func (s *Store) GoldenPresent() error {
	return s.Present(storage.GoldenImage)
}

// OpenGolden opens the golden image read-only.
func (s *Store) OpenGolden() error {
	return s.Open(storage.GoldenImage, storage.ReadOnly)
}

// GoldenSize returns the golden image size in bytes.
func (s *Store) GoldenSize() (uint32, error) {
	return s.Size(storage.GoldenImage)
}

// ReadGolden reads from the open golden image.
func (s *Store) ReadGolden(p []byte) (int, error) {
	return s.Read(storage.GoldenImage, p)
}

// CloseGolden closes the golden image handle if one is live.
func (s *Store) CloseGolden() error {
	return s.Close(storage.GoldenImage)
}

// GoldenCRC computes the golden image checksum through buf.
func (s *Store) GoldenCRC(buf []byte) (uint32, error) {
	return s.FileCRC(storage.GoldenImage, buf)
}
