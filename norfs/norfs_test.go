package norfs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/crcunit"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/storage"
)

// memFS is an in-memory Filesystem with littlefs-like flag handling.
type memFS struct {
	formatted bool
	failMount int // mount failures to inject before succeeding
	files     map[string][]byte

	mountCalls  int
	formatCalls int
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}}
}

func (m *memFS) Mount() error {
	m.mountCalls++
	if m.failMount > 0 {
		m.failMount--
		return errors.New("corrupt superblock")
	}
	return nil
}

func (m *memFS) Format() error {
	m.formatCalls++
	m.files = map[string][]byte{}
	m.formatted = true
	return nil
}

func (m *memFS) Unmount() error { return nil }

func (m *memFS) Remove(name string) error {
	if _, ok := m.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

func (m *memFS) OpenFile(name string, flags int) (File, error) {
	_, exists := m.files[name]
	if !exists {
		if flags&os.O_CREATE == 0 {
			return nil, os.ErrNotExist
		}
		m.files[name] = nil
	}
	return &memFile{fs: m, name: name, flags: flags}, nil
}

type memFile struct {
	fs    *memFS
	name  string
	flags int
	pos   int
}

func (f *memFile) Read(p []byte) (int, error) {
	data := f.fs.files[f.name]
	if f.pos >= len(data) {
		return 0, io.EOF
	}
	n := copy(p, data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.flags&os.O_APPEND != 0 {
		f.fs.files[f.name] = append(f.fs.files[f.name], p...)
		return len(p), nil
	}
	data := f.fs.files[f.name]
	for len(data) < f.pos+len(p) {
		data = append(data, 0)
	}
	copy(data[f.pos:], p)
	f.fs.files[f.name] = data
	f.pos += len(p)
	return len(p), nil
}

func (f *memFile) Close() error { return nil }

func TestInitMountsDirectly(t *testing.T) {
	fs := newMemFS()
	s := NewWithFilesystem(fs)

	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if fs.formatCalls != 0 {
		t.Error("clean mount should not format")
	}
}

func TestInitFormatsOnFirstBoot(t *testing.T) {
	fs := newMemFS()
	fs.failMount = 1
	s := NewWithFilesystem(fs)

	if err := s.Init(); err != nil {
		t.Fatalf("Init after format: %v", err)
	}
	if fs.formatCalls != 1 || fs.mountCalls != 2 {
		t.Errorf("format/mount calls = %d/%d, want 1/2", fs.formatCalls, fs.mountCalls)
	}
}

func TestInitDoubleMountFailureIsFatal(t *testing.T) {
	fs := newMemFS()
	fs.failMount = 2
	s := NewWithFilesystem(fs)

	if err := s.Init(); err == nil {
		t.Fatal("Init should fail when the post-format mount fails")
	}
	if err := s.OpenGolden(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("OpenGolden after failed init = %v, want ErrNotMounted", err)
	}
}

func TestGoldenAppendAcrossOpens(t *testing.T) {
	fs := newMemFS()
	s := NewWithFilesystem(fs)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Repeated WRITE_APPEND opens accumulate content.
	for _, chunk := range [][]byte{[]byte("abc"), []byte("defg")} {
		if err := s.OpenGolden(); err != nil {
			t.Fatalf("OpenGolden: %v", err)
		}
		if err := s.WriteGolden(chunk); err != nil {
			t.Fatalf("WriteGolden: %v", err)
		}
		if err := s.CloseGolden(); err != nil {
			t.Fatalf("CloseGolden: %v", err)
		}
	}

	if err := s.Open(storage.GoldenImage, storage.ReadOnly); err != nil {
		t.Fatalf("Open RO: %v", err)
	}
	buf := make([]byte, 16)
	n, err := s.Read(storage.GoldenImage, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("abcdefg")) {
		t.Errorf("read back %q", buf[:n])
	}
	s.Close(storage.GoldenImage)
}

func TestSingleHandlePerFile(t *testing.T) {
	fs := newMemFS()
	s := NewWithFilesystem(fs)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := s.OpenGolden(); err != nil {
		t.Fatalf("OpenGolden: %v", err)
	}
	if err := s.OpenGolden(); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second open = %v, want ErrAlreadyOpen", err)
	}
	if err := s.CloseGolden(); err != nil {
		t.Fatalf("CloseGolden: %v", err)
	}
	if err := s.OpenGolden(); err != nil {
		t.Errorf("open after close = %v", err)
	}
}

func TestCloseWithoutOpenIsNoop(t *testing.T) {
	s := NewWithFilesystem(newMemFS())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.CloseGolden(); err != nil {
		t.Errorf("CloseGolden without open = %v", err)
	}
}

func TestDeleteGolden(t *testing.T) {
	fs := newMemFS()
	s := NewWithFilesystem(fs)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	s.OpenGolden()
	s.WriteGolden([]byte("payload"))
	s.CloseGolden()

	if err := s.DeleteGolden(); err != nil {
		t.Fatalf("DeleteGolden: %v", err)
	}
	if _, ok := fs.files["fallback.txt"]; ok {
		t.Error("golden image still present after delete")
	}
}

func TestModeFlagMapping(t *testing.T) {
	tests := []struct {
		mode storage.Mode
		want int
	}{
		{storage.ReadOnly, os.O_RDONLY},
		{storage.WriteOnly, os.O_WRONLY},
		{storage.ReadWrite, os.O_RDWR},
		{storage.ReadCreate, os.O_RDONLY | os.O_CREATE},
		{storage.WriteCreate, os.O_WRONLY | os.O_CREATE},
		{storage.WriteAppend, os.O_WRONLY | os.O_CREATE | os.O_APPEND},
		{storage.ReadWriteCreate, os.O_RDWR | os.O_CREATE},
	}
	for _, tc := range tests {
		if got := modeFlags[tc.mode]; got != tc.want {
			t.Errorf("modeFlags[%d] = %#x, want %#x", tc.mode, got, tc.want)
		}
	}
}

func TestGoldenCRCMatchesDirectChecksum(t *testing.T) {
	fs := newMemFS()
	s := NewWithFilesystem(fs)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	content := bytes.Repeat([]byte{0xA5, 0x5A, 0x0F, 0xF0}, 50)
	s.OpenGolden()
	s.WriteGolden(content)
	s.CloseGolden()

	buf := make([]byte, 64)
	got, err := s.GoldenCRC(buf)
	if err != nil {
		t.Fatalf("GoldenCRC: %v", err)
	}

	u := crcunit.New()
	want := u.AccumulateBuffer(content, len(content))
	if got != want {
		t.Errorf("GoldenCRC = %08X, want %08X", got, want)
	}
}

func TestGoldenCRCMissingFile(t *testing.T) {
	s := NewWithFilesystem(newMemFS())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := s.GoldenCRC(make([]byte, 64)); err == nil {
		t.Error("GoldenCRC on a missing file should fail")
	}
}
