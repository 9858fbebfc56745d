//go:build tinygo

package sdfs

import (
	"machine"
	"os"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"
)

// fatAdapter narrows *fatfs.FATFS to the local Filesystem interface.
type fatAdapter struct {
	f *fatfs.FATFS
}

func (a fatAdapter) Mount() error   { return a.f.Mount() }
func (a fatAdapter) Unmount() error { return a.f.Unmount() }
func (a fatAdapter) OpenFile(name string, flags int) (File, error) {
	return a.f.OpenFile(name, flags)
}
func (a fatAdapter) Stat(name string) (os.FileInfo, error) {
	return a.f.Stat(name)
}

// NewOnBoard wires the SD slot: SPI-mode card under FAT. The card itself is
// configured lazily at Init, when the orchestrator enters the SD path.
func NewOnBoard(spi *machine.SPI, sck, sdo, sdi, cs machine.Pin) *Store {
	sd := sdcard.New(spi, sck, sdo, sdi, cs)
	fs := fatfs.New(&sd)
	fs.Configure(&fatfs.Config{SectorSize: 512})

	s := NewWithFilesystem(fatAdapter{f: fs})
	s.prepare = func() error {
		return sd.Configure()
	}
	return s
}
