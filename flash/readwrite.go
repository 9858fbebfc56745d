package flash

import "time"

// ReadBytes fills p starting at the absolute byte address using the fast-read
// opcode with one dummy byte.
func (d *Device) ReadBytes(p []byte, addr uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.configured {
		return ErrNotConfigured
	}
	return d.readBytesLocked(p, addr)
}

func (d *Device) readBytesLocked(p []byte, addr uint32) error {
	d.cs.Low()
	defer d.cs.High()
	if err := d.sendAddress(cmdFastRead, cmdFastRead4B, addr); err != nil {
		return err
	}
	if _, err := d.transfer(0); err != nil { // dummy cycle
		return err
	}
	for i := range p {
		v, err := d.transfer(dummyByte)
		if err != nil {
			return err
		}
		p[i] = v
	}
	return nil
}

// ReadByte reads the single byte at the absolute address.
func (d *Device) ReadByte(addr uint32) (byte, error) {
	var one [1]byte
	if err := d.ReadBytes(one[:], addr); err != nil {
		return 0, err
	}
	return one[0], nil
}

// ReadPage reads from one page. offset is the byte offset within the page;
// the read is clamped at the page end.
func (d *Device) ReadPage(p []byte, page, offset uint32) error {
	if offset >= d.PageSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.PageSize {
		n = d.PageSize - offset
	}
	return d.ReadBytes(p[:n], page*d.PageSize+offset)
}

// ReadSector reads from one 4 KiB sector, iterating page reads across page
// boundaries.
func (d *Device) ReadSector(p []byte, sector, offset uint32) error {
	if offset >= d.SectorSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.SectorSize {
		n = d.SectorSize - offset
	}
	return d.spanPages(p[:n], sector*d.SectorSize+offset, d.readPageSpan)
}

// ReadBlock reads from one 64 KiB block, iterating page reads across page
// boundaries.
func (d *Device) ReadBlock(p []byte, block, offset uint32) error {
	if offset >= d.BlockSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.BlockSize {
		n = d.BlockSize - offset
	}
	return d.spanPages(p[:n], block*d.BlockSize+offset, d.readPageSpan)
}

func (d *Device) readPageSpan(p []byte, page, offset uint32) error {
	return d.ReadPage(p, page, offset)
}

func (d *Device) writePageSpan(p []byte, page, offset uint32) error {
	return d.WritePage(p, page, offset)
}

// spanPages walks an absolute byte range page by page, invoking op with the
// page index, intra-page offset and the sub-slice that fits that page.
func (d *Device) spanPages(p []byte, addr uint32, op func(p []byte, page, offset uint32) error) error {
	for len(p) > 0 {
		page := addr / d.PageSize
		offset := addr % d.PageSize
		n := d.PageSize - offset
		if uint32(len(p)) < n {
			n = uint32(len(p))
		}
		if err := op(p[:n], page, offset); err != nil {
			return err
		}
		p = p[n:]
		addr += n
	}
	return nil
}

// WriteByte programs a single byte at the absolute address. The destination
// must be erased first.
func (d *Device) WriteByte(b byte, addr uint32) error {
	if !d.configured {
		return ErrNotConfigured
	}
	one := [1]byte{b}
	return d.WritePage(one[:], addr/d.PageSize, addr%d.PageSize)
}

// WritePage programs up to one page. offset is the byte offset within the
// page; the write is clamped at the page end, as a page program wraps inside
// the page on the wire.
func (d *Device) WritePage(p []byte, page, offset uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.configured {
		return ErrNotConfigured
	}
	if offset >= d.PageSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.PageSize {
		n = d.PageSize - offset
	}

	if err := d.waitUntilReady(readyTimeoutProgram); err != nil {
		return err
	}
	if err := d.writeEnable(); err != nil {
		return err
	}

	d.cs.Low()
	err := d.sendAddress(cmdPageProgram, cmdPageProgram4B, page*d.PageSize+offset)
	if err == nil {
		for i := uint32(0); i < n; i++ {
			if _, err = d.transfer(p[i]); err != nil {
				break
			}
		}
	}
	d.cs.High()
	if err != nil {
		return err
	}

	if err := d.waitUntilReady(readyTimeoutProgram); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	return nil
}

// WriteSector programs into one 4 KiB sector, splitting across page-program
// operations at page boundaries.
func (d *Device) WriteSector(p []byte, sector, offset uint32) error {
	if offset >= d.SectorSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.SectorSize {
		n = d.SectorSize - offset
	}
	return d.spanPages(p[:n], sector*d.SectorSize+offset, d.writePageSpan)
}

// WriteBlock programs into one 64 KiB block, splitting across page-program
// operations at page boundaries.
func (d *Device) WriteBlock(p []byte, block, offset uint32) error {
	if offset >= d.BlockSize {
		return ErrOutOfRange
	}
	n := uint32(len(p))
	if offset+n > d.BlockSize {
		n = d.BlockSize - offset
	}
	return d.spanPages(p[:n], block*d.BlockSize+offset, d.writePageSpan)
}

// emptyCheckChunk is the read granule of the emptiness scans.
const emptyCheckChunk = 32

// isEmptyRange streams the byte range in 32-byte chunks and reports false at
// the first byte that is not 0xFF.
func (d *Device) isEmptyRange(addr, n uint32) (bool, error) {
	var chunk [emptyCheckChunk]byte
	for n > 0 {
		take := uint32(len(chunk))
		if n < take {
			take = n
		}
		if err := d.ReadBytes(chunk[:take], addr); err != nil {
			return false, err
		}
		for _, b := range chunk[:take] {
			if b != 0xFF {
				return false, nil
			}
		}
		addr += take
		n -= take
	}
	return true, nil
}

// IsEmptyPage reports whether n bytes of a page starting at offset are all
// 0xFF. n == 0 checks to the end of the page.
func (d *Device) IsEmptyPage(page, offset, n uint32) (bool, error) {
	if n == 0 || offset+n > d.PageSize {
		n = d.PageSize - offset
	}
	return d.isEmptyRange(page*d.PageSize+offset, n)
}

// IsEmptySector reports whether n bytes of a sector starting at offset are
// all 0xFF. n == 0 checks the whole remainder.
func (d *Device) IsEmptySector(sector, offset, n uint32) (bool, error) {
	if n == 0 || offset+n > d.SectorSize {
		n = d.SectorSize - offset
	}
	return d.isEmptyRange(sector*d.SectorSize+offset, n)
}

// IsEmptyBlock reports whether n bytes of a block starting at offset are all
// 0xFF. n == 0 checks the whole remainder.
func (d *Device) IsEmptyBlock(block, offset, n uint32) (bool, error) {
	if n == 0 || offset+n > d.BlockSize {
		n = d.BlockSize - offset
	}
	return d.isEmptyRange(block*d.BlockSize+offset, n)
}
