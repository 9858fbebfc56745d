package flash

// BlockDev exposes the device through the tinyfs.BlockDevice contract: byte
// addressed reads and programs, 64 KiB erase units. The filesystem adapter
// hands this view to littlefs.
func (d *Device) BlockDev() *BlockDevice {
	return &BlockDevice{d: d}
}

// BlockDevice is the tinyfs.BlockDevice view of a Device.
type BlockDevice struct {
	d *Device
}

// ReadAt implements tinyfs.BlockDevice.
func (b *BlockDevice) ReadAt(p []byte, off int64) (int, error) {
	if err := b.d.ReadBytes(p, uint32(off)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteAt implements tinyfs.BlockDevice. Writes split into page programs at
// page boundaries; the destination range must be erased.
func (b *BlockDevice) WriteAt(p []byte, off int64) (int, error) {
	if err := b.d.spanPages(p, uint32(off), b.d.writePageSpan); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Size implements tinyfs.BlockDevice.
func (b *BlockDevice) Size() int64 {
	return int64(b.d.Capacity())
}

// WriteBlockSize implements tinyfs.BlockDevice: one program page.
func (b *BlockDevice) WriteBlockSize() int64 {
	return int64(b.d.PageSize)
}

// EraseBlockSize implements tinyfs.BlockDevice: one 64 KiB erase block.
func (b *BlockDevice) EraseBlockSize() int64 {
	return int64(b.d.BlockSize)
}

// EraseBlocks implements tinyfs.BlockDevice, erasing len consecutive 64 KiB
// blocks starting at block index start.
func (b *BlockDevice) EraseBlocks(start, len int64) error {
	for i := int64(0); i < len; i++ {
		if err := b.d.EraseBlock(uint32(start + i)); err != nil {
			return err
		}
	}
	return nil
}
