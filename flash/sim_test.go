package flash

// simChip is a behavioral model of a W25Q chip on a SPI bus. It decodes the
// byte stream the driver clocks out between chip selects and backs it with a
// plain byte array, enforcing NOR semantics: programs can only clear bits,
// erases set 0xFF, and nothing is written without the write-enable latch.
type simChip struct {
	mem          []byte
	capacityByte byte
	uniq         [8]byte

	selected bool
	wel      bool

	// per-transaction decode state
	cmd       byte
	pos       int
	addr      uint32
	addrBytes int
	pageBase  uint32

	erases   int
	programs int
}

func newSimChip(capacityByte byte) *simChip {
	blocks := map[byte]uint32{
		0x11: 2, 0x12: 4, 0x13: 8, 0x14: 16, 0x15: 32,
		0x16: 64, 0x17: 128, 0x18: 256, 0x19: 512, 0x20: 1024,
	}[capacityByte]
	c := &simChip{
		mem:          make([]byte, blocks*64*1024),
		capacityByte: capacityByte,
		uniq:         [8]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04},
	}
	for i := range c.mem {
		c.mem[i] = 0xFF
	}
	return c
}

func (c *simChip) selectChip() { c.selected = true; c.cmd = 0; c.pos = 0; c.addr = 0 }
func (c *simChip) deselectChip() {
	if c.selected {
		c.commit()
	}
	c.selected = false
}

// commit applies deferred effects at the end of a transaction.
func (c *simChip) commit() {
	switch c.cmd {
	case 0x06:
		c.wel = true
	case 0x04:
		c.wel = false
	case 0xC7:
		if c.wel {
			for i := range c.mem {
				c.mem[i] = 0xFF
			}
			c.erases++
			c.wel = false
		}
	case 0x20, 0x21:
		if c.wel && c.pos > c.addrBytes {
			c.eraseRange(c.addr, 4096)
		}
	case 0xD8, 0xDC:
		if c.wel && c.pos > c.addrBytes {
			c.eraseRange(c.addr, 64*1024)
		}
	case 0x02, 0x12:
		c.wel = false
	}
}

func (c *simChip) eraseRange(addr, size uint32) {
	base := addr - addr%size
	for i := base; i < base+size && i < uint32(len(c.mem)); i++ {
		c.mem[i] = 0xFF
	}
	c.erases++
	c.wel = false
}

func opcodeAddrBytes(op byte) int {
	switch op {
	case 0x02, 0x0B, 0x20, 0xD8:
		return 3
	case 0x12, 0x0C, 0x21, 0xDC:
		return 4
	}
	return 0
}

// Transfer implements drivers.SPI for a single byte.
func (c *simChip) Transfer(b byte) (byte, error) {
	if !c.selected {
		return 0xFF, nil
	}

	if c.pos == 0 {
		c.cmd = b
		c.addrBytes = opcodeAddrBytes(b)
		c.pos = 1
		return 0xFF, nil
	}

	pos := c.pos
	c.pos++

	switch c.cmd {
	case 0x9F:
		switch pos {
		case 1:
			return 0xEF, nil
		case 2:
			return 0x40, nil
		case 3:
			return c.capacityByte, nil
		}
		return 0xFF, nil

	case 0x4B:
		if pos <= 4 {
			return 0xFF, nil // dummy cycles
		}
		if pos-5 < len(c.uniq) {
			return c.uniq[pos-5], nil
		}
		return 0xFF, nil

	case 0x05:
		s := byte(0)
		if c.wel {
			s |= 0x02
		}
		return s, nil

	case 0x35, 0x15:
		return 0x00, nil

	case 0x0B, 0x0C:
		if pos <= c.addrBytes {
			c.addr = c.addr<<8 | uint32(b)
			return 0xFF, nil
		}
		if pos == c.addrBytes+1 {
			return 0xFF, nil // dummy byte
		}
		if c.addr < uint32(len(c.mem)) {
			v := c.mem[c.addr]
			c.addr++
			return v, nil
		}
		return 0xFF, nil

	case 0x02, 0x12:
		if pos <= c.addrBytes {
			c.addr = c.addr<<8 | uint32(b)
			if pos == c.addrBytes {
				c.pageBase = c.addr - c.addr%256
			}
			return 0xFF, nil
		}
		if c.wel && c.addr < uint32(len(c.mem)) {
			c.mem[c.addr] &= b // programming only clears bits
			c.programs++
		}
		// address wraps within the page
		c.addr = c.pageBase + (c.addr-c.pageBase+1)%256
		return 0xFF, nil

	case 0x20, 0x21, 0xD8, 0xDC:
		if pos <= c.addrBytes {
			c.addr = c.addr<<8 | uint32(b)
		}
		return 0xFF, nil
	}

	return 0xFF, nil
}

// Tx implements drivers.SPI in terms of Transfer.
func (c *simChip) Tx(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		out := byte(0)
		if i < len(w) {
			out = w[i]
		}
		v, err := c.Transfer(out)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = v
		}
	}
	return nil
}

// simCS is the chip-select line of a simChip.
type simCS struct {
	chip *simChip
}

func (p *simCS) High() { p.chip.deselectChip() }
func (p *simCS) Low()  { p.chip.selectChip() }

func newSimDevice(capacityByte byte) (*Device, *simChip) {
	chip := newSimChip(capacityByte)
	dev := New(chip, &simCS{chip: chip})
	return dev, chip
}
