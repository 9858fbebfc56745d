package storage

import (
	"github.com/Fasal-Tech/FileFerry-Click2Flash/console"
)

// PowerControl gates power to the target flash board. The SPI bus is part of
// the gate: leaving it driven would back-power the board through its pins.
type PowerControl interface {
	SetPower(on bool)
}

// ModePin reads the transfer-mode strap. machine.Pin's Get satisfies it.
type ModePin interface {
	Get() bool
}

// Manager composes the two media for the orchestrator.
type Manager struct {
	Flash FlashStore
	SD    SDStore

	Con   *console.Console
	Power PowerControl
	Mode  ModePin
}

// SetPower applies or removes target-board power.
func (m *Manager) SetPower(on bool) {
	if m.Power != nil {
		m.Power.SetPower(on)
	}
}

// CurrentTransferMode reads the mode strap: low selects the SD path, high
// the XMODEM path.
func (m *Manager) CurrentTransferMode() TransferMode {
	if m.Mode != nil && m.Mode.Get() {
		return ModeXmodemToFlash
	}
	return ModeSDToFlash
}

// CopyGoldenSDToFlash streams the golden image from the SD card into the
// flash filesystem through the shared buffer, emitting one progress tick per
// buffer. Both files are closed on every exit path.
func (m *Manager) CopyGoldenSDToFlash() error {
	buf := Scratch()

	sdErr := m.SD.OpenGolden()
	flashErr := m.Flash.OpenGolden()

	if sdErr != nil || flashErr != nil {
		m.SD.CloseGolden()
		m.Flash.CloseGolden()
		if sdErr != nil {
			return sdErr
		}
		return flashErr
	}

	size, err := m.SD.GoldenSize()
	remaining := size
	done := false

	for err == nil && !done {
		for i := range buf {
			buf[i] = 0
		}

		n, readErr := m.SD.ReadGolden(buf)
		if readErr != nil {
			err = readErr
			break
		}
		if writeErr := m.Flash.WriteGolden(buf[:n]); writeErr != nil {
			err = writeErr
			break
		}

		if remaining < uint32(len(buf)) {
			done = true
		} else {
			remaining -= uint32(len(buf))
		}

		m.Con.PrintProgressBar()
	}

	if closeErr := m.SD.CloseGolden(); err == nil {
		err = closeErr
	}
	if closeErr := m.Flash.CloseGolden(); err == nil {
		err = closeErr
	}
	return err
}

// CompareGoldenCRC computes the golden image CRC on both media, serially,
// with the shared buffer, and reports whether they match.
func (m *Manager) CompareGoldenCRC() (bool, error) {
	buf := Scratch()

	sdCRC, sdErr := m.SD.GoldenCRC(buf)
	flashCRC, flashErr := m.Flash.GoldenCRC(buf)

	if sdErr != nil {
		return false, sdErr
	}
	if flashErr != nil {
		return false, flashErr
	}

	m.Con.Print(console.Lvl0, "\r\n>> CRC of Golden Image file in SD : %X | Flash : %X", sdCRC, flashCRC)

	return sdCRC == flashCRC, nil
}
