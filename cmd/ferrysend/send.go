package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/xmodem"
)

// padByte fills out the final packet, per the classic protocol (SUB).
const padByte = 0x1A

// maxRetries bounds resends of a single packet before the session aborts.
const maxRetries = 10

var (
	errCanceled  = errors.New("transfer canceled by device")
	errExhausted = errors.New("too many retries for one packet")
	errNoPoll    = errors.New("device never advertised CRC mode")
)

// session drives one XMODEM-CRC upload over a byte pipe. The pipe's reads
// must be bounded (the serial port carries a read timeout).
type session struct {
	rw        io.ReadWriter
	blockSize int
	progress  io.Writer
}

func (s *session) readByte() (byte, error) {
	var one [1]byte
	for {
		n, err := s.rw.Read(one[:])
		if n == 1 {
			return one[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// awaitPoll consumes input until the receiver advertises CRC mode with 'C'.
func (s *session) awaitPoll() error {
	for i := 0; i < maxRetries; i++ {
		b, err := s.readByte()
		if err != nil {
			return fmt.Errorf("%w: %v", errNoPoll, err)
		}
		if b == xmodem.PollCRC {
			return nil
		}
	}
	return errNoPoll
}

// buildPacket frames one payload block. data shorter than the block size is
// padded; longer panics, which flags a caller bug.
func buildPacket(seq uint8, data []byte, blockSize int) []byte {
	if len(data) > blockSize {
		panic("payload exceeds block size")
	}

	header := byte(xmodem.SOH)
	if blockSize == 1024 {
		header = xmodem.STX
	}

	p := make([]byte, 0, 3+blockSize+2)
	p = append(p, header, seq, 255-seq)
	p = append(p, data...)
	for i := len(data); i < blockSize; i++ {
		p = append(p, padByte)
	}
	crc := xmodem.CRC16(p[3 : 3+blockSize])
	return append(p, byte(crc>>8), byte(crc))
}

// sendPacket transmits one framed packet until the receiver ACKs it.
func (s *session) sendPacket(p []byte) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		if _, err := s.rw.Write(p); err != nil {
			return err
		}
	response:
		for {
			b, err := s.readByte()
			if err != nil {
				return err
			}
			switch b {
			case xmodem.ACK:
				return nil
			case xmodem.NAK:
				break response // resend
			case xmodem.CAN:
				return errCanceled
			case xmodem.PollCRC:
				// Stale poll queued before the packet landed; keep waiting.
				continue
			default:
				continue
			}
		}
	}
	return errExhausted
}

// send streams the whole image: poll, numbered packets, EOT.
func (s *session) send(data []byte) error {
	if err := s.awaitPoll(); err != nil {
		return err
	}

	seq := uint8(1)
	for off := 0; off < len(data); off += s.blockSize {
		end := off + s.blockSize
		if end > len(data) {
			end = len(data)
		}
		if err := s.sendPacket(buildPacket(seq, data[off:end], s.blockSize)); err != nil {
			return fmt.Errorf("packet %d: %w", seq, err)
		}
		seq++
		if s.progress != nil {
			fmt.Fprint(s.progress, ".")
		}
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if _, err := s.rw.Write([]byte{xmodem.EOT}); err != nil {
			return err
		}
		b, err := s.readByte()
		if err != nil {
			return err
		}
		if b == xmodem.ACK {
			return nil
		}
	}
	return errExhausted
}
