// Program ferrysend uploads a golden image to a FileFerry Click2Flash
// appliance over its console serial port using XMODEM with CRC-16.
//
// Strap the appliance's transfer-mode pin high, press the flash button and
// run:
//
//	ferrysend --tty /dev/ttyUSB0 --file fallback.txt
//
// The tool waits for the appliance's 'C' poll, streams the file in 128- or
// 1024-byte packets and finishes with EOT. The image's CRC-32 is printed so
// the operator can compare it against records; note the appliance itself
// skips CRC comparison on the XMODEM path because of sender-side padding.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/term"
	"zappem.net/pub/debug/xcrc32"
	"zappem.net/pub/debug/xxd"
)

var (
	tty     = flag.String("tty", "/dev/ttyUSB0", "tty with which to connect to the flasher")
	file    = flag.String("file", "", "image file to upload")
	baud    = flag.Int("baud", 115200, "serial baud rate")
	block   = flag.Int("block", 1024, "packet payload size (128 or 1024)")
	dump    = flag.Bool("dump", false, "hex dump the head of the image before sending")
	timeout = flag.Duration("timeout", 30*time.Second, "serial read timeout")
)

func main() {
	flag.Parse()

	if *file == "" {
		log.Fatal("--file is required")
	}
	if *block != 128 && *block != 1024 {
		log.Fatal("--block must be 128 or 1024")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("unable to read image: %v", err)
	}

	_, crc := xcrc32.NewCRC32(data)
	fmt.Printf("image %q: %d bytes, crc32=0x%08x\n", *file, len(data), crc)

	if *dump {
		head := data
		if len(head) > 256 {
			head = head[:256]
		}
		xxd.Print(0, head)
	}

	t, err := term.Open(*tty, term.Speed(*baud), term.RawMode)
	if err != nil {
		log.Fatalf("unable to open serial port: %v", err)
	}
	defer t.Close()
	if err := t.SetReadTimeout(*timeout); err != nil {
		log.Fatalf("unable to set read timeout: %v", err)
	}

	fmt.Println("waiting for the flasher to request the transfer...")
	s := &session{rw: t, blockSize: *block, progress: os.Stdout}
	if err := s.send(data); err != nil {
		fmt.Println()
		log.Fatalf("transfer failed: %v", err)
	}
	fmt.Println("\ntransfer complete")
}
