package norfs

import "github.com/Fasal-Tech/FileFerry-Click2Flash/storage"

// Golden-image operations consumed by the orchestrator and the XMODEM
// receiver. The file is opened in append/create mode so repeated writes
// accumulate a streamed transfer.

// OpenGolden opens the golden image for appending, creating it if absent.
func (s *Store) OpenGolden() error {
	return s.Open(storage.GoldenImage, storage.WriteAppend)
}

// WriteGolden appends to the open golden image.
func (s *Store) WriteGolden(p []byte) error {
	return s.Write(storage.GoldenImage, p)
}

// ReadGolden reads from the open golden image.
func (s *Store) ReadGolden(p []byte) (int, error) {
	return s.Read(storage.GoldenImage, p)
}

// CloseGolden closes the golden image handle if one is live.
func (s *Store) CloseGolden() error {
	return s.Close(storage.GoldenImage)
}

// DeleteGolden removes the golden image.
func (s *Store) DeleteGolden() error {
	return s.Delete(storage.GoldenImage)
}

// GoldenCRC computes the golden image checksum through buf.
func (s *Store) GoldenCRC(buf []byte) (uint32, error) {
	return s.FileCRC(storage.GoldenImage, buf)
}
