package svk

import (
	"bytes"
	"fmt"
	"io"

	"svk-scraper/storage"
)

// saveScreenshot atomically replaces path with the captured image.
func saveScreenshot(path string, img []byte) error {
	if len(img) == 0 {
		return fmt.Errorf("svk: empty screenshot for %s", path)
	}
	err := storage.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(img))
		return err
	})
	if err != nil {
		return fmt.Errorf("svk: save screenshot: %w", err)
	}
	return nil
}
