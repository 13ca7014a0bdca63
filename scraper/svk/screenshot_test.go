package svk

import (
	"os"
	"path/filepath"
	"testing"

	"svk-scraper/config"
	"svk-scraper/utils"
)

func TestSaveScreenshotReplacesPreviousCapture(t *testing.T) {
	cfg := &config.Config{DataDir: filepath.Join(t.TempDir(), "data")}
	path := cfg.ScreenshotPath()
	if filepath.Base(path) != "error_screenshot.png" {
		t.Fatalf("ScreenshotPath: got %q", path)
	}

	if err := saveScreenshot(path, []byte("first")); err != nil {
		t.Fatalf("saveScreenshot: %v", err)
	}
	if err := saveScreenshot(path, []byte("second")); err != nil {
		t.Fatalf("saveScreenshot: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("screenshot content: got %q, want %q", got, "second")
	}
}

func TestSaveScreenshotRejectsEmptyImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_screenshot.png")
	if err := saveScreenshot(path, nil); err == nil {
		t.Error("expected error for empty screenshot")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("no file should be written, stat err = %v", err)
	}
}

func TestCaptureFailureDisabledIsNoop(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir(), ScreenshotOnError: false}
	s := New(cfg, utils.NewNopLogger())
	s.captureFailure(nil)

	if _, err := os.Stat(cfg.ScreenshotPath()); !os.IsNotExist(err) {
		t.Errorf("disabled capture wrote a file, stat err = %v", err)
	}
}
