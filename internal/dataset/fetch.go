package dataset

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Fetch downloads the raw dataset from a URL to a local path.
func Fetch(url, dest string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("dataset: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset: fetch %s: unexpected status %s", url, resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", dest, err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return fmt.Errorf("dataset: save %s: %w", dest, err)
	}
	slog.Info("fetched raw dataset", "url", url, "dest", dest, "bytes", written)
	return nil
}
