// Package provision seeds the airports table from the Natural Earth airports
// shapefile the first time the server starts.
package provision

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/flightmap/internal/models"
)

const shapefileBase = "ne_10m_airports"

var (
	// airportsURL serves ne_10m_airports.zip (public domain, Natural Earth).
	airportsURL = "https://naciscdn.org/naturalearth/10m/cultural/ne_10m_airports.zip"
	provisionMu sync.Mutex
)

// AirportStore is the part of the store provisioning writes to.
type AirportStore interface {
	AirportCount(ctx context.Context) (int, error)
	UpsertAirports(ctx context.Context, airports []models.Airport) (int, error)
}

// NeedsProvisioning reports whether the airports table is empty.
func NeedsProvisioning(ctx context.Context, s AirportStore) (bool, error) {
	n, err := s.AirportCount(ctx)
	if err != nil {
		return false, fmt.Errorf("checking airports: %w", err)
	}
	return n == 0, nil
}

// Provision downloads the airports shapefile into dataDir and loads it into s,
// unless airports are already present. Progress lines go to progressChan when
// it is non-nil, otherwise to the log.
func Provision(ctx context.Context, s AirportStore, dataDir string, progressChan chan<- string) error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	needs, err := NeedsProvisioning(ctx, s)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	sendProgress := func(msg string) {
		if progressChan != nil {
			progressChan <- msg
		} else {
			log.Printf("[provision] %s", msg)
		}
	}

	sendProgress("Airports table is empty, provisioning...")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	zipPath := filepath.Join(dataDir, shapefileBase+".zip")
	sendProgress(fmt.Sprintf("Downloading airports from %s...", airportsURL))
	if err := downloadFile(ctx, zipPath, airportsURL); err != nil {
		return fmt.Errorf("downloading shapefile: %w", err)
	}
	defer os.Remove(zipPath)

	sendProgress("Extracting shapefile...")
	if err := unzipFile(zipPath, dataDir); err != nil {
		return fmt.Errorf("extracting shapefile: %w", err)
	}
	defer cleanupShapefiles(dataDir, shapefileBase)

	airports, err := ReadAirports(filepath.Join(dataDir, shapefileBase+".shp"))
	if err != nil {
		return err
	}

	sendProgress(fmt.Sprintf("Loading %d airports...", len(airports)))
	if _, err := s.UpsertAirports(ctx, airports); err != nil {
		return fmt.Errorf("storing airports: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned %d airports", len(airports)))
	return nil
}

func downloadFile(ctx context.Context, path, url string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// unzipFile extracts src into dest, refusing entries that escape it.
func unzipFile(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extract(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func cleanupShapefiles(dir, base string) {
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".README.html", ".VERSION.txt"} {
		os.Remove(filepath.Join(dir, base+ext))
	}
}
