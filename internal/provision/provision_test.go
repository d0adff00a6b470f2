package provision

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"

	"github.com/ngmaloney/flightmap/internal/database"
	"github.com/ngmaloney/flightmap/internal/store"
)

type feature struct {
	x, y            float64
	iata, name, gps string
}

// writeShapefile creates base.shp/.shx/.dbf in dir with Natural Earth style columns.
func writeShapefile(t *testing.T, dir, base string, features []feature) string {
	t.Helper()
	path := filepath.Join(dir, base+".shp")

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatalf("creating shapefile: %v", err)
	}
	err = w.SetFields([]shp.Field{
		shp.StringField("iata_code", 8),
		shp.StringField("name", 64),
		shp.StringField("gps_code", 8),
	})
	if err != nil {
		t.Fatalf("setting fields: %v", err)
	}

	for _, f := range features {
		n := int(w.Write(&shp.Point{X: f.x, Y: f.y}))
		w.WriteAttribute(n, 0, f.iata)
		w.WriteAttribute(n, 1, f.name)
		w.WriteAttribute(n, 2, f.gps)
	}
	w.Close()
	fixAttributeFile(t, dir, base)
	return path
}

// fixAttributeFile moves base+"dbf" to base+".dbf". The shapefile writer
// drops the dot while the reader expects it.
func fixAttributeFile(t *testing.T, dir, base string) {
	t.Helper()
	if err := os.Rename(filepath.Join(dir, base+"dbf"), filepath.Join(dir, base+".dbf")); err != nil {
		t.Fatalf("renaming attribute file: %v", err)
	}
}

var testFeatures = []feature{
	{-122.31, 47.45, "SEA", "Seattle-Tacoma Int'l", "KSEA"},
	{-73.78, 40.64, "jfk", "John F Kennedy Int'l", "KJFK"},
	{10.0, 10.0, "", "Unnamed strip", ""},
	{-0.45, 51.47, "LHR", "London Heathrow", "EGLL"},
	{-0.46, 51.48, "LHR", "Duplicate Heathrow", "EGLL"},
}

func TestReadAirports(t *testing.T) {
	path := writeShapefile(t, t.TempDir(), "airports", testFeatures)

	airports, err := ReadAirports(path)
	if err != nil {
		t.Fatalf("ReadAirports() error = %v", err)
	}
	if len(airports) != 3 {
		t.Fatalf("len(airports) = %d, want 3", len(airports))
	}

	jfk := airports[1]
	if jfk.Code != "JFK" {
		t.Errorf("Code = %s, want JFK", jfk.Code)
	}
	if jfk.ICAO != "KJFK" {
		t.Errorf("ICAO = %s, want KJFK", jfk.ICAO)
	}
	if jfk.Name != "John F Kennedy Int'l" {
		t.Errorf("Name = %q", jfk.Name)
	}
	if jfk.Longitude != -73.78 || jfk.Latitude != 40.64 {
		t.Errorf("position = (%v, %v), want (-73.78, 40.64)", jfk.Longitude, jfk.Latitude)
	}
	if airports[2].Name != "London Heathrow" {
		t.Errorf("duplicate code replaced the first feature: %q", airports[2].Name)
	}
}

func TestReadAirports_MissingCodeColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.shp")
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatalf("creating shapefile: %v", err)
	}
	w.SetFields([]shp.Field{shp.StringField("label", 16)})
	n := int(w.Write(&shp.Point{X: 1, Y: 1}))
	w.WriteAttribute(n, 0, "x")
	w.Close()
	fixAttributeFile(t, dir, "other")

	if _, err := ReadAirports(path); err == nil {
		t.Error("expected an error for a shapefile without an IATA column")
	}
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

// zipShapefile packs the shapefile parts written by writeShapefile.
func zipShapefile(t *testing.T, dir, base string) []byte {
	t.Helper()
	zipPath := filepath.Join(dir, "bundle.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(filepath.Join(dir, base+ext))
		if err != nil {
			t.Fatalf("reading %s: %v", ext, err)
		}
		fw, err := zw.Create(base + ext)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	zw.Close()
	out.Close()

	data, err := os.ReadFile(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestProvision(t *testing.T) {
	srcDir := t.TempDir()
	writeShapefile(t, srcDir, shapefileBase, testFeatures)
	bundle := zipShapefile(t, srcDir, shapefileBase)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(bundle)
	}))
	defer server.Close()

	oldURL := airportsURL
	airportsURL = server.URL + "/ne_10m_airports.zip"
	defer func() { airportsURL = oldURL }()

	s := newStore(t)
	ctx := context.Background()

	needs, err := NeedsProvisioning(ctx, s)
	if err != nil || !needs {
		t.Fatalf("NeedsProvisioning() = %v, %v; want true, nil", needs, err)
	}

	dataDir := filepath.Join(t.TempDir(), "data")
	progress := make(chan string, 16)
	if err := Provision(ctx, s, dataDir, progress); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	close(progress)

	var lines int
	for range progress {
		lines++
	}
	if lines == 0 {
		t.Error("no progress reported")
	}

	count, err := s.AirportCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("AirportCount() = %d, want 3", count)
	}

	// Shapefile parts are removed once loaded.
	if _, err := os.Stat(filepath.Join(dataDir, shapefileBase+".shp")); !os.IsNotExist(err) {
		t.Errorf("shapefile left behind: %v", err)
	}

	// A populated table is left alone.
	if err := Provision(ctx, s, dataDir, nil); err != nil {
		t.Fatalf("second Provision() error = %v", err)
	}
	if requests != 1 {
		t.Errorf("downloaded %d times, want 1", requests)
	}
}

func TestProvision_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	oldURL := airportsURL
	airportsURL = server.URL
	defer func() { airportsURL = oldURL }()

	err := Provision(context.Background(), newStore(t), t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected an error for a failed download")
	}
}

func TestUnzipFile_RejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")

	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	fw, _ := zw.Create("../escape.txt")
	io.WriteString(fw, "nope")
	zw.Close()
	out.Close()

	if err := unzipFile(zipPath, filepath.Join(dir, "dest")); err == nil {
		t.Error("expected zip slip to be rejected")
	}
}

var _ AirportStore = (*store.Store)(nil)
