package testsupport

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PackageBuilder writes an exported package directory for tests.
type PackageBuilder struct {
	tb  testing.TB
	Dir string
}

// NewPackage creates {baseDir}/{dirName} and returns a builder for its files.
func NewPackage(tb testing.TB, baseDir, dirName string) *PackageBuilder {
	tb.Helper()
	dir := filepath.Join(baseDir, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", dir, err)
	}
	return &PackageBuilder{tb: tb, Dir: dir}
}

// Descriptor writes demo.json.
func (b *PackageBuilder) Descriptor(v any) *PackageBuilder {
	return b.JSON("demo.json", v)
}

// JSON marshals v into name.
func (b *PackageBuilder) JSON(name string, v any) *PackageBuilder {
	b.tb.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		b.tb.Fatalf("marshal %s: %v", name, err)
	}
	return b.File(name, data)
}

// File writes raw bytes to a path relative to the package directory.
func (b *PackageBuilder) File(name string, data []byte) *PackageBuilder {
	b.tb.Helper()
	path := filepath.Join(b.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		b.tb.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.tb.Fatalf("write %s: %v", name, err)
	}
	return b
}

// Media writes a file under media/.
func (b *PackageBuilder) Media(rel string, data []byte) *PackageBuilder {
	return b.File(filepath.ToSlash(filepath.Join("media", rel)), data)
}

// Zip writes a zip archive whose entries are given as name to content.
func (b *PackageBuilder) Zip(name string, entries map[string]string) *PackageBuilder {
	b.tb.Helper()
	path := filepath.Join(b.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		b.tb.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for entry, content := range entries {
		fw, err := w.Create(entry)
		if err != nil {
			b.tb.Fatalf("zip entry %s: %v", entry, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			b.tb.Fatalf("zip write %s: %v", entry, err)
		}
	}
	if err := w.Close(); err != nil {
		b.tb.Fatalf("zip close: %v", err)
	}
	return b
}
