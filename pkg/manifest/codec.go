package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/wagoodman/stacko/pkg/stackerr"
)

const (
	imagesFile = "images.json"
	pointsFile = "points.json"
	// filePerm matches classDb.py's os.chmod(path, 0o777) — permissive
	// by design; tightening is left to the deployer.
	filePerm = 0o777
)

// Codec loads and stores a Manifest against a metadata directory. It is
// the external collaborator spec.md §1 calls ManifestCodec; JSONCodec
// below is the only implementation stacko ships.
type Codec interface {
	Load(dir string) (*Manifest, error)
	Store(dir string, m *Manifest) error
}

// JSONCodec serializes the manifest as the two flat JSON arrays
// spec.md §6 fixes: images.json and points.json. Grounded on
// classDb.py's from_db (json.load of an array keyed by name) and to_db
// (json.dump of a list of __dict__s, then chmod 0o777).
type JSONCodec struct{}

var _ Codec = JSONCodec{}

// Load reads dir/images.json and dir/points.json if present, returning
// an empty manifest for either file that does not exist. A malformed
// file becomes stackerr.KindCorruptManifest.
func (JSONCodec) Load(dir string) (*Manifest, error) {
	m := New()

	var images []*Image
	if err := loadArray(filepath.Join(dir, imagesFile), &images); err != nil {
		return nil, err
	}
	for _, img := range images {
		m.Images[img.Name] = img
	}

	var points []*Stackpoint
	if err := loadArray(filepath.Join(dir, pointsFile), &points); err != nil {
		return nil, err
	}
	for _, p := range points {
		m.Points[p.Name] = p
	}

	return m, nil
}

func loadArray(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return stackerr.Wrap(stackerr.KindCorruptManifest, err, "reading %s", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return stackerr.Wrap(stackerr.KindCorruptManifest, err, "decoding %s", path)
	}
	return nil
}

// Store serializes both mappings as flat arrays and writes them with
// permissive read/write/execute bits, per spec.md §4.1's flush.
func (JSONCodec) Store(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stackerr.Wrap(stackerr.KindCorruptManifest, err, "creating metadata dir %s", dir)
	}

	images := make([]*Image, 0, len(m.Images))
	for _, img := range m.Images {
		images = append(images, img)
	}
	if err := storeArray(filepath.Join(dir, imagesFile), images); err != nil {
		return err
	}

	points := make([]*Stackpoint, 0, len(m.Points))
	for _, p := range m.Points {
		points = append(points, p)
	}
	return storeArray(filepath.Join(dir, pointsFile), points)
}

func storeArray(path string, in any) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return stackerr.Wrap(stackerr.KindCorruptManifest, err, "encoding %s", path)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return stackerr.Wrap(stackerr.KindCorruptManifest, err, "writing %s", path)
	}
	return os.Chmod(path, filePerm)
}
