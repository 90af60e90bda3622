package viz

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteJSON writes the graph as 2-space indented JSON to path.
// The file is replaced atomically, so readers never see a partial graph.
func WriteJSON(path string, g *GraphData) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		tmp.Close()
		return errors.Wrap(err, "encoding graph")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "setting permissions")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "writing output file")
	}
	return nil
}

// ReadJSON reads a graph previously written by WriteJSON.
func ReadJSON(path string) (*GraphData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading graph")
	}
	var g GraphData
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrapf(err, "parsing graph %s", path)
	}
	return &g, nil
}
