package store

import (
	"os"
	"path/filepath"
	"slices"
)

// DBFileName is the database file inside each model directory.
const DBFileName = "canc.db"

// DefaultModelRoot returns the directory holding every model, ~/.canc/models.
// It falls back to the working directory when the home directory is unknown.
func DefaultModelRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".canc", "models")
	}
	return filepath.Join(home, ".canc", "models")
}

// ModelDBPath returns the database path for a model under the default root.
func ModelDBPath(modelID string) string {
	return ModelDBPathIn(DefaultModelRoot(), modelID)
}

// ModelDBPathIn returns the database path for a model under root.
func ModelDBPathIn(root, modelID string) string {
	return filepath.Join(root, modelID, DBFileName)
}

// ListModels returns the IDs of every model under root that has a database,
// in lexical order. A missing root yields no models.
func ListModels(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || ValidateModelID(e.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), DBFileName)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}
