package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// jsonPumpStateRepository mirrors the pump triple to a small JSON file.
// Writes go through a temp file and rename so a crash mid-write can never
// leave a half-written state behind; recovery after power loss depends on
// this file being readable.
type jsonPumpStateRepository struct {
	filePath string
	logger   outbound.Logger
}

func NewJSONPumpStateRepository(filePath string, logger outbound.Logger) (outbound.PumpStateRepository, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &jsonPumpStateRepository{
		filePath: filePath,
		logger:   logger,
	}, nil
}

func (r *jsonPumpStateRepository) Load() (*model.PumpState, error) {
	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil, model.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state model.PumpState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, model.ErrCorruptedFile
	}

	return &state, nil
}

func (r *jsonPumpStateRepository) Save(state *model.PumpState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(r.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	r.logger.Debug("pump state saved",
		"running", state.Running,
		"start_ms", state.StartMs,
		"duration_seconds", state.DurationSec)
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it, and renames it over the destination.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
