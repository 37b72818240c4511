package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// jsonUserRepository stores the credential records as a plain JSON array of
// {username, password, role} objects, the format existing controllers
// already carry on flash.
type jsonUserRepository struct {
	filePath string
	logger   outbound.Logger
}

func NewJSONUserRepository(filePath string, logger outbound.Logger) (outbound.UserRepository, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}

	return &jsonUserRepository{
		filePath: filePath,
		logger:   logger,
	}, nil
}

func (r *jsonUserRepository) Load() ([]*model.User, error) {
	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil, model.ErrUsersFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var users []*model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, model.ErrCorruptedFile
	}

	r.logger.Debug("users loaded", "path", r.filePath, "count", len(users))
	return users, nil
}

func (r *jsonUserRepository) Save(users []*model.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}

	if err := writeFileAtomic(r.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}

	r.logger.Info("users saved", "path", r.filePath, "count", len(users))
	return nil
}

func (r *jsonUserRepository) Exists() bool {
	_, err := os.Stat(r.filePath)
	return !os.IsNotExist(err)
}
