package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadDataModel reads and decodes a data model JSON file (spec §6a).
func LoadDataModel(path string) (*DataModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data model %q: %w", path, err)
	}
	var m DataModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse data model %q: %w", path, err)
	}
	return &m, nil
}

// LoadConnectionConfig reads and decodes a connection config JSON file
// (spec §6b).
func LoadConnectionConfig(path string) (*ConnectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection config %q: %w", path, err)
	}
	var c ConnectionConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse connection config %q: %w", path, err)
	}
	return &c, nil
}
