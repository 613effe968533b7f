// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the shelf CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DataDirEnv overrides storage.data_dir when set.
const DataDirEnv = "SHELF_DATA_DIR"

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// DefaultPath returns ~/.aleutian/shelf.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".aleutian", "shelf.yaml"), nil
}

// Load reads the configuration at path, creating it with defaults first if
// it does not exist. An empty path means DefaultPath.
//
// # Description
//
// Missing keys keep their default values. After parsing, SHELF_DATA_DIR
// replaces storage.data_dir, "~" is expanded in directory fields, and the
// result is validated.
//
// # Outputs
//
//   - ShelfConfig: the effective configuration
//   - bool: true when the file was created by this call
//   - error: read, parse, or ErrInvalidConfig errors
func Load(path string) (ShelfConfig, bool, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return ShelfConfig{}, false, err
		}
		path = p
	}

	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return ShelfConfig{}, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ShelfConfig{}, created, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return ShelfConfig{}, created, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, created, nil
}

// Parse decodes data over DefaultConfig and applies overrides and validation.
func Parse(data []byte) (ShelfConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ShelfConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if dir := os.Getenv(DataDirEnv); dir != "" {
		cfg.Storage.DataDir = dir
	}
	cfg.Storage.DataDir = ExpandHome(cfg.Storage.DataDir)
	cfg.Logging.Dir = ExpandHome(cfg.Logging.Dir)
	if err := Validate(cfg); err != nil {
		return ShelfConfig{}, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func Validate(cfg ShelfConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ExpandHome replaces a leading "~" or "~/" with the home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
