// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "time"

// ShelfConfig is the root of ~/.aleutian/shelf.yaml.
type ShelfConfig struct {
	Library   LibraryConfig   `yaml:"library" validate:"required"`
	Storage   StorageConfig   `yaml:"storage" validate:"required"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	GCS       GCSConfig       `yaml:"gcs"`
	UI        UIConfig        `yaml:"ui"`
}

type LibraryConfig struct {
	RootName string `yaml:"root_name" validate:"required,excludes=/"` // e.g. "Library"
}

type StorageConfig struct {
	DataDir    string        `yaml:"data_dir" validate:"required"`
	SyncWrites bool          `yaml:"sync_writes"`
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"` // e.g. 5m; 0 disables value-log GC
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"` // daily JSON log files; empty disables
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty" validate:"required_if=TraceExporter otlp"`
}

// GCSConfig enables `shelf export --gcs-object`. Bucket and CredentialsFile
// are checked when an upload is requested, not at load time.
type GCSConfig struct {
	ProjectID       string `yaml:"project_id,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

type UIConfig struct {
	Personality string `yaml:"personality" validate:"oneof=auto full standard minimal machine"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() ShelfConfig {
	return ShelfConfig{
		Library: LibraryConfig{RootName: "Library"},
		Storage: StorageConfig{
			DataDir:    "~/.aleutian/shelf/data",
			SyncWrites: true,
			GCInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "warn",
			Dir:   "~/.aleutian/logs",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
		},
		UI: UIConfig{Personality: "auto"},
	}
}
