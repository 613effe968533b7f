// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/AleutianShelf/cmd/shelf/config"
	"github.com/AleutianAI/AleutianShelf/cmd/shelf/gcs"
	"github.com/AleutianAI/AleutianShelf/pkg/logging"
	"github.com/AleutianAI/AleutianShelf/pkg/ux"
	"github.com/AleutianAI/AleutianShelf/services/catalog/library"
	shelfbadger "github.com/AleutianAI/AleutianShelf/services/catalog/storage/badger"
	"github.com/AleutianAI/AleutianShelf/services/catalog/storage/snapshot"
	"github.com/AleutianAI/AleutianShelf/services/catalog/telemetry"
)

// gcDiscardRatio is the value-log garbage fraction that triggers a rewrite.
const gcDiscardRatio = 0.5

// rootFlags holds the persistent flags.
type rootFlags struct {
	configPath  string
	dataDir     string
	personality string
	logLevel    string
	metricsFile string
	json        bool
}

// cli is the state of one shelf invocation.
//
// # Description
//
// setup runs before every command: it loads the configuration, builds the
// logger, installs telemetry, opens the database and loads the current
// snapshot into the library. close releases all of it in reverse order and
// runs even when the command failed.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	flags rootFlags

	cfg     config.ShelfConfig
	runID   string
	logger  *logging.Logger
	log     *logging.Logger
	printer *ux.Printer

	db       *shelfbadger.DB
	store    *snapshot.Store
	lib      *library.Library
	shutdown func(context.Context) error

	// newUploader builds the GCS client for export --gcs-object.
	newUploader func(ctx context.Context, cfg config.GCSConfig) (gcs.Uploader, error)

	// interactive decides between huh forms and line prompts.
	interactive func() bool
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:          in,
		out:         out,
		errOut:      errOut,
		printer:     ux.NewPrinter(out, errOut, ""),
		newUploader: newGCSUploader,
		interactive: ux.IsInteractive,
	}
}

func newGCSUploader(ctx context.Context, cfg config.GCSConfig) (gcs.Uploader, error) {
	return gcs.NewClient(ctx, cfg.ProjectID, cfg.Bucket, config.ExpandHome(cfg.CredentialsFile))
}

// setup prepares everything a command needs.
func (c *cli) setup(ctx context.Context) error {
	cfg, created, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	if c.flags.dataDir != "" {
		cfg.Storage.DataDir = config.ExpandHome(c.flags.dataDir)
	}
	if c.flags.logLevel != "" {
		cfg.Logging.Level = c.flags.logLevel
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return badArgs(err)
	}
	c.cfg = cfg

	c.runID = uuid.NewString()
	c.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "shelf",
		JSON:    cfg.Logging.JSON,
		Output:  c.errOut,
	})
	c.log = c.logger.With("run_id", c.runID)
	if created {
		c.log.Info("created default configuration", "path", c.flags.configPath)
	}

	personality := cfg.UI.Personality
	if c.flags.personality != "" {
		personality = c.flags.personality
	}
	p := ux.InitPersonality(personality)
	c.printer.Level = p.Level
	c.log.Debug("output personality", "level", p.Level, "source", p.Source)

	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tcfg.Output = c.errOut
	c.shutdown, err = telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	c.db, err = shelfbadger.Open(shelfbadger.Config{
		Path:           cfg.Storage.DataDir,
		SyncWrites:     cfg.Storage.SyncWrites,
		Logger:         c.log,
		GCInterval:     cfg.Storage.GCInterval,
		GCDiscardRatio: gcDiscardRatio,
	})
	if err != nil {
		return err
	}
	c.store = snapshot.New(c.db, c.log)

	c.lib, err = c.loadLibrary(ctx)
	if err != nil {
		return err
	}
	c.log.Debug("catalog loaded", "data_dir", cfg.Storage.DataDir, "books", c.lib.Stats().Books)
	return nil
}

// loadLibrary restores the current snapshot, or returns an empty library
// named after the configured root when nothing was saved yet.
func (c *cli) loadLibrary(ctx context.Context) (*library.Library, error) {
	lib := library.New(c.cfg.Library.RootName, library.Options{Logger: c.log})
	snap, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		return lib, nil
	case err != nil:
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := lib.Restore(ctx, snap.Meta.RootName, snap.Categories, snap.Rows); err != nil {
		return nil, fmt.Errorf("restore generation %s: %w", snap.Meta.Generation, err)
	}
	return lib, nil
}

// save writes the library as a new snapshot generation.
func (c *cli) save(ctx context.Context) error {
	meta, err := c.store.Save(ctx, c.lib.RootName(), c.lib.CategoryPaths(), c.lib.Rows())
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	c.log.Debug("catalog saved", "generation", meta.Generation)
	return nil
}

// close releases resources in reverse order of setup and writes the
// metrics textfile if requested.
func (c *cli) close(ctx context.Context) error {
	var errs []error
	if c.flags.metricsFile != "" && c.lib != nil {
		if err := prometheus.WriteToTextfile(c.flags.metricsFile, prometheus.DefaultGatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.shutdown != nil {
		errs = append(errs, c.shutdown(ctx))
	}
	if c.logger != nil {
		errs = append(errs, c.logger.Close())
	}
	return errors.Join(errs...)
}

// prompter returns the prompter for this invocation.
func (c *cli) prompter() ux.Prompter {
	return ux.NewPrompter(c.in, c.out, c.interactive())
}

// confirm asks question unless assumeYes is set.
func (c *cli) confirm(ctx context.Context, question string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	ok, err := c.prompter().Confirm(ctx, question, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// emitJSON writes v as indented JSON.
func (c *cli) emitJSON(v any) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
