// Package app wires the measurement pipeline: assessment dispatch, angle
// extraction, session reduction, quality scoring and clinical
// interpretation.
package app

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/handrom/internal/angle"
	"github.com/ayusman/handrom/internal/clinical"
	"github.com/ayusman/handrom/internal/config"
	"github.com/ayusman/handrom/internal/quality"
	"github.com/ayusman/handrom/internal/session"
	"github.com/ayusman/handrom/internal/store"
)

// Config holds configuration options for the engine.
type Config struct {
	// Store, when set, supplies injury profiles that override the built-in
	// and file tables.
	Store *store.Store
	// Profiles overrides the built-in table, typically loaded from TOML.
	Profiles clinical.Table
	Session  session.Options
	Kapandji angle.KapandjiOptions
	// Workers bounds concurrent batch jobs; zero uses the CPU count.
	Workers int
	Logger  zerolog.Logger
}

// ConfigFrom builds an engine Config from loaded settings. Profile sources
// named in the settings are opened here; the caller owns the returned store.
func ConfigFrom(c config.Config, log zerolog.Logger) (Config, error) {
	cfg := Config{
		Session:  c.SessionOptions(),
		Kapandji: c.KapandjiOptions(),
		Logger:   log,
	}
	if c.Profiles.File != "" {
		t, err := clinical.LoadTable(c.Profiles.File)
		if err != nil {
			return Config{}, err
		}
		cfg.Profiles = t
	}
	if c.Profiles.DB != "" {
		s, err := store.New(c.Profiles.DB)
		if err != nil {
			return Config{}, err
		}
		cfg.Store = s
	}
	return cfg, nil
}

// Engine is the measurement pipeline. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	config     Config
	log        zerolog.Logger
	mu         sync.RWMutex
	classifier *clinical.Classifier
}

// New creates a new Engine and loads its injury profiles.
func New(config Config) (*Engine, error) {
	if config.Session.MinConfidence == 0 && config.Session.KapandjiPolicy == "" {
		config.Session = session.DefaultOptions()
	}
	if config.Session.Quality == (quality.Options{}) {
		config.Session.Quality = quality.DefaultOptions()
	}
	if config.Kapandji.Policy == "" {
		config.Kapandji.Policy = config.Session.KapandjiPolicy
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	e := &Engine{
		config: config,
		log:    config.Logger.With().Str("component", "engine").Logger(),
	}
	if err := e.LoadProfiles(); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadProfiles rebuilds the classifier from the built-in table, the
// configured table and the profile store, in increasing precedence.
func (e *Engine) LoadProfiles() error {
	table := clinical.Builtin()
	if e.config.Profiles != nil {
		table = table.Merge(e.config.Profiles)
	}

	if e.config.Store != nil {
		stored, err := e.config.Store.Profiles().Table()
		if err != nil {
			return fmt.Errorf("failed to load stored profiles: %w", err)
		}
		table = table.Merge(stored)
	}

	c := clinical.NewClassifier(table)

	e.mu.Lock()
	e.classifier = c
	e.mu.Unlock()

	e.log.Debug().Strs("injuries", table.Injuries()).Msg("loaded injury profiles")
	return nil
}

// Classifier returns the current classifier.
func (e *Engine) Classifier() *clinical.Classifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.classifier
}

// Options returns the effective reducer settings.
func (e *Engine) Options() session.Options {
	return e.config.Session
}
