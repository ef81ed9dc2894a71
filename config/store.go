package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fennwick/glowwall/common"
	"github.com/fennwick/glowwall/imgsource"
)

const (
	keyDefaultBackground = "default_background"
	keyBackgrounds       = "backgrounds"
	keySameOnAll         = "same_on_all"
	keyPreferLowPower    = "prefer_low_power"
	keyLastResolved      = "last_resolved"
	outputKeyPrefix      = "output."
)

// ChangeSet is the set of keys modified since a Store's last Watch delivery.
// The adapter makes no attempt to diff values beyond key membership: callers
// inspect the key set and selectively reload.
type ChangeSet []string

// Store is a file-backed key/value configuration adapter. Values are
// strings; structured values (background entries, the last-resolved-source
// map) are JSON-encoded under their key. Writes are atomic: a full snapshot
// is marshaled and written to a temp file in the store's directory, then
// renamed over the target.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	logger *slog.Logger
}

// NewStore opens (or initializes) a Store backed by path. A missing file is
// treated as an empty store, not an error; every typed accessor already
// falls back to its documented default.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	logger = common.Coalesce(logger, slog.Default())
	s := &Store{path: path, values: map[string]string{}, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read config store %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config store %s: %w", path, err)
	}
	s.values = m
	return s, nil
}

// Get returns the raw string value stored under key, and whether it was
// present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and persists the full snapshot atomically.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	snapshot := s.cloneLocked()
	s.mu.Unlock()
	return s.persist(snapshot)
}

func (s *Store) cloneLocked() map[string]string {
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

func (s *Store) persist(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".glowwall-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp config file: %w", err)
	}
	return nil
}

func (s *Store) getBool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (s *Store) setBool(key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

func (s *Store) getUint8(key string, def uint8) uint8 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return def
	}
	return uint8(n)
}

func (s *Store) setUint8(key string, v uint8) error {
	return s.Set(key, strconv.FormatUint(uint64(v), 10))
}

func (s *Store) getJSON(key string, out interface{}) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		s.logger.Warn("config: failed to decode stored value", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) setJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// Load returns the fully-populated Config, applying documented defaults for
// any key that is absent.
func (s *Store) Load() (Config, error) {
	cfg := Config{
		SameOnAll:      s.getBool(keySameOnAll, false),
		PreferLowPower: s.getBool(keyPreferLowPower, false),
		PowerSaving:    s.LoadPowerSaving(),
	}

	var def BackgroundEntry
	if s.getJSON(keyDefaultBackground, &def) {
		cfg.DefaultBackground = def
	} else {
		cfg.DefaultBackground = BackgroundEntry{OutputSelector: AllOutputsSelector}
	}

	var backgrounds []BackgroundEntry
	if s.getJSON(keyBackgrounds, &backgrounds) {
		cfg.Backgrounds = backgrounds
	}

	clampEntry := func(e *BackgroundEntry) {
		if e.Source.Kind == SourceShader {
			e.Source.Shader.FrameRate = ClampFrameRate(e.Source.Shader.FrameRate)
		}
	}
	clampEntry(&cfg.DefaultBackground)
	for i := range cfg.Backgrounds {
		clampEntry(&cfg.Backgrounds[i])
	}

	return cfg, nil
}

// SaveConfig writes every top-level key of cfg (but not per-output entries,
// which are written individually via SetOutputEntry).
func (s *Store) SaveConfig(cfg Config) error {
	if err := s.setJSON(keyDefaultBackground, cfg.DefaultBackground); err != nil {
		return err
	}
	if err := s.setJSON(keyBackgrounds, cfg.Backgrounds); err != nil {
		return err
	}
	if err := s.setBool(keySameOnAll, cfg.SameOnAll); err != nil {
		return err
	}
	if err := s.setBool(keyPreferLowPower, cfg.PreferLowPower); err != nil {
		return err
	}
	return s.SavePowerSaving(cfg.PowerSaving)
}

// OutputEntry returns the per-output override for outputName, keyed
// "output.<name>", and whether one is configured.
func (s *Store) OutputEntry(outputName string) (BackgroundEntry, bool) {
	var e BackgroundEntry
	ok := s.getJSON(outputKeyPrefix+outputName, &e)
	return e, ok
}

// SetOutputEntry stores a per-output override under "output.<name>".
func (s *Store) SetOutputEntry(outputName string, entry BackgroundEntry) error {
	return s.setJSON(outputKeyPrefix+outputName, entry)
}

// SaveLastResolved persists the most recently attached source for
// outputName, so a restart can show the last choice before config has fully
// reloaded.
func (s *Store) SaveLastResolved(outputName string, src Source) error {
	s.mu.Lock()
	var all map[string]Source
	if v, ok := s.values[keyLastResolved]; ok {
		_ = json.Unmarshal([]byte(v), &all)
	}
	if all == nil {
		all = map[string]Source{}
	}
	all[outputName] = src
	s.mu.Unlock()
	return s.setJSON(keyLastResolved, all)
}

// LoadLastResolved returns the persisted (output_name, last_resolved_source)
// mapping.
func (s *Store) LoadLastResolved() map[string]Source {
	var all map[string]Source
	s.getJSON(keyLastResolved, &all)
	return all
}

// Watch returns a channel delivering the set of keys changed since the last
// delivery, driven by a filesystem watch on the store's backing file. It
// shares imgsource's directory-watch building block: both "watch a path,
// translate fsnotify events into a typed channel" problems are the same
// shape, just with different translation at the end.
func (s *Store) Watch(ctx context.Context) <-chan ChangeSet {
	out := make(chan ChangeSet, 4)
	dir := filepath.Dir(s.path)
	w := imgsource.NewWatcher(dir, s.logger)

	go func() {
		defer close(out)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				if filepath.Clean(ev.Path) != filepath.Clean(s.path) {
					continue
				}

				s.mu.RLock()
				before := s.cloneLocked()
				s.mu.RUnlock()

				data, err := os.ReadFile(s.path)
				if err != nil {
					continue
				}
				var after map[string]string
				if err := json.Unmarshal(data, &after); err != nil {
					s.logger.Warn("config: ignoring unparsable config change", "error", err)
					continue
				}

				changed := diffKeys(before, after)
				if len(changed) == 0 {
					continue
				}

				s.mu.Lock()
				s.values = after
				s.mu.Unlock()

				select {
				case out <- changed:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func diffKeys(before, after map[string]string) ChangeSet {
	var changed ChangeSet
	for k, v := range after {
		if bv, ok := before[k]; !ok || bv != v {
			changed = append(changed, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			changed = append(changed, k)
		}
	}
	return changed
}
