package logging

import (
	"github.com/kilianp07/liftsim/core/factory"
)

var storeRegistry = factory.NewRegistry[LogStore]()

// RegisterLogStore adds a log store factory identified by name.
func RegisterLogStore(name string, f factory.Factory[LogStore]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the log store described by cfg. An empty type yields a
// NopStore.
func NewStore(cfg factory.ModuleConfig) (LogStore, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return storeRegistry.Create(cfg)
}

type fileConf struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func init() {
	_ = RegisterLogStore("none", func(map[string]any) (LogStore, error) { return NopStore{}, nil })
	_ = RegisterLogStore("jsonl", func(conf map[string]any) (LogStore, error) {
		c := fileConf{Path: "trips.jsonl"}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = RegisterLogStore("rotating", func(conf map[string]any) (LogStore, error) {
		c := fileConf{Path: "logs/trips.jsonl", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = RegisterLogStore("sqlite", func(conf map[string]any) (LogStore, error) {
		c := fileConf{Path: "trips.db"}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
