package dronestorage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the current configuration schema version.
const ConfigVersion = 2

// Config is the persisted plugin configuration.
type Config struct {
	Version int `yaml:"version"`

	// DefaultCapacity is used for owned drones whose owner holds no capacity
	// tier. Zero means no storage.
	DefaultCapacity int `yaml:"default_capacity"`

	// CapacityTiers are the capacities that can be granted by permission.
	CapacityTiers []int `yaml:"capacity_tiers"`

	// TipChance is the percent chance that an upside down drone spills its
	// storage on each reconcile pass.
	TipChance float64 `yaml:"tip_chance"`

	// DisallowedItems lists item names ("minecraft:tnt") or name:meta pairs
	// that may not be placed in drone storage.
	DisallowedItems []string `yaml:"disallowed_items"`

	// ReconcileInterval is the time between reconcile passes.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	Deploy DeployConfig `yaml:"deploy"`
	UI     UIConfig     `yaml:"ui"`
}

// DeployConfig configures storage deployment.
type DeployConfig struct {
	// CostItem is consumed from the actor on manual deploy.
	CostItem string `yaml:"cost_item"`

	// MaxDistance is how far away a drone may be to be deployed onto.
	MaxDistance float64 `yaml:"max_distance"`

	// AutoDeploy gives new drones storage without a command.
	AutoDeploy bool `yaml:"auto_deploy"`
}

// UIConfig configures the control overlay.
type UIConfig struct {
	AnchorMin     string `yaml:"anchor_min"`
	AnchorMax     string `yaml:"anchor_max"`
	OffsetTop     int    `yaml:"offset_top"`
	ButtonWidth   int    `yaml:"button_width"`
	ButtonHeight  int    `yaml:"button_height"`
	ButtonSpacing int    `yaml:"button_spacing"`
	TextSize      int    `yaml:"text_size"`
	TextColor     string `yaml:"text_color"`
	ViewColor     string `yaml:"view_color"`
	DropColor     string `yaml:"drop_color"`
	LockColor     string `yaml:"lock_color"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Version:           ConfigVersion,
		DefaultCapacity:   0,
		CapacityTiers:     []int{6, 12, 18, 24, 30, 36, 42},
		TipChance:         0,
		DisallowedItems:   []string{},
		ReconcileInterval: 30 * time.Second,
		Deploy: DeployConfig{
			CostItem:    "minecraft:chest",
			MaxDistance: 3,
			AutoDeploy:  true,
		},
		UI: defaultUI(),
	}
}

func defaultUI() UIConfig {
	return UIConfig{
		AnchorMin:     "0.5 1",
		AnchorMax:     "0.5 1",
		OffsetTop:     75,
		ButtonWidth:   85,
		ButtonHeight:  26,
		ButtonSpacing: 30,
		TextSize:      12,
		TextColor:     "0.97 0.92 0.88 1",
		ViewColor:     "0.44 0.54 0.26 1",
		DropColor:     "0.77 0.24 0.16 1",
		LockColor:     "0.25 0.40 0.64 1",
	}
}

// Normalize sorts and de-duplicates tiers, clamps ranges and fills zero
// values from the defaults.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	def := Defaults()

	c.Version = ConfigVersion
	if c.DefaultCapacity < 0 {
		c.DefaultCapacity = 0
	}
	c.DefaultCapacity = min(c.DefaultCapacity, MaxCapacity)

	tiers := make([]int, 0, len(c.CapacityTiers))
	for _, t := range c.CapacityTiers {
		if t > 0 {
			tiers = append(tiers, min(t, MaxCapacity))
		}
	}
	slices.Sort(tiers)
	c.CapacityTiers = slices.Compact(tiers)

	c.TipChance = max(0, min(c.TipChance, 100))

	items := make([]string, 0, len(c.DisallowedItems))
	for _, it := range c.DisallowedItems {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	c.DisallowedItems = items

	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = def.ReconcileInterval
	}

	if strings.TrimSpace(c.Deploy.CostItem) == "" {
		c.Deploy.CostItem = def.Deploy.CostItem
	}
	if c.Deploy.MaxDistance <= 0 {
		c.Deploy.MaxDistance = def.Deploy.MaxDistance
	}

	u, du := &c.UI, def.UI
	fillString(&u.AnchorMin, du.AnchorMin)
	fillString(&u.AnchorMax, du.AnchorMax)
	fillInt(&u.OffsetTop, du.OffsetTop)
	fillInt(&u.ButtonWidth, du.ButtonWidth)
	fillInt(&u.ButtonHeight, du.ButtonHeight)
	fillInt(&u.ButtonSpacing, du.ButtonSpacing)
	fillInt(&u.TextSize, du.TextSize)
	fillString(&u.TextColor, du.TextColor)
	fillString(&u.ViewColor, du.ViewColor)
	fillString(&u.DropColor, du.DropColor)
	fillString(&u.LockColor, du.LockColor)
}

func fillString(v *string, def string) {
	if strings.TrimSpace(*v) == "" {
		*v = def
	}
}

func fillInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Validate checks invariants Normalize cannot repair.
func (c Config) Validate() error {
	if c.Version != ConfigVersion {
		return fmt.Errorf("unsupported version %d", c.Version)
	}
	for _, t := range c.CapacityTiers {
		if t <= 0 || t > MaxCapacity {
			return fmt.Errorf("capacity tier %d out of range 1..%d", t, MaxCapacity)
		}
	}
	if c.DefaultCapacity < 0 || c.DefaultCapacity > MaxCapacity {
		return fmt.Errorf("default_capacity %d out of range 0..%d", c.DefaultCapacity, MaxCapacity)
	}
	if c.TipChance < 0 || c.TipChance > 100 {
		return fmt.Errorf("tip_chance %v out of range 0..100", c.TipChance)
	}
	if c.Deploy.MaxDistance <= 0 {
		return errors.New("deploy.max_distance must be positive")
	}
	return nil
}

// configSchema is checked against the raw document before it is decoded.
const configSchema = `{
  "type": "object",
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "default_capacity": {"type": "integer", "minimum": 0, "maximum": 42},
    "capacity_tiers": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1, "maximum": 42}
    },
    "capacity_amounts_requiring_permission": {
      "type": "array",
      "items": {"type": "integer"}
    },
    "CapacityAmountsRequiringPermission": {
      "type": "array",
      "items": {"type": "integer"}
    },
    "DefaultCapacity": {"type": "integer", "minimum": 0, "maximum": 42},
    "tip_chance": {"type": "number", "minimum": 0, "maximum": 100},
    "disallowed_items": {"type": "array", "items": {"type": "string"}},
    "reconcile_interval": {"type": "string"},
    "deploy": {
      "type": "object",
      "properties": {
        "cost_item": {"type": "string"},
        "max_distance": {"type": "number", "exclusiveMinimum": 0},
        "auto_deploy": {"type": "boolean"}
      }
    },
    "ui": {
      "type": "object",
      "properties": {
        "anchor_min": {"type": "string"},
        "anchor_max": {"type": "string"},
        "offset_top": {"type": "integer"},
        "button_width": {"type": "integer"},
        "button_height": {"type": "integer"},
        "button_spacing": {"type": "integer"},
        "text_size": {"type": "integer"},
        "text_color": {"type": "string"},
        "view_color": {"type": "string"},
        "drop_color": {"type": "string"},
        "lock_color": {"type": "string"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("dronestorage.schema.json", configSchema)

// legacyTiersKey holds the capacity tiers in version 1 files.
const legacyTiersKey = "capacity_amounts_requiring_permission"

// legacyKeys maps version 1 keys, in both the snake case and the original
// Pascal case spelling, to their current names. Earlier entries win.
var legacyKeys = []struct{ from, to string }{
	{legacyTiersKey, "capacity_tiers"},
	{"CapacityAmountsRequiringPermission", "capacity_tiers"},
	{"DefaultCapacity", "default_capacity"},
}

// ParseConfig decodes, validates and normalizes a YAML document. migrated
// reports whether the document used an older schema version.
func ParseConfig(b []byte) (cfg Config, migrated bool, err error) {
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Defaults(), false, err
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if err := validateDocument(doc); err != nil {
		return Defaults(), false, err
	}

	migrated = migrateDocument(doc)
	if migrated {
		if b, err = yaml.Marshal(doc); err != nil {
			return Defaults(), false, err
		}
	}

	cfg = Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Defaults(), false, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Defaults(), false, err
	}
	return cfg, migrated, nil
}

// validateDocument checks a decoded YAML document against configSchema. The
// document is round-tripped through JSON so the validator sees JSON types.
func validateDocument(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}

// migrateDocument upgrades a version 1 document in place.
func migrateDocument(doc map[string]any) bool {
	migrated := false
	for _, k := range legacyKeys {
		v, ok := doc[k.from]
		if !ok {
			continue
		}
		delete(doc, k.from)
		if _, has := doc[k.to]; !has {
			doc[k.to] = v
		}
		migrated = true
	}
	if migrated {
		doc["version"] = ConfigVersion
	}
	return migrated
}

// LoadConfig loads the configuration at path.
//
// A missing file is created with the defaults. A malformed or invalid file is
// logged and replaced by the defaults in memory; the file is left as is. A
// version 1 file is migrated and saved back.
func LoadConfig(path string, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Defaults()
		if err := SaveConfig(path, cfg); err != nil {
			return cfg, err
		}
		log.Info("dronestorage: wrote default config", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Defaults(), err
	}

	cfg, migrated, err := ParseConfig(b)
	if err != nil {
		log.Warn("dronestorage: invalid config, using defaults", "path", path, "error", err)
		return Defaults(), nil
	}
	if migrated {
		if err := SaveConfig(path, cfg); err != nil {
			return cfg, err
		}
		log.Info("dronestorage: migrated config", "path", path, "version", cfg.Version)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
