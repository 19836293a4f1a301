// Package config handles the four configuration tables of the bot: bot identity,
// adapters, translators and plugins. Each table lives in its own JSON file
// inside one config directory.
package config

// File names of the four tables inside the config directory.
const (
	BotFile        = "bot.json"
	AdapterFile    = "adapter.json"
	TranslatorFile = "translator.json"
	PluginFile     = "plugin.json"
)

// Config is the complete set of tables read at start-up.
type Config struct {
	Bot         BotConfig `json:"bot" validate:"required"`
	Adapters    Tables    `json:"adapters" validate:"dive"`
	Translators Tables    `json:"translators" validate:"dive"`
	Plugins     Tables    `json:"plugins" validate:"dive"`
}

// BotConfig is the bot identity table (bot.json).
type BotConfig struct {
	Name     string              `json:"name" validate:"required"`
	Language string              `json:"language" validate:"oneof=zh en"`
	LogLevel int                 `json:"logLevel" validate:"min=1,max=5"`
	LogDir   string              `json:"logDir,omitempty"`
	Master   map[string][]string `json:"master"`

	// ShutdownGrace is the number of seconds adapter loops get to exit after
	// an authorized shutdown before the process is terminated.
	ShutdownGrace int `json:"shutdownGrace" validate:"min=0"`

	Workers   int `json:"workers" validate:"min=1"`
	QueueSize int `json:"queueSize" validate:"min=1"`

	Dirs  DirsConfig  `json:"dirs"`
	Redis RedisConfig `json:"redis"`
}

// DirsConfig holds the base directories scanned for each component family.
type DirsConfig struct {
	Adapters    string `json:"adapters" validate:"required"`
	Translators string `json:"translators" validate:"required"`
	Plugins     string `json:"plugins" validate:"required"`
}

// RedisConfig holds the optional stats store settings. An empty URL disables it.
type RedisConfig struct {
	URL      string `json:"url,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// Component is one entry of the adapter, translator or plugin table.
type Component struct {
	Name string `json:"name" validate:"required"`

	// UseTree enables scope filtering. When false the component sees every message.
	UseTree bool `json:"useTree"`

	// Adapters limits a translator or plugin to messages from these adapters.
	Adapters []string `json:"adapters,omitempty"`

	// Translators limits a plugin to messages annotated by these translators.
	Translators []string `json:"translators,omitempty"`

	// Options carries component-specific settings.
	Options map[string]any `json:"options,omitempty"`
}

// String returns a string option or def.
func (c Component) String(key, def string) string {
	if v, ok := c.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Strings returns a string list option.
func (c Component) Strings(key string) []string {
	raw, ok := c.Options[key].([]any)
	if !ok {
		if ss, ok := c.Options[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Tables is one component table. Lookup gives name-keyed access.
type Tables []Component

// Lookup returns the entry named name, or a bare entry with only the name set.
func (t Tables) Lookup(name string) Component {
	for _, c := range t {
		if c.Name == name {
			return c
		}
	}
	return Component{Name: name}
}

// Names returns the configured component names in table order.
func (t Tables) Names() []string {
	names := make([]string, 0, len(t))
	for _, c := range t {
		names = append(names, c.Name)
	}
	return names
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Bot: BotConfig{
			Name:     "Paimon",
			Language: "zh",
			LogLevel: 4,
			LogDir:   "log",
			Master: map[string][]string{
				"adapter_stdin": {"stdin"},
			},
			ShutdownGrace: 5,
			Workers:       8,
			QueueSize:     256,
			Dirs: DirsConfig{
				Adapters:    "adapters",
				Translators: "translators",
				Plugins:     "plugins",
			},
		},
		Adapters:    Tables{{Name: "adapter_stdin"}},
		Translators: Tables{{Name: "translator_command", Options: map[string]any{"prefix": "/"}}},
		Plugins: Tables{
			{Name: "plugin_ping"},
			{Name: "plugin_status"},
		},
	}
}
