package bot

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/builtin"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/loader"
)

// Scaffold creates the component directories and writes a module manifest for
// every bundled component named in the config tables. Existing manifests are
// left alone. Returns the module directories written.
func (b *Bot) Scaffold() ([]string, error) {
	tables := map[component.Family]struct {
		dir   string
		names []string
	}{
		component.Adapters:    {b.cfg.Bot.Dirs.Adapters, b.cfg.Adapters.Names()},
		component.Translators: {b.cfg.Bot.Dirs.Translators, b.cfg.Translators.Names()},
		component.Plugins:     {b.cfg.Bot.Dirs.Plugins, b.cfg.Plugins.Names()},
	}

	var written []string
	for family, manifests := range builtin.Manifests() {
		t := tables[family]
		base := b.Dir(t.dir)
		if err := os.MkdirAll(base, 0755); err != nil {
			return written, err
		}
		for _, m := range manifests {
			if !lo.Contains(t.names, m.Name) {
				continue
			}
			dir := filepath.Join(base, m.Name)
			if _, err := os.Stat(filepath.Join(dir, loader.ManifestFile)); err == nil {
				continue
			}
			if err := loader.WriteManifest(dir, m); err != nil {
				return written, err
			}
			written = append(written, dir)
		}
	}
	return written, nil
}

// Candidates lists the discovered module directories per family.
func Candidates(cfg config.Config, root string) (map[component.Family][]string, error) {
	b := New(cfg, root, nil, nil)
	out := make(map[component.Family][]string, 3)
	for family, dir := range map[component.Family]string{
		component.Adapters:    cfg.Bot.Dirs.Adapters,
		component.Translators: cfg.Bot.Dirs.Translators,
		component.Plugins:     cfg.Bot.Dirs.Plugins,
	} {
		dirs, err := loader.Discover(b.Dir(dir))
		if err != nil {
			return nil, err
		}
		out[family] = dirs
	}
	return out, nil
}
