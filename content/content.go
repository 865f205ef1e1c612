// Package content loads static game tables: monster templates and the seed
// of a new session's world.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

const (
	MonstersFile = "monsters.yaml"
	WorldFile    = "world.yaml"
)

// ErrMissing is returned when a required table is not found.
var ErrMissing = errors.New("missing content")

//go:embed data/*.yaml
var builtin embed.FS

// Builtin returns the content shipped with the binary.
func Builtin() afero.Fs {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		panic(err)
	}
	return afero.FromIOFS{FS: sub}
}

type MonsterTemplate struct {
	ID         string `yaml:"id"`
	HP         uint32 `yaml:"hp"`
	Strength   uint32 `yaml:"strength"`
	Experience uint64 `yaml:"experience"`
	Gold       uint64 `yaml:"gold"`
}

type Point struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

func (p Point) Location() types.Location {
	return types.Location{X: p.X, Y: p.Y}
}

type SpawnSpec struct {
	Template string `yaml:"template"`
	Count    uint32 `yaml:"count"`
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
}

type MerchantSpec struct {
	Category string `yaml:"category"`
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
}

type World struct {
	Start     Point          `yaml:"start"`
	Monsters  []SpawnSpec    `yaml:"monsters"`
	Merchants []MerchantSpec `yaml:"merchants"`
	Ponds     []Point        `yaml:"ponds"`
}

type monstersFile struct {
	Templates []MonsterTemplate `yaml:"templates"`
}

// Catalog is the loaded content.
type Catalog struct {
	templates map[string]MonsterTemplate
	World     World
}

// Load reads and validates the tables in dir. A missing table is an error,
// a node cannot run without them.
func Load(fsys afero.Fs, dir string) (*Catalog, error) {
	var monsters monstersFile
	if err := readYAML(fsys, filepath.Join(dir, MonstersFile), &monsters); err != nil {
		return nil, err
	}
	c := &Catalog{templates: make(map[string]MonsterTemplate, len(monsters.Templates))}
	if err := readYAML(fsys, filepath.Join(dir, WorldFile), &c.World); err != nil {
		return nil, err
	}
	for _, tmpl := range monsters.Templates {
		if tmpl.ID == "" {
			return nil, fmt.Errorf("%s: template without id", MonstersFile)
		}
		if tmpl.HP == 0 {
			return nil, fmt.Errorf("%s: template %s has no hp", MonstersFile, tmpl.ID)
		}
		if _, exists := c.templates[tmpl.ID]; exists {
			return nil, fmt.Errorf("%s: duplicate template %s", MonstersFile, tmpl.ID)
		}
		c.templates[tmpl.ID] = tmpl
	}
	for _, spawn := range c.World.Monsters {
		if _, ok := c.templates[spawn.Template]; !ok {
			return nil, fmt.Errorf("%s: unknown template %s", WorldFile, spawn.Template)
		}
	}
	return c, nil
}

func readYAML(fsys afero.Fs, path string, v any) error {
	buf, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissing, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Template returns a monster template by id.
func (c *Catalog) Template(id string) (MonsterTemplate, bool) {
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// Monsters spawns the seed monsters of a new world. Instances of a template
// are numbered from 1 in file order.
func (c *Catalog) Monsters() []types.Monster {
	var (
		rst       []types.Monster
		instances = map[string]uint32{}
	)
	for _, spawn := range c.World.Monsters {
		tmpl := c.templates[spawn.Template]
		for range spawn.Count {
			instances[spawn.Template]++
			rst = append(rst, types.Monster{
				Key:      types.MonsterKey{Template: spawn.Template, Instance: instances[spawn.Template]},
				Location: types.Location{X: spawn.X, Y: spawn.Y},
				Alive:    true,
				HP:       tmpl.HP,
				MaxHP:    tmpl.HP,
			})
		}
	}
	return rst
}

// Merchants of a new world.
func (c *Catalog) Merchants() []types.Merchant {
	rst := make([]types.Merchant, 0, len(c.World.Merchants))
	for _, m := range c.World.Merchants {
		rst = append(rst, types.Merchant{Location: types.Location{X: m.X, Y: m.Y}, Category: m.Category})
	}
	return rst
}

// Markers are the ponds of a new world.
func (c *Catalog) Markers() []types.Marker {
	rst := make([]types.Marker, 0, len(c.World.Ponds))
	for _, p := range c.World.Ponds {
		rst = append(rst, types.Marker{Location: p.Location()})
	}
	return rst
}
