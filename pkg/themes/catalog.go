package themes

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

//go:embed catalog.toml
var defaultCatalog []byte

var errInvalidCatalog = errors.New("invalid theme catalog")

type document struct {
	Themes []domain.ThemeOption `toml:"themes"`
}

// catalog is the read-only theme tree offered as menus.
type catalog struct {
	root  []domain.ThemeOption
	paths map[string][]domain.ThemeOption
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*catalog, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding theme catalog: %w", err)
	}
	if len(doc.Themes) == 0 {
		return nil, fmt.Errorf("%w: no themes", errInvalidCatalog)
	}

	c := &catalog{
		root:  doc.Themes,
		paths: make(map[string][]domain.ThemeOption),
	}
	if err := c.index(doc.Themes, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *catalog) index(themes []domain.ThemeOption, parents []domain.ThemeOption) error {
	for _, t := range themes {
		switch {
		case t.ID == "" || t.Label == "":
			return fmt.Errorf("%w: theme %q needs an id and a label", errInvalidCatalog, t.ID)
		case t.IsLeaf() && t.Query == "":
			return fmt.Errorf("%w: theme %q has neither query nor subtopics", errInvalidCatalog, t.ID)
		case !t.IsLeaf() && t.Query != "":
			return fmt.Errorf("%w: theme %q has both query and subtopics", errInvalidCatalog, t.ID)
		}
		if _, dup := c.paths[t.ID]; dup {
			return fmt.Errorf("%w: duplicate theme id %q", errInvalidCatalog, t.ID)
		}

		path := append(append([]domain.ThemeOption(nil), parents...), t)
		c.paths[t.ID] = path

		if err := c.index(t.Subtopics, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *catalog) Root() []domain.ThemeOption {
	return c.root
}

func (c *catalog) Find(id string) (domain.ThemeOption, bool) {
	path, ok := c.paths[id]
	if !ok {
		return domain.ThemeOption{}, false
	}
	return path[len(path)-1], true
}

// Path returns the chain of themes from the root down to id.
func (c *catalog) Path(id string) ([]domain.ThemeOption, bool) {
	path, ok := c.paths[id]
	if !ok {
		return nil, false
	}
	return append([]domain.ThemeOption(nil), path...), true
}
