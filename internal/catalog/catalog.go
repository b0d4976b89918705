// Package catalog provides the static material catalog shown in the
// selection UI. It is loaded once at startup and never mutated.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Item is one selectable material.
type Item struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
	Unit string `yaml:"unit" json:"unit"`
}

// Category groups related items. Category and item order is file order.
type Category struct {
	Name  string `yaml:"name" json:"name"`
	Items []Item `yaml:"items" json:"items"`
}

// Catalog is the full set of predefined materials.
type Catalog struct {
	categories []Category
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// Load reads a catalog from a YAML file. A catalog with no categories or an
// item without a name is a misconfiguration and fails; callers treat that as
// fatal at startup.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog %s has no categories", path)
	}
	for _, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog %s has a category without a name", path)
		}
		for _, it := range c.Items {
			if it.Name == "" {
				return nil, fmt.Errorf("catalog %s: category %q has an item without a name", path, c.Name)
			}
		}
	}
	return &Catalog{categories: f.Categories}, nil
}

// Default returns the compiled-in catalog used when no catalog file is
// configured.
func Default() *Catalog {
	return &Catalog{categories: defaultCategories()}
}

// Categories returns the catalog content in declaration order. The returned
// slice is a copy; mutating it does not affect the catalog.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Find returns the item with the given code, if any.
func (c *Catalog) Find(code string) (Item, bool) {
	if code == "" {
		return Item{}, false
	}
	for _, cat := range c.categories {
		for _, it := range cat.Items {
			if it.Code == code {
				return it, true
			}
		}
	}
	return Item{}, false
}
