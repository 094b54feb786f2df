// Package knowledge holds the static legal corpus: Dominican legal topics,
// government institutions and the firm's price list, with keyword search and
// WhatsApp-ready formatting.
package knowledge

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Topic is an explanatory article about a legal procedure.
type Topic struct {
	Key       string   `yaml:"key"`
	Title     string   `yaml:"title"`
	MenuLabel string   `yaml:"menu_label"`
	Keywords  []string `yaml:"keywords"`
	LawRefs   []string `yaml:"law_refs"`
	Content   string   `yaml:"content"`
}

// Institution is a government body or reference link.
type Institution struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Keywords    []string `yaml:"keywords"`
}

// Prices holds whichever price shapes an item uses. Amounts are RD$.
type Prices struct {
	Rango   string `yaml:"rango,omitempty"`
	Unico   int    `yaml:"unico,omitempty"`
	Unidad  int    `yaml:"unidad,omitempty"`
	Paquete int    `yaml:"paquete,omitempty"`
	Letter  int    `yaml:"8x11,omitempty"`
	Legal   int    `yaml:"8x14,omitempty"`
	Tabloid int    `yaml:"11x17,omitempty"`
}

// ServiceItem is one priced entry of a category.
type ServiceItem struct {
	Name   string `yaml:"name"`
	Desc   string `yaml:"desc,omitempty"`
	Prices Prices `yaml:"prices"`
}

// Category groups related services.
type Category struct {
	Key   string        `yaml:"key"`
	Name  string        `yaml:"name"`
	Emoji string        `yaml:"emoji"`
	Legal bool          `yaml:"legal,omitempty"`
	Items []ServiceItem `yaml:"items"`
}

type corpus struct {
	Topics       []Topic       `yaml:"topics"`
	Institutions []Institution `yaml:"institutions"`
	Services     []Category    `yaml:"services"`
}

// Base is an immutable, loaded corpus. It is safe for concurrent use.
type Base struct {
	topics       []Topic
	institutions []Institution
	categories   []Category
}

// Load parses the embedded corpus.
func Load() (*Base, error) {
	return Parse(corpusYAML)
}

// MustLoad parses the embedded corpus and panics if it is malformed.
func MustLoad() *Base {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Parse builds a Base from YAML.
func Parse(raw []byte) (*Base, error) {
	var c corpus
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge corpus: %w", err)
	}
	if len(c.Topics) == 0 && len(c.Institutions) == 0 {
		return nil, fmt.Errorf("knowledge corpus is empty")
	}
	slog.Debug("knowledge.Parse: corpus loaded",
		"topics", len(c.Topics), "institutions", len(c.Institutions), "categories", len(c.Services))
	return &Base{topics: c.Topics, institutions: c.Institutions, categories: c.Services}, nil
}

// Topics returns the topics in menu order.
func (b *Base) Topics() []Topic { return b.topics }

// Institutions returns the institutions in menu order.
func (b *Base) Institutions() []Institution { return b.institutions }

// Categories returns all service categories, legal ones first as declared.
func (b *Base) Categories() []Category { return b.categories }

// Topic looks a topic up by key.
func (b *Base) Topic(key string) (Topic, bool) {
	for _, t := range b.topics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}

// Institution looks an institution up by key.
func (b *Base) Institution(key string) (Institution, bool) {
	for _, in := range b.institutions {
		if in.Key == key {
			return in, true
		}
	}
	return Institution{}, false
}

// MenuCategories returns categories in the numbering used by the price menu:
// legal categories first, then office ones.
func (b *Base) MenuCategories() []Category {
	out := make([]Category, 0, len(b.categories))
	for _, c := range b.categories {
		if c.Legal {
			out = append(out, c)
		}
	}
	for _, c := range b.categories {
		if !c.Legal {
			out = append(out, c)
		}
	}
	return out
}
