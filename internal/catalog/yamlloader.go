package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pourlane/ordercore/internal/taxonomy"
)

// File is the top-level structure of an Ordercore catalog YAML file.
//
// Example:
//
//	catalog:
//	  name: "Downtown Drive-Thru"
//	  currency: "USD"
//	items:
//	  - product_id: 10001
//	    name: "White Chocolate Mocha"
//	    base_price: 7.50
//	    category: drink
//	    modifier_prices:
//	      Oat Milk: 0.75
//	taxonomy:
//	  - category: toppings
//	    canonical: "Soft Top"
//	    phrases: ["soft top"]
type File struct {
	Catalog Meta `yaml:"catalog"`

	// Items lists the products sold at this location.
	Items []Entry `yaml:"items"`

	// Taxonomy optionally extends the built-in modifier taxonomy with
	// location-specific entries. May be empty.
	Taxonomy []taxonomy.Entry `yaml:"taxonomy,omitempty"`
}

// Meta holds top-level metadata for a catalog file.
type Meta struct {
	// Name is the location or menu display name.
	Name string `yaml:"name"`

	// Currency is the ISO 4217 currency code prices are denominated in.
	Currency string `yaml:"currency"`
}

// LoadFile reads and parses a catalog YAML file from disk.
// Returns a descriptive error if the file cannot be opened or parsed.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open catalog file %q: %w", path, err)
	}
	defer f.Close()

	cf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse catalog file %q: %w", path, err)
	}
	return cf, nil
}

// LoadFromReader parses catalog YAML from an [io.Reader] and validates it.
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadFromReader(r io.Reader) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("catalog: decode catalog yaml: %w", err)
	}
	if err := validateFile(&cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// validateFile checks a parsed catalog file for required fields.
// It returns a joined error listing all validation failures found.
func validateFile(cf *File) error {
	var errs []error

	if len(cf.Items) == 0 {
		errs = append(errs, ErrEmptyCatalog)
	}
	for i, item := range cf.Items {
		if item.Name == "" {
			errs = append(errs, fmt.Errorf("items[%d]: name must not be empty", i))
		}
		if item.ProductID <= 0 {
			errs = append(errs, fmt.Errorf("items[%d] (%q): product_id must be positive", i, item.Name))
		}
		if item.BasePrice < 0 {
			errs = append(errs, fmt.Errorf("items[%d] (%q): base_price must not be negative", i, item.Name))
		}
		if !item.Category.IsValid() {
			errs = append(errs, fmt.Errorf("items[%d] (%q): category %q is not a recognised catalog category", i, item.Name, item.Category))
		}
	}
	for i, entry := range cf.Taxonomy {
		if !entry.Category.IsValid() {
			errs = append(errs, fmt.Errorf("taxonomy[%d]: category %q is not a recognised modifier category", i, entry.Category))
		}
		if entry.Canonical == "" {
			errs = append(errs, fmt.Errorf("taxonomy[%d]: canonical must not be empty", i))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// BuildIndex constructs an [Index] from the file's items.
func (cf *File) BuildIndex() (*Index, error) {
	return NewIndex(cf.Items)
}

// TaxonomyEntries returns the built-in taxonomy extended with the file's
// location-specific entries, in that order so file entries can only add
// vocabulary, never shadow exact matches of built-in phrases.
func (cf *File) TaxonomyEntries() []taxonomy.Entry {
	entries := taxonomy.DefaultEntries()
	return append(entries, cf.Taxonomy...)
}
