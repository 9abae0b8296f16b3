// Package config holds the settings shared by the CLI commands: a JSON file,
// defaults for whatever it leaves out, overridden per flag.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
	"github.com/rs/zerolog"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/crs"
	"github.com/pdok/tilefinder/resolver"
	"github.com/pdok/tilefinder/snap"
)

type Config struct {
	Grid         snap.Grid `json:"grid"`
	QueryCRS     string    `default:"EPSG:4326" validate:"required" json:"queryCrs"`
	ProjectedCRS string    `default:"EPSG:5514" validate:"required" json:"projectedCrs"`
	CodePrefix   string    `default:"CUZK_DMR5G-SJTSK_" json:"codePrefix"`
	CacheSize    int       `default:"4096" validate:"gte=0" json:"cacheSize"`
	Workers      int       `default:"4" validate:"gte=1,lte=1024" json:"workers"`
	LogLevel     string    `default:"info" validate:"oneof=trace debug info warn error disabled" json:"logLevel"`
	LogConsole   bool      `json:"logConsole"`
	Addr         string    `default:":8080" validate:"required,hostname_port|startswith=:" json:"addr"`
	Catalogue    Catalogue `json:"catalogue"`
}

// Catalogue points at either an Atom feed or a GeoPackage table
type Catalogue struct {
	Atom           string `json:"atom" validate:"required_without=GeoPackage,excluded_with=GeoPackage"`
	GeoPackage     string `json:"geopackage" validate:"required_without=Atom"`
	Table          string `default:"tiles" json:"table"`
	CodeColumn     string `default:"code" json:"codeColumn"`
	LocationColumn string `json:"locationColumn"`
}

// Default returns the configuration for the DMR 5G dataset, without a catalogue
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Errorf("could not set config defaults: %w", err))
	}
	return c
}

// Load reads a JSON config file, see Parse
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse fills Default() from JSON. Unknown keys are an error.
// The result is not validated yet, flags may still complete it.
func Parse(data []byte) (Config, error) {
	c := Default()
	unknown, err := marshmallow.Unmarshal(data, &c, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return Config{}, err
	}
	if len(unknown) > 0 {
		keys := make([]string, 0, len(unknown))
		for key := range unknown {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	// nested objects are replaced as a whole
	if err = defaults.Set(&c.Grid); err != nil {
		return Config{}, err
	}
	if err = defaults.Set(&c.Catalogue); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.referenceSystems(); err != nil {
		return err
	}
	return nil
}

func (c Config) referenceSystems() ([2]crs.ReferenceSystem, error) {
	query, err := crs.Parse(c.QueryCRS)
	if err != nil {
		return [2]crs.ReferenceSystem{}, fmt.Errorf("queryCrs: %w", err)
	}
	projected, err := crs.Parse(c.ProjectedCRS)
	if err != nil {
		return [2]crs.ReferenceSystem{}, fmt.Errorf("projectedCrs: %w", err)
	}
	if _, err = crs.New(query, projected); err != nil {
		return [2]crs.ReferenceSystem{}, err
	}
	return [2]crs.ReferenceSystem{query, projected}, nil
}

// ResolverOptions translates the config for resolver.New
func (c Config) ResolverOptions(logger zerolog.Logger, observer resolver.Observer) (resolver.Options, error) {
	rss, err := c.referenceSystems()
	if err != nil {
		return resolver.Options{}, err
	}
	return resolver.Options{
		Grid:         c.Grid,
		QueryCRS:     rss[0],
		ProjectedCRS: rss[1],
		CacheSize:    c.CacheSize,
		Logger:       logger,
		Observer:     observer,
	}, nil
}

// LoadCatalogue reads the configured catalogue source
func (c Config) LoadCatalogue() (*catalogue.Catalogue, error) {
	if c.Catalogue.GeoPackage != "" {
		return catalogue.LoadGeoPackage(c.Catalogue.GeoPackage, catalogue.GeoPackageTable{
			Name:           c.Catalogue.Table,
			CodeColumn:     c.Catalogue.CodeColumn,
			LocationColumn: c.Catalogue.LocationColumn,
		})
	}
	if c.Catalogue.Atom == "" {
		return nil, fmt.Errorf("no catalogue configured, need an Atom feed or a GeoPackage")
	}
	return catalogue.LoadAtom(c.Catalogue.Atom, c.CodePrefix)
}
