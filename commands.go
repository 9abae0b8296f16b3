package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/config"
	"github.com/pdok/tilefinder/crs"
	"github.com/pdok/tilefinder/geomhelp"
	"github.com/pdok/tilefinder/logging"
	"github.com/pdok/tilefinder/metrics"
	"github.com/pdok/tilefinder/processing"
	"github.com/pdok/tilefinder/resolver"
	"github.com/pdok/tilefinder/server"
)

const X string = `x`
const Y string = `y`
const ADDR string = `addr`
const CODE string = `code`
const MAXLENGTH string = `max-length`
const OUT string = `out`
const OVERWRITE string = `overwrite`
const PROJECTED string = `projected`

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Print the tile containing a single point",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:     X,
				Aliases:  []string{"lon"},
				Usage:    "X of the point, the longitude for a geographic query CRS",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     Y,
				Aliases:  []string{"lat"},
				Usage:    "Y of the point, the latitude for a geographic query CRS",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c, "resolve")
			if err != nil {
				return err
			}
			res, err := buildResolver(cfg, logger, nil)
			if err != nil {
				return err
			}
			resolution, err := res.Resolve(geom.Point{c.Float64(X), c.Float64(Y)})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\n", resolution.ID, resolution.Entry.Code, resolution.Entry.Location)
			return err
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Resolve the id,x,y records read from stdin and write CSV results to stdout",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c, "batch")
			if err != nil {
				return err
			}
			res, err := buildResolver(cfg, logger, nil)
			if err != nil {
				return err
			}
			source := processing.CSVSource{Reader: c.App.Reader, Logger: logger}
			target := processing.CSVTarget{Writer: c.App.Writer, Logger: logger}
			processing.ProcessQueries(source, target, res.Resolve, cfg.Workers, logger)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the resolver over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    ADDR,
				Usage:   "Address to listen on. E.g.: :8080",
				EnvVars: []string{envVar(ADDR)},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c, "server")
			if err != nil {
				return err
			}
			provider := metrics.New(versioninfo.Short())
			res, err := buildResolver(cfg, logger, provider)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg.Addr, server.NewRouter(res, provider.Handler(), logger), logger)
		},
	}
}

func tileCommand() *cli.Command {
	return &cli.Command{
		Name:  "tile",
		Usage: "Print the footprint of a tile as WKT, as published and snapped to the grid",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     CODE,
				Usage:    "Code of the tile. E.g.: PRAH16",
				Required: true,
			},
			&cli.UintFlag{
				Name:  MAXLENGTH,
				Usage: "Truncate the WKT to this many characters, 0 for no limit",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c, "tile")
			if err != nil {
				return err
			}
			res, err := buildResolver(cfg, logger, nil)
			if err != nil {
				return err
			}
			id, ok := res.Catalogue().Lookup(c.String(CODE))
			if !ok {
				return fmt.Errorf("unknown tile %q", c.String(CODE))
			}
			raw, snapped, err := res.Footprint(id)
			if err != nil {
				return err
			}
			maxLen := c.Uint(MAXLENGTH)
			_, err = fmt.Fprintf(c.App.Writer, "%d\t%s\n%s\n%s\n", id, c.String(CODE),
				geomhelp.WktMustEncode(geom.Polygon{raw}, maxLen),
				geomhelp.WktMustEncode(geom.Polygon{snapped}, maxLen))
			return err
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Write the catalogue to a GeoPackage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     OUT,
				Aliases:  []string{"o"},
				Usage:    "Target GeoPackage",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  OVERWRITE,
				Usage: "Overwrite the target GeoPackage if it exists",
			},
			&cli.BoolFlag{
				Name:  PROJECTED,
				Usage: "Store the footprints in the projected CRS instead of the catalogue's own",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c, "convert")
			if err != nil {
				return err
			}
			cat, err := cfg.LoadCatalogue()
			if err != nil {
				return err
			}
			if c.Bool(PROJECTED) {
				projected, err := crs.Parse(cfg.ProjectedCRS)
				if err != nil {
					return err
				}
				if cat, err = cat.Reproject(projected); err != nil {
					return err
				}
			}
			out := c.String(OUT)
			if c.Bool(OVERWRITE) {
				if err = removeIfExists(out); err != nil {
					return err
				}
			}
			table := catalogue.GeoPackageTable{
				Name:           cfg.Catalogue.Table,
				CodeColumn:     cfg.Catalogue.CodeColumn,
				LocationColumn: cfg.Catalogue.LocationColumn,
			}
			if err = catalogue.WriteGeoPackage(out, table, cat); err != nil {
				return err
			}
			logger.Info().Str("path", out).Int("tiles", cat.Len()).Stringer("crs", cat.ReferenceSystem()).Msg("wrote GeoPackage")
			return nil
		},
	}
}

// setup merges the config file with the flags that are set and builds the logger
func setup(c *cli.Context, component string) (config.Config, zerolog.Logger, error) {
	cfg, err := configFromFlags(c)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	logger := logging.Build(logging.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Component: component}, c.App.ErrWriter)
	return cfg, logger, nil
}

func configFromFlags(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(CONFIG); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(CATALOGUE) {
		cfg.Catalogue.Atom = c.String(CATALOGUE)
		cfg.Catalogue.GeoPackage = ""
	}
	if c.IsSet(GEOPACKAGE) {
		cfg.Catalogue.GeoPackage = c.String(GEOPACKAGE)
		cfg.Catalogue.Atom = ""
	}
	setString(c, TABLE, &cfg.Catalogue.Table)
	setString(c, CODECOLUMN, &cfg.Catalogue.CodeColumn)
	setString(c, LOCATIONCOLUMN, &cfg.Catalogue.LocationColumn)
	setString(c, CODEPREFIX, &cfg.CodePrefix)
	setString(c, QUERYCRS, &cfg.QueryCRS)
	setString(c, LOGLEVEL, &cfg.LogLevel)
	setString(c, ADDR, &cfg.Addr)
	if c.IsSet(GRIDWIDTH) {
		cfg.Grid.CellWidth = c.Float64(GRIDWIDTH)
	}
	if c.IsSet(GRIDHEIGHT) {
		cfg.Grid.CellHeight = c.Float64(GRIDHEIGHT)
	}
	if c.IsSet(CACHESIZE) {
		cfg.CacheSize = c.Int(CACHESIZE)
	}
	if c.IsSet(WORKERS) {
		cfg.Workers = c.Int(WORKERS)
	}
	if c.IsSet(LOGCONSOLE) {
		cfg.LogConsole = c.Bool(LOGCONSOLE)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setString(c *cli.Context, flag string, value *string) {
	if c.IsSet(flag) {
		*value = c.String(flag)
	}
}

func buildResolver(cfg config.Config, logger zerolog.Logger, observer resolver.Observer) (*resolver.Resolver, error) {
	opts, err := cfg.ResolverOptions(logger, observer)
	if err != nil {
		return nil, err
	}
	cat, err := cfg.LoadCatalogue()
	if err != nil {
		return nil, err
	}
	return resolver.New(cat, opts)
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	var pathError *os.PathError
	if err != nil && !(errors.As(err, &pathError) && errors.Is(pathError.Err, syscall.ENOENT)) {
		return fmt.Errorf("could not remove target file: %w", err)
	}
	return nil
}
