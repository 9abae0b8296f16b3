package main

import (
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const CONFIG string = `config`
const CATALOGUE string = `catalogue`
const GEOPACKAGE string = `gpkg`
const TABLE string = `table`
const CODECOLUMN string = `code-column`
const LOCATIONCOLUMN string = `location-column`
const CODEPREFIX string = `code-prefix`
const QUERYCRS string = `query-crs`
const GRIDWIDTH string = `grid-width`
const GRIDHEIGHT string = `grid-height`
const CACHESIZE string = `cache-size`
const WORKERS string = `workers`
const LOGLEVEL string = `log-level`
const LOGCONSOLE string = `log-console`

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("tilefinder failed")
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tilefinder"
	app.Usage = "Finds the DMR 5G terrain model tile containing a point"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "JSON config file, flags override its values",
			EnvVars: []string{envVar(CONFIG)},
		},
		&cli.StringFlag{
			Name:    CATALOGUE,
			Aliases: []string{"a"},
			Usage:   "Atom feed (XML) listing the tiles and their footprints",
			EnvVars: []string{envVar(CATALOGUE)},
		},
		&cli.StringFlag{
			Name:    GEOPACKAGE,
			Aliases: []string{"g"},
			Usage:   "GeoPackage with a table of tile footprints, instead of an Atom feed",
			EnvVars: []string{envVar(GEOPACKAGE)},
		},
		&cli.StringFlag{
			Name:    TABLE,
			Usage:   "Table in the GeoPackage holding the tiles",
			EnvVars: []string{envVar(TABLE)},
		},
		&cli.StringFlag{
			Name:    CODECOLUMN,
			Usage:   "Column in the GeoPackage table holding the tile code",
			EnvVars: []string{envVar(CODECOLUMN)},
		},
		&cli.StringFlag{
			Name:    LOCATIONCOLUMN,
			Usage:   "Column in the GeoPackage table holding the download location, if any",
			EnvVars: []string{envVar(LOCATIONCOLUMN)},
		},
		&cli.StringFlag{
			Name:    CODEPREFIX,
			Usage:   "Prefix in an Atom entry id that precedes the tile code",
			EnvVars: []string{envVar(CODEPREFIX)},
		},
		&cli.StringFlag{
			Name:    QUERYCRS,
			Usage:   "Reference system of the points to resolve. E.g.: EPSG:4326 or EPSG:5514",
			EnvVars: []string{envVar(QUERYCRS)},
		},
		&cli.Float64Flag{
			Name:    GRIDWIDTH,
			Usage:   "Width of a grid cell in metres",
			EnvVars: []string{envVar(GRIDWIDTH)},
		},
		&cli.Float64Flag{
			Name:    GRIDHEIGHT,
			Usage:   "Height of a grid cell in metres",
			EnvVars: []string{envVar(GRIDHEIGHT)},
		},
		&cli.IntFlag{
			Name:    CACHESIZE,
			Usage:   "Number of snapped footprints to keep in memory",
			EnvVars: []string{envVar(CACHESIZE)},
		},
		&cli.IntFlag{
			Name:    WORKERS,
			Aliases: []string{"w"},
			Usage:   "Number of concurrent resolutions in batch mode",
			EnvVars: []string{envVar(WORKERS)},
		},
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "One of trace, debug, info, warn, error, disabled",
			EnvVars: []string{envVar(LOGLEVEL)},
		},
		&cli.BoolFlag{
			Name:    LOGCONSOLE,
			Usage:   "Human readable log lines instead of JSON",
			EnvVars: []string{envVar(LOGCONSOLE)},
		},
	}

	app.Commands = []*cli.Command{
		resolveCommand(),
		batchCommand(),
		serveCommand(),
		tileCommand(),
		convertCommand(),
	}
	return app
}

func envVar(flag string) string {
	return strcase.ToScreamingSnake("tilefinder-" + flag)
}
