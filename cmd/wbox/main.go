package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bodgit/wbox"
	"github.com/bodgit/wbox/cache"
	"github.com/bodgit/wbox/palette"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(c.App.ErrWriter)
	}
	return logger
}

func pause(c *cli.Context) {
	fmt.Fprintln(c.App.Writer, "Press Enter to exit...")
	_, _ = bufio.NewReader(c.App.Reader).ReadString('\n')
}

func convert(c *cli.Context) error {
	if !c.Bool("no-pause") {
		defer pause(c)
	}

	if c.NArg() < 1 {
		return cli.Exit("no input file provided", 1)
	}

	opts := []wbox.Option{
		wbox.WithWorkers(c.Int("workers")),
		wbox.WithFreezeMapCheck(c.Bool("check-freeze-map")),
		wbox.WithPreview(c.String("preview")),
		wbox.WithWarningHook(func(err error) {
			fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", err)
		}),
	}

	if file := c.String("cache"); file != "" {
		db, err := cache.New(file)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer db.Close()
		opts = append(opts, wbox.WithStore(db))
	}

	if c.Bool("progress") {
		bar := progressbar.Default(int64(wbox.NumStages), "converting")
		defer bar.Finish()
		opts = append(opts, wbox.WithStageHook(func(s wbox.Stage) {
			bar.Describe(s.String())
			_ = bar.Add(1)
		}))
	}

	job := wbox.Job{
		Image:     c.Args().First(),
		Palette:   c.String("palette"),
		MapData:   c.String("map-data"),
		WorldLaws: c.String("world-laws"),
		FreezeMap: c.String("freeze-map"),
		Output:    c.String("output"),
	}

	if err := wbox.New(newLogger(c), opts...).Convert(job); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	fmt.Fprintf(c.App.Writer, "Output written to %s\n", job.Output)

	return nil
}

func derivePalette(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	m, err := wbox.DecodeImage(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	entries := palette.Derive(m, c.Int("colors"))
	newLogger(c).Printf("Derived %d colors from %s\n", len(entries), c.Args().First())

	if err := palette.Write(c.App.Writer, entries); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func dump(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	doc, err := wbox.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	b, err := doc.MarshalJSON()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if _, err := fmt.Fprintln(c.App.Writer, string(b)); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "wbox"
	app.Usage = "Convert an image into a compressed tile map"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image into a .wbox map",
			Description: "Quantizes IMAGE against the palette, encodes the tile grid into the map data document and writes it compressed.",
			ArgsUsage:   "IMAGE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "palette",
					Aliases: []string{"p"},
					Value:   "palettes/no-special.txt",
					Usage:   "color palette file",
				},
				&cli.StringFlag{
					Name:    "map-data",
					Aliases: []string{"m"},
					Value:   "map_data.json",
					Usage:   "JSON map data file",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "map.wbox",
					Usage:   "output file",
				},
				&cli.StringFlag{
					Name:    "world-laws",
					Aliases: []string{"w"},
					Value:   "worldlaws/default.txt",
					Usage:   "world laws file",
				},
				&cli.StringFlag{
					Name:    "freeze-map",
					Aliases: []string{"f"},
					Usage:   "image whose white pixels mark frozen tiles",
				},
				&cli.BoolFlag{
					Name:  "check-freeze-map",
					Usage: "reject a freeze map that isn't the same size as the map",
				},
				&cli.StringFlag{
					Name:  "preview",
					Usage: "also save the quantized image to this PNG or JPEG file",
				},
				&cli.StringFlag{
					Name:    "cache",
					EnvVars: []string{"WBOX_CACHE"},
					Usage:   "path to color resolution cache database",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "number of worker goroutines, 0 for one per CPU",
				},
				&cli.BoolFlag{
					Name:  "progress",
					Usage: "show a progress bar",
				},
				&cli.BoolFlag{
					Name:    "no-pause",
					Aliases: []string{"n"},
					Usage:   "don't wait for Enter before exiting",
				},
			},
			Action: convert,
		},
		{
			Name:        "palette",
			Usage:       "Derive a palette file from an image",
			Description: "Prints up to --colors entries chosen by median cut, in palette file format.",
			ArgsUsage:   "IMAGE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "colors",
					Value: 16,
					Usage: "maximum number of colors",
				},
			},
			Action: derivePalette,
		},
		{
			Name:        "dump",
			Usage:       "Print the JSON document inside a .wbox file",
			Description: "",
			ArgsUsage:   "FILE",
			Action:      dump,
		},
	}

	app.DefaultCommand = "convert"

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
