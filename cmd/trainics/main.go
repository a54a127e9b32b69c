package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"trainics/internal/config"
	"trainics/internal/ics"
	appLog "trainics/internal/log"
	"trainics/internal/refresh"
	"trainics/internal/source"
	"trainics/internal/web"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &cli.App{
		Name:    "trainics",
		Usage:   "Turn public transit journeys into calendar events",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "./trainics.yaml", Usage: "path to config file", EnvVars: []string{"TRAINICS_CONFIG"}},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				appLog.SetLevel(appLog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			convertCommand(),
			serveCommand(),
			watchCommand(),
			inspectCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		appLog.Error("trainics failed", err)
		os.Exit(1)
	}
}

// journeyFlags override the journey-related parts of the config file.
func journeyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "journey", Aliases: []string{"j"}, Usage: "journey JSON file"},
		&cli.StringFlag{Name: "url", Usage: "journey JSON URL"},
		&cli.IntFlag{Name: "offset", Usage: "departure timezone correction in minutes"},
		&cli.StringFlag{Name: "timezone", Usage: "IANA timezone for events"},
		&cli.BoolFlag{Name: "traewelling", Usage: "append Träwelling check-in links"},
		&cli.BoolFlag{Name: "travelynx", Usage: "append travelynx links"},
		&cli.BoolFlag{Name: "marudor", Usage: "append marudor.de links"},
	}
}

// logLevel lets --debug and TRAINICS_DEBUG=YES win over the configured level.
func logLevel(debugFlag bool, configured string) appLog.Level {
	if debugFlag || appLog.DebugFromEnv() {
		return appLog.LevelDebug
	}
	return appLog.ParseLevel(configured)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if c.IsSet("journey") {
		conf.Journey = config.JourneyConfig{File: c.String("journey")}
	}
	if c.IsSet("url") {
		conf.Journey = config.JourneyConfig{URL: c.String("url")}
	}
	if c.IsSet("offset") {
		conf.DepartureTZOffset = c.Int("offset")
	}
	if c.IsSet("timezone") {
		conf.Timezone = c.String("timezone")
	}
	if c.IsSet("traewelling") {
		conf.Links.Traewelling = c.Bool("traewelling")
	}
	if c.IsSet("travelynx") {
		conf.Links.Travelynx = c.Bool("travelynx")
	}
	if c.IsSet("marudor") {
		conf.Links.Marudor = c.Bool("marudor")
	}
	if c.IsSet("output") {
		conf.Output = c.String("output")
	}
	if c.IsSet("listen") {
		conf.Listen = c.String("listen")
	}

	appLog.SetLevel(logLevel(c.Bool("debug"), conf.LogLevel))
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	appLog.Debug("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"departure_tz_offset", conf.DepartureTZOffset,
		"traewelling", conf.Links.Traewelling,
		"travelynx", conf.Links.Travelynx,
		"marudor", conf.Links.Marudor,
		"output", conf.Output,
		"refresh", conf.RefreshCron,
	)
	return conf, nil
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "convert a journey into an .ics file",
		Flags: append(journeyFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output .ics path (default stdout)"},
		),
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}

			if conf.Output != "" {
				_, err := refresh.NewJob(conf, source.NewFetcher(conf.CacheDir)).RunOnce(c.Context)
				return err
			}

			cal, err := refresh.Convert(c.Context, source.NewFetcher(conf.CacheDir), conf)
			if err != nil {
				return err
			}
			return ics.Write(c.App.Writer, cal, time.Now())
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the configured journey as a subscribable calendar",
		Flags: append(journeyFlags(),
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config)"},
		),
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			return web.NewServer(conf, source.NewFetcher(conf.CacheDir)).ListenAndServe(c.Context)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "regenerate the output .ics file on the configured schedule",
		Flags: append(journeyFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output .ics path", Required: true},
		),
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			return refresh.NewJob(conf, source.NewFetcher(conf.CacheDir)).Run(c.Context)
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "list the events of an .ics file",
		ArgsUsage: "<file.ics>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("inspect needs exactly one .ics file", 2)
			}
			body, err := os.ReadFile(c.Args().First())
			if err != nil {
				return err
			}
			cal, err := ics.Parse(body)
			if err != nil {
				return err
			}
			return printCalendar(c.App.Writer, cal)
		},
	}
}

func printCalendar(w io.Writer, cal ics.ParsedCalendar) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", cal.Name, cal.TimeZone); err != nil {
		return err
	}
	for _, ev := range cal.Events {
		_, err := fmt.Fprintf(w, "%s - %s (%s)  %s\n",
			ev.Start.Format("2006-01-02 15:04"), ev.End.Format("15:04"), ev.Duration(), ev.Summary)
		if err != nil {
			return err
		}
	}
	return nil
}
