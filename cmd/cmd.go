// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// register wires every command group to the runner.
func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		setupCommand(r),
		songCommand(r),
		takeCommand(r),
		defaultCommand(r),
		playlistCommand(r),
		playCommand(r),
		tuiCommand(r),
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config, database and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// songCommand handles the song catalog
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a new song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "artist",
						Aliases: []string{"a"},
						Usage:   "Artist name",
					},
				},
				Action: r.SongAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List songs, most recently practiced first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SongList,
			},
			{
				Name:  "show",
				Usage: "Show a song with all its takes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Song ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SongShow,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete a song and all its takes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.SongDelete,
			},
		},
	}
}

// takeCommand handles recorded takes
func takeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "take",
		Usage: "Manage recorded takes",
		Commands: []*cli.Command{
			{
				Name:  "record",
				Usage: "Record a new take with the configured capture command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rating",
						Usage: "Self-rating 1-5",
						Value: 3,
					},
					&cli.StringFlag{
						Name:    "memo",
						Aliases: []string{"m"},
						Usage:   "Practice note",
					},
				},
				Action: r.TakeRecord,
			},
			{
				Name:  "add",
				Usage: "Import an existing audio file as a take",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the audio file",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "duration",
						Usage: "Take duration in seconds",
					},
					&cli.IntFlag{
						Name:  "rating",
						Usage: "Self-rating 1-5",
						Value: 3,
					},
					&cli.StringFlag{
						Name:    "memo",
						Aliases: []string{"m"},
						Usage:   "Practice note",
					},
				},
				Action: r.TakeAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List a song's takes, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TakeList,
			},
			{
				Name:  "rate",
				Usage: "Update a take's rating or memo",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Take ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rating",
						Usage: "Self-rating 1-5",
					},
					&cli.StringFlag{
						Name:    "memo",
						Aliases: []string{"m"},
						Usage:   "Practice note",
					},
				},
				Action: r.TakeRate,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete a take and its audio file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Take ID",
						Required: true,
					},
				},
				Action: r.TakeDelete,
			},
		},
	}
}

// defaultCommand manages per-song representative takes
func defaultCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "default",
		Usage: "Manage each song's representative take",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Mark a take as its song's representative version",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "version",
						Aliases:  []string{"v"},
						Usage:    "Take ID",
						Required: true,
					},
				},
				Action: r.DefaultSet,
			},
			{
				Name:  "clear",
				Usage: "Remove a song's representative designation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.DefaultClear,
			},
		},
	}
}
