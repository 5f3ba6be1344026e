package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/alsdbtjd0103/norae/internal/ui"
)

// playCommand handles headless playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play takes and playlists",
		Commands: []*cli.Command{
			{
				Name:  "take",
				Usage: "Play a single take",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Take ID",
						Required: true,
					},
				},
				Action: r.PlayTake,
			},
			{
				Name:  "playlist",
				Usage: "Play a playlist front to back",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "start",
						Usage: "Queue index to start from",
					},
					&cli.StringFlag{
						Name:    "repeat",
						Aliases: []string{"r"},
						Usage:   "Repeat mode (none, one, all)",
					},
				},
				Action: r.PlayPlaylist,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive practice sessions.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive practice browser and player",
		Action:  r.TUI,
	}
}

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}
	session, err := r.openSession()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/norae-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(lib, session)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
