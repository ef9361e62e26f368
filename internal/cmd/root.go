package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/tujuhre12/vlist/internal/config"
	"github.com/tujuhre12/vlist/internal/log"
	"github.com/tujuhre12/vlist/internal/source"
	"github.com/tujuhre12/vlist/internal/tui/items"
	"github.com/tujuhre12/vlist/internal/tui/listview"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("config", "", "Read the configuration from this file only")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("follow", "f", false, "Keep reading lines appended to the file")
	rootCmd.Flags().BoolP("watch", "w", false, "Reload the file whenever it is rewritten")
	rootCmd.Flags().IntP("items", "n", 0, "Number of generated items when no file is given")
	rootCmd.Flags().Int("wrap", 80, "Wrap width for text and markdown items")
	rootCmd.MarkFlagsMutuallyExclusive("follow", "watch")
}

var rootCmd = &cobra.Command{
	Use:   "vlist [file]",
	Short: "Scroll through very long lists in the terminal",
	Long: heredoc.Doc(`
		vlist shows a list of any length in the terminal. Only the items in
		view are rendered, so lists of millions of lines scroll as fast as
		short ones. Without a file it shows generated items of mixed heights.
	`),
	Example: heredoc.Doc(`
		# Browse generated items
		vlist

		# Browse a file, one item per line or per markdown block
		vlist README.md

		# Follow a growing log
		vlist --follow /var/log/app.log

		# Reload a file whenever it changes
		vlist --watch notes.md
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}

		follow, _ := cmd.Flags().GetBool("follow")
		watch, _ := cmd.Flags().GetBool("watch")
		wrap, _ := cmd.Flags().GetInt("wrap")
		count, _ := cmd.Flags().GetInt("items")
		if count <= 0 {
			count = cfg.List.DemoItems
		}
		if (follow || watch) && len(args) == 0 {
			return errors.New("--follow and --watch need a file")
		}

		opts := listview.Options{
			FrameInterval: cfg.FrameInterval(),
			Grace:         cfg.Grace(),
			ScrollStep:    cfg.List.ScrollStep,
			FilterPrompt:  cfg.Options.TUI.FilterPrompt,
			Compact:       cfg.Options.TUI.CompactMode,
			OnCompact:     cfg.SetCompactMode,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var all []items.Item
		switch {
		case len(args) == 0:
			opts.Title = "vlist"
			all, err = items.Demo(count, wrap, 1)
		case follow:
			opts.Title = filepath.Base(args[0])
			opts.Follow = true
			// Follow delivers the whole file as its first event.
			opts.Events, err = source.Follow(ctx, args[0], source.FollowOptions{Poll: cfg.List.Poll})
		default:
			name := args[0]
			opts.Title = filepath.Base(name)
			all, err = loadFile(name, wrap)
			if err == nil && watch {
				opts.Events, err = source.Watch(ctx, name)
				opts.Convert = func(first int, lines []string) ([]items.Item, error) {
					if first == 1 {
						return items.FromFile(name, lines, wrap)
					}
					return items.Lines(first, lines), nil
				}
			}
		}
		if err != nil {
			return err
		}

		model := listview.New(all, opts)
		defer model.Close()

		program := tea.NewProgram(model, tea.WithContext(ctx))

		defer log.RecoverPanic("main", func() {
			slog.Error("Program crashed")
		})

		slog.Info("Starting list view", "items", len(all), "follow", follow, "watch", watch)
		if _, err := program.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
				return nil
			}
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("list view error: %w", err)
		}
		return nil
	},
}

func loadFile(name string, wrap int) ([]items.Item, error) {
	lines, err := source.Load(name)
	if err != nil {
		return nil, err
	}
	return items.FromFile(name, lines, wrap)
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setupConfig loads the configuration and starts logging.
func setupConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cfgFile, _ := cmd.Flags().GetString("config")
	cwd, err := resolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile, cwd, debug)
	} else {
		cfg, err = config.Load(cwd, debug)
	}
	if err != nil {
		return nil, err
	}

	log.Setup(cfg.LogFile(), cfg.Options.Debug)
	slog.Debug("Loaded configuration", "cwd", cwd, "data_directory", cfg.Options.DataDirectory)
	return cfg, nil
}

func resolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
