// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// recommendCommand runs the recommendation pipeline against a seed playlist
func recommendCommand(r *Runner) *cli.Command {
	defaults := r.config.Recommender

	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Generate song recommendations from a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "playlist",
				UsageText: "Playlist URL, URI, or ID to seed recommendations from",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name for the created playlist (default: \"Recommendations from <input playlist>\")",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of songs to recommend",
				Value: defaults.Count,
			},
			&cli.IntFlag{
				Name:  "fetch-limit",
				Usage: "Top candidate playlists to fully evaluate",
				Value: defaults.FetchLimit,
			},
			&cli.IntFlag{
				Name:  "search-results-per-track",
				Usage: "Playlist search results requested per seed track",
				Value: defaults.SearchResultsPerTrack,
			},
			&cli.IntFlag{
				Name:  "max-popularity",
				Usage: "Exclude songs above this popularity (100 disables the filter)",
				Value: defaults.MaxPopularity,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent API calls per phase",
				Value: defaults.Workers,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print recommendations without creating a playlist",
			},
			&cli.BoolFlag{
				Name:  "review",
				Usage: "Interactively review songs before creating the playlist",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the recommendation report to a file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: text, csv, markdown, or json",
				Value:   "text",
			},
		},
		Action: r.Recommend,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show cached token state",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand searches and inspects public playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Search and inspect Spotify playlists",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search public playlists by text",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "query",
						UsageText: "Search text, usually \"title artist\"",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsSearch,
			},
			{
				Name:  "show",
				Usage: "Show playlist metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "playlist",
						UsageText: "Playlist URL, URI, or ID",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsShow,
			},
		},
	}
}

// exportCommand dumps a playlist's full track listing
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist's tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "playlist",
				UsageText: "Playlist URL, URI, or ID",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: text, csv, or json",
				Value:   "json",
			},
		},
		Action: r.Export,
	}
}

// cacheCommand manages the local token cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local token cache",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show cached tokens",
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Remove the cached Spotify token",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand initializes configuration and the token cache database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the token cache",
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
