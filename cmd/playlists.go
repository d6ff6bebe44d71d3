package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nbailey/spotify-recommender/internal/formatter"
	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsSearch searches public playlists by text, the same lookup the
// discovery phase performs per seed track.
func (r *Runner) PlaylistsSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if err := r.requireSpotify(); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	r.logger.Infof("searching playlists for %q with limit %v", query, limit)

	playlists, err := r.spotify.SearchPlaylists(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Owner != "" {
			r.writePlain("   Owner: %s\n", p.Owner)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n\n", p.TrackCount)
	}

	return nil
}

// PlaylistsShow displays metadata for a single playlist.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist URL, URI, or ID", shared.ErrMissingArgument)
	}

	playlistID := shared.ExtractPlaylistID(ref)
	if playlistID == "" {
		return fmt.Errorf("%w: could not parse playlist reference %q", shared.ErrInvalidArgument, ref)
	}

	if err := r.requireSpotify(); err != nil {
		return err
	}

	playlist, err := r.spotify.GetPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	if playlist.Owner != "" {
		r.writePlain("Owner: %s\n", playlist.Owner)
	}
	r.writePlain("ID: %s\n", playlist.ID)
	r.writePlain("Tracks: %d\n", playlist.TrackCount)
	if playlist.URL != "" {
		r.writePlain("URL: %s\n", playlist.URL)
	}

	return nil
}

// Export dumps a playlist's full track listing in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist URL, URI, or ID", shared.ErrMissingArgument)
	}

	playlistID := shared.ExtractPlaylistID(ref)
	if playlistID == "" {
		return fmt.Errorf("%w: could not parse playlist reference %q", shared.ErrInvalidArgument, ref)
	}

	if err := r.requireSpotify(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Infof("exporting playlist %v", playlistID)

	export, err := r.spotify.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	data, err := formatter.RenderExport(export, format)
	if err != nil {
		return err
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		if filepath.Ext(outputFile) == "" {
			outputFile += formatter.DefaultExtension(format)
		}
		if err := formatter.WriteFile(outputFile, data); err != nil {
			return err
		}
		r.logger.Infof("playlist exported to %v with %v tracks", outputFile, len(export.Tracks))
		r.writePlain("✓ Playlist exported to %s\n", outputFile)
		r.writePlain("  Playlist: %s\n", export.Playlist.Name)
		r.writePlain("  Tracks: %d\n", len(export.Tracks))
		return nil
	}

	return r.writePlain("%s", data)
}
