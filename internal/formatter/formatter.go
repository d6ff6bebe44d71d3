// package formatter renders recommendation results and playlist exports to
// CSV, Markdown, plain text, and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/nbailey/spotify-recommender/internal/tasks"
)

// Format identifies an output format for the --format flag.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name from the CLI.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, Format("md"):
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown, or json)", shared.ErrInvalidFlag, name)
	}
}

// popularityCell renders a popularity value, leaving unknown values blank.
func popularityCell(popularity int) string {
	if popularity == services.PopularityUnknown {
		return ""
	}
	return strconv.Itoa(popularity)
}

// RecommendationsToCSV renders the ranked recommendations with columns:
// Rank, ID, Title, Artist, Album, Popularity, Score, Sources
func RecommendationsToCSV(result *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Title", "Artist", "Album", "Popularity", "Score", "Sources"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, rec := range result.Recommendations {
		record := []string{
			strconv.Itoa(i + 1),
			rec.Track.ID,
			rec.Track.Title,
			rec.Track.PrimaryArtist(),
			rec.Track.Album,
			popularityCell(rec.Track.Popularity),
			strconv.FormatFloat(rec.Score, 'f', -1, 64),
			strconv.Itoa(rec.Sources),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RecommendationsToMarkdown renders the result as a Markdown document with a
// run summary followed by the ranked list.
func RecommendationsToMarkdown(result *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Recommendations from %s\n\n", result.Seed.Playlist.Name))
	buf.WriteString(fmt.Sprintf("**Seed tracks**: %d\n", len(result.Seed.Tracks)))
	buf.WriteString(fmt.Sprintf("**Playlists discovered**: %d\n", result.Discovered))
	buf.WriteString(fmt.Sprintf("**Playlists evaluated**: %d\n", len(result.Evaluated)))
	buf.WriteString(fmt.Sprintf("**Candidate songs**: %d\n\n", result.CandidateCount))

	buf.WriteString("## Songs\n\n")
	for i, rec := range result.Recommendations {
		albumPart := ""
		if rec.Track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", rec.Track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [score %.0f from %d playlists]\n",
			i+1, rec.Track.PrimaryArtist(), rec.Track.Title, albumPart, rec.Score, rec.Sources))
	}

	return buf.Bytes(), nil
}

// RecommendationsToText renders the result as plain text, one song per line.
func RecommendationsToText(result *tasks.RecommendResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Recommendations from %s (%d songs)\n\n", result.Seed.Playlist.Name, len(result.Recommendations)))
	for i, rec := range result.Recommendations {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [score %.0f, %d playlists]\n",
			i+1, rec.Track.PrimaryArtist(), rec.Track.Title, rec.Score, rec.Sources))
	}

	return buf.Bytes(), nil
}

// RecommendationsToJSON renders the full result, including per-phase counts.
func RecommendationsToJSON(result *tasks.RecommendResult, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(result, pretty)
}

// RenderRecommendations dispatches on the parsed format.
func RenderRecommendations(result *tasks.RecommendResult, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RecommendationsToCSV(result)
	case FormatMarkdown:
		return RecommendationsToMarkdown(result)
	case FormatJSON:
		return RecommendationsToJSON(result, true)
	default:
		return RecommendationsToText(result)
	}
}

// ExportToCSV renders a playlist's track list with columns:
// ID, Title, Artist, Album, Popularity
func ExportToCSV(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.PrimaryArtist(),
			track.Album,
			popularityCell(track.Popularity),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToText renders a playlist's track list as plain text.
func ExportToText(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.PrimaryArtist(), track.Title))
	}

	return buf.Bytes(), nil
}

// RenderExport dispatches on the parsed format for the export command.
func RenderExport(export *services.PlaylistExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatJSON:
		return shared.MarshalJSON(export, true)
	default:
		return ExportToText(export)
	}
}

// WriteFile writes rendered output, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// DefaultExtension returns the conventional file extension for a format.
func DefaultExtension(format Format) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}
