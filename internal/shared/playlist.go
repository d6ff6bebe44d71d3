package shared

import "strings"

const (
	playlistURLMarker = "open.spotify.com/playlist/"
	playlistURIPrefix = "spotify:playlist:"
)

// ExtractPlaylistID extracts a playlist ID from a share URL, a Spotify URI, or a bare ID.
//
// Handles forms like:
//
//	https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=...
//	spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
//	37i9dQZF1DXcBWIGoYBM5M
func ExtractPlaylistID(ref string) string {
	ref = strings.TrimSpace(ref)

	if idx := strings.Index(ref, playlistURLMarker); idx >= 0 {
		id := ref[idx+len(playlistURLMarker):]
		if q := strings.IndexAny(id, "?/"); q >= 0 {
			id = id[:q]
		}
		return id
	}

	if strings.HasPrefix(ref, playlistURIPrefix) {
		return strings.TrimPrefix(ref, playlistURIPrefix)
	}

	return ref
}

// TrackURI converts a bare track ID into a Spotify track URI.
// IDs that already look like URIs are returned unchanged.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}
