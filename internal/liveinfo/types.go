package liveinfo

import (
	"html"
	"strings"
)

// TrackMetadata is the now-playing information shown in the status surface.
// Empty strings mean the field is absent.
type TrackMetadata struct {
	ShowName   string
	ArtistName string
	TrackTitle string
}

// HasTrack reports whether both artist and title are known.
func (m TrackMetadata) HasTrack() bool {
	return m.ArtistName != "" && m.TrackTitle != ""
}

// Line returns "artist — track", or "" when either part is missing.
func (m TrackMetadata) Line() string {
	if !m.HasTrack() {
		return ""
	}
	return m.ArtistName + " — " + m.TrackTitle
}

// Response mirrors the live-info-v2 document. Every level is nullable.
type Response struct {
	Tracks *TracksBlock `json:"tracks"`
	Shows  *ShowsBlock  `json:"shows"`
}

// TracksBlock holds the current track.
type TracksBlock struct {
	Current *Track `json:"current"`
}

// Track is one scheduled item in the playout.
type Track struct {
	Name     string         `json:"name"`
	Starts   string         `json:"starts"`
	Ends     string         `json:"ends"`
	Metadata *TrackFileInfo `json:"metadata"`
}

// TrackFileInfo carries the tag data of the file being played out.
type TrackFileInfo struct {
	ArtistName string `json:"artist_name"`
	TrackTitle string `json:"track_title"`
	AlbumTitle string `json:"album_title"`
}

// ShowsBlock holds the current show.
type ShowsBlock struct {
	Current *Show `json:"current"`
}

// Show is a scheduled programme.
type Show struct {
	Name   string `json:"name"`
	Starts string `json:"starts"`
	Ends   string `json:"ends"`
}

// Metadata flattens the response. The feed HTML-escapes artist and title.
func (r Response) Metadata() TrackMetadata {
	var meta TrackMetadata
	if r.Shows != nil && r.Shows.Current != nil {
		meta.ShowName = strings.TrimSpace(r.Shows.Current.Name)
	}
	if r.Tracks != nil && r.Tracks.Current != nil && r.Tracks.Current.Metadata != nil {
		info := r.Tracks.Current.Metadata
		meta.ArtistName = strings.TrimSpace(html.UnescapeString(info.ArtistName))
		meta.TrackTitle = strings.TrimSpace(html.UnescapeString(info.TrackTitle))
	}
	return meta
}
