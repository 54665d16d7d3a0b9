package model

// SearchResult is one entry returned by a catalog search. The same shape is
// used for track, artist and album results; Type carries which one it is.
type SearchResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artistName"`
	ArtistID   string `json:"artistId"`
	ImageURL   string `json:"imageUrl"`
	Type       string `json:"type"` // track, artist or album
}

// TrackAnalysis is the raw per-track record from the catalog: identity fields
// plus the untranslated numeric analysis. Key is 0-11, Mode is 0 (minor) or
// 1 (major), confidences are in [0,1] and DurationMs is milliseconds.
type TrackAnalysis struct {
	TrackID                 string  `json:"trackId"`
	TrackName               string  `json:"trackName"`
	TrackURI                string  `json:"trackUri"`
	ArtistName              string  `json:"artistName"`
	ArtistID                string  `json:"artistId"`
	Album                   string  `json:"album"`
	AlbumArt                string  `json:"albumArt"`
	DurationMs              int     `json:"durationMs"`
	Tempo                   float64 `json:"tempo"`
	TempoConfidence         float64 `json:"tempoConfidence"`
	TimeSignature           int     `json:"timeSignature"`
	TimeSignatureConfidence float64 `json:"timeSignatureConfidence"`
	Key                     int     `json:"key"`
	KeyConfidence           float64 `json:"keyConfidence"`
	Mode                    int     `json:"mode"`
	ModeConfidence          float64 `json:"modeConfidence"`
	Loudness                float64 `json:"loudness"`
}
