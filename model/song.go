package model

import (
	"math"
	"time"
)

// Song is one externally sourced track persisted locally. TrackID and
// TrackURI are unique; at most one row exists per external track. The
// analysis fields are stored already translated for display: Key and Mode
// as names, confidences as 0-100 percentages, Duration in minutes.
type Song struct {
	ID                      int64     `json:"id"`
	TrackID                 string    `json:"trackId"`
	TrackName               string    `json:"trackName"`
	TrackURI                string    `json:"trackUri"`
	ArtistName              string    `json:"artistName"`
	ArtistID                string    `json:"artistId"`
	Album                   string    `json:"album"`
	AlbumArt                string    `json:"albumArt"`
	Tempo                   float64   `json:"tempo"`
	TempoConfidence         int       `json:"tempoConfidence"`
	TimeSignature           int       `json:"timeSignature"`
	TimeSignatureConfidence int       `json:"timeSignatureConfidence"`
	Key                     string    `json:"key"`
	KeyConfidence           int       `json:"keyConfidence"`
	Mode                    string    `json:"mode"`
	ModeConfidence          int       `json:"modeConfidence"`
	Duration                float64   `json:"duration"` // minutes, two decimals
	Loudness                float64   `json:"loudness"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// keyNames maps the catalog's pitch-class index to a display name with
// enharmonic spelling.
var keyNames = [12]string{
	"C", "C♯/D♭", "D", "D♯/E♭", "E", "F",
	"F♯/G♭", "G", "G♯/A♭", "A", "A♯/B♭", "B",
}

// KeyName translates a 0-11 pitch-class index. Out-of-range values (the
// catalog uses -1 for "no key detected") come back as "Unknown".
func KeyName(key int) string {
	if key < 0 || key >= len(keyNames) {
		return "Unknown"
	}
	return keyNames[key]
}

// ModeName translates the catalog's 0/1 modality flag.
func ModeName(mode int) string {
	if mode == 1 {
		return "Major"
	}
	return "Minor"
}

// ConfidencePercent scales a [0,1] confidence to a 0-100 integer.
func ConfidencePercent(c float64) int {
	return int(math.Round(c * 100))
}

// DurationMinutes converts milliseconds to minutes rounded to two decimals.
func DurationMinutes(ms int) float64 {
	return math.Round(float64(ms)/60000*100) / 100
}

// SongFromAnalysis builds a Song from a raw catalog analysis record. It is
// pure construction: nothing is persisted and no IDs are assigned here.
func SongFromAnalysis(a *TrackAnalysis) *Song {
	return &Song{
		TrackID:                 a.TrackID,
		TrackName:               a.TrackName,
		TrackURI:                a.TrackURI,
		ArtistName:              a.ArtistName,
		ArtistID:                a.ArtistID,
		Album:                   a.Album,
		AlbumArt:                a.AlbumArt,
		Tempo:                   a.Tempo,
		TempoConfidence:         ConfidencePercent(a.TempoConfidence),
		TimeSignature:           a.TimeSignature,
		TimeSignatureConfidence: ConfidencePercent(a.TimeSignatureConfidence),
		Key:                     KeyName(a.Key),
		KeyConfidence:           ConfidencePercent(a.KeyConfidence),
		Mode:                    ModeName(a.Mode),
		ModeConfidence:          ConfidencePercent(a.ModeConfidence),
		Duration:                DurationMinutes(a.DurationMs),
		Loudness:                a.Loudness,
	}
}
