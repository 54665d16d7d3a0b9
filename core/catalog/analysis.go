package catalog

import (
	"context"
	"fmt"
	"net/url"

	"maestro/model"
)

// TrackAnalysis fetches a track's identity fields and raw audio analysis.
// Two catalog endpoints are involved; if either fails nothing is returned,
// so callers never see a partially filled record.
func (c *Client) TrackAnalysis(ctx context.Context, trackID string) (*model.TrackAnalysis, error) {
	var track struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		URI     string `json:"uri"`
		Artists []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			Name   string `json:"name"`
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"album"`
		DurationMs int `json:"duration_ms"`
	}
	if err := c.getJSON(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	if track.ID == "" || track.Name == "" || track.URI == "" {
		return nil, fmt.Errorf("%w: incomplete track record for %s", ErrUpstream, trackID)
	}

	var analysis struct {
		Track struct {
			Tempo                   float64 `json:"tempo"`
			TempoConfidence         float64 `json:"tempo_confidence"`
			TimeSignature           int     `json:"time_signature"`
			TimeSignatureConfidence float64 `json:"time_signature_confidence"`
			Key                     int     `json:"key"`
			KeyConfidence           float64 `json:"key_confidence"`
			Mode                    int     `json:"mode"`
			ModeConfidence          float64 `json:"mode_confidence"`
			Loudness                float64 `json:"loudness"`
		} `json:"track"`
	}
	if err := c.getJSON(ctx, "/audio-analysis/"+url.PathEscape(trackID), nil, &analysis); err != nil {
		return nil, err
	}

	result := &model.TrackAnalysis{
		TrackID:                 track.ID,
		TrackName:               track.Name,
		TrackURI:                track.URI,
		Album:                   track.Album.Name,
		DurationMs:              track.DurationMs,
		Tempo:                   analysis.Track.Tempo,
		TempoConfidence:         analysis.Track.TempoConfidence,
		TimeSignature:           analysis.Track.TimeSignature,
		TimeSignatureConfidence: analysis.Track.TimeSignatureConfidence,
		Key:                     analysis.Track.Key,
		KeyConfidence:           analysis.Track.KeyConfidence,
		Mode:                    analysis.Track.Mode,
		ModeConfidence:          analysis.Track.ModeConfidence,
		Loudness:                analysis.Track.Loudness,
	}
	if len(track.Artists) > 0 {
		result.ArtistName = track.Artists[0].Name
		result.ArtistID = track.Artists[0].ID
	}
	if len(track.Album.Images) > 0 {
		result.AlbumArt = track.Album.Images[0].URL
	}
	return result, nil
}
