package catalog

import (
	"context"
	"fmt"
	"net/url"

	"maestro/model"
)

// searchTypes are the catalog's supported search categories.
var searchTypes = map[string]bool{
	"track":  true,
	"artist": true,
	"album":  true,
}

// ValidSearchType reports whether t is a supported search category.
func ValidSearchType(t string) bool {
	return searchTypes[t]
}

// catalogItem is the wire shape shared by track, artist and album entries.
type catalogItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Album *struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

func (it *catalogItem) toResult(typeTag string) model.SearchResult {
	r := model.SearchResult{
		ID:   it.ID,
		Name: it.Name,
		Type: typeTag,
	}
	if len(it.Artists) > 0 {
		r.ArtistName = it.Artists[0].Name
		r.ArtistID = it.Artists[0].ID
	}
	if typeTag == "artist" {
		// An artist is its own artist for display purposes.
		r.ArtistName = it.Name
		r.ArtistID = it.ID
	}
	switch {
	case len(it.Images) > 0:
		r.ImageURL = it.Images[0].URL
	case it.Album != nil && len(it.Album.Images) > 0:
		r.ImageURL = it.Album.Images[0].URL
	}
	return r
}

// Search queries the catalog for tracks, artists or albums matching term
// and returns the results in catalog order.
func (c *Client) Search(ctx context.Context, searchType, term string) ([]model.SearchResult, error) {
	if !ValidSearchType(searchType) {
		return nil, fmt.Errorf("invalid search type %q", searchType)
	}

	query := url.Values{
		"q":     {term},
		"type":  {searchType},
		"limit": {"20"},
	}

	var payload struct {
		Tracks  struct{ Items []catalogItem } `json:"tracks"`
		Artists struct{ Items []catalogItem } `json:"artists"`
		Albums  struct{ Items []catalogItem } `json:"albums"`
	}
	if err := c.getJSON(ctx, "/search", query, &payload); err != nil {
		return nil, err
	}

	var items []catalogItem
	switch searchType {
	case "track":
		items = payload.Tracks.Items
	case "artist":
		items = payload.Artists.Items
	case "album":
		items = payload.Albums.Items
	}

	results := make([]model.SearchResult, 0, len(items))
	for i := range items {
		results = append(results, items[i].toResult(searchType))
	}
	return results, nil
}

// ArtistAlbums lists an artist's albums.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) ([]model.SearchResult, error) {
	var payload struct {
		Items []catalogItem `json:"items"`
	}
	path := "/artists/" + url.PathEscape(artistID) + "/albums"
	if err := c.getJSON(ctx, path, url.Values{"limit": {"20"}}, &payload); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(payload.Items))
	for i := range payload.Items {
		results = append(results, payload.Items[i].toResult("album"))
	}
	return results, nil
}

// AlbumTracks lists the tracks of an album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]model.SearchResult, error) {
	var payload struct {
		Items []catalogItem `json:"items"`
	}
	path := "/albums/" + url.PathEscape(albumID) + "/tracks"
	if err := c.getJSON(ctx, path, url.Values{"limit": {"50"}}, &payload); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(payload.Items))
	for i := range payload.Items {
		results = append(results, payload.Items[i].toResult("track"))
	}
	return results, nil
}
