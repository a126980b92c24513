// Spotify Web API response types, per endpoint actually consumed.
// https://developer.spotify.com/documentation/web-api/reference/
package spotify

type followers struct {
	Total int `json:"total"`
}

// UserProfile is the /v1/me response.
type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
}

type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist is the playlist object returned by create and get. Collaborative
// and Public are read live from here, never cached locally.
type Playlist struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Owner         Owner        `json:"owner"`
	Public        bool         `json:"public"`
	Collaborative bool         `json:"collaborative"`
	ExternalURLs  ExternalURLs `json:"external_urls"`
	URI           string       `json:"uri"`
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	URI          string       `json:"uri"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// PlaylistTrackItem is one entry of a paginated /playlists/{id}/tracks page.
type PlaylistTrackItem struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

type playlistTracksPage struct {
	Items []PlaylistTrackItem `json:"items"`
	Next  *string             `json:"next"`
	Total int                 `json:"total"`
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}
