package spotify

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/imisi99/Spotify-api/internal/config"
	apperr "github.com/imisi99/Spotify-api/pkg/errors"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
	baseURL  = "https://api.spotify.com/v1"

	// Spotify track ids are base62 and exactly this long. Anything else is
	// dropped before building track URIs.
	TrackIDLength = 22

	stateLength   = 16
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-library-read",
	"user-library-modify",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-private",
	"playlist-modify-public",
}

// Client talks to the Spotify Web API. Exchange and refresh go through
// oauth2; everything else is bearer-authenticated REST with a bounded
// timeout, and non-2xx responses surface as *errors.RemoteError.
type Client struct {
	conf *oauth2.Config
	http *http.Client
	base string
}

func NewClient(cfg *config.Config) *Client {
	return NewClientWith(cfg, authURL, tokenURL, baseURL)
}

// NewClientWith points the client at alternate provider endpoints, e.g. a
// local fake of the Web API.
func NewClientWith(cfg *config.Config, authorize, token, api string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURL:  cfg.SpotifyRedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authorize,
				TokenURL: token,
			},
		},
		http: &http.Client{Timeout: 10 * time.Second},
		base: api,
	}
}

// NewState returns a fresh CSRF nonce for the authorization redirect.
func NewState() string {
	buf := make([]byte, stateLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = stateAlphabet[int(b)%len(stateAlphabet)]
	}
	return string(buf)
}

// AuthCodeURL builds the accounts.spotify.com authorization URL.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for an access + refresh token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			return nil, &apperr.RemoteError{Status: re.Response.StatusCode, Body: string(re.Body)}
		}
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// Refresh runs the refresh-token grant. Called lazily, only once the tracked
// access-token expiry has passed.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrRefreshFailed, err)
	}
	return tok, nil
}

// Expired reports whether the tracked expiry has passed. The provider is the
// true authority, but checking locally saves a round trip per request.
func Expired(expiry time.Time) bool {
	if expiry.IsZero() {
		return true
	}
	return time.Now().After(expiry)
}

// FilterTrackIDs keeps only well-formed Spotify track ids. Malformed ids are
// dropped silently, not errored.
func FilterTrackIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(id) == TrackIDLength {
			valid = append(valid, id)
		}
	}
	return valid
}

// TrackURI converts a track id to the URI form the playlist endpoints expect.
func TrackURI(id string) string {
	return "spotify:track:" + id
}

func (c *Client) doRequest(ctx context.Context, token, method, endpoint string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apperr.RemoteError{Status: resp.StatusCode, Body: string(data)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &apperr.RemoteError{Status: resp.StatusCode, Body: "unexpected response shape: " + err.Error()}
		}
	}
	return nil
}

// Me retrieves the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.doRequest(ctx, token, http.MethodGet, "/me", nil, &profile); err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, &apperr.RemoteError{Status: http.StatusOK, Body: "profile response missing email"}
	}
	return &profile, nil
}

// CreatePlaylist creates a playlist owned by the given Spotify user.
func (c *Client) CreatePlaylist(ctx context.Context, token, spotifyUserID, name, description string, public, collaborative bool) (*Playlist, error) {
	body := map[string]interface{}{
		"name":          name,
		"description":   description,
		"public":        public,
		"collaborative": collaborative,
	}

	var playlist Playlist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(spotifyUserID))
	if err := c.doRequest(ctx, token, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	if playlist.ID == "" {
		return nil, &apperr.RemoteError{Status: http.StatusCreated, Body: "create response missing playlist id"}
	}
	return &playlist, nil
}

// GetPlaylist fetches the live playlist object, including the collaborative
// flag the permission checks depend on.
func (c *Client) GetPlaylist(ctx context.Context, token, playlistID string) (*Playlist, error) {
	var playlist Playlist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := c.doRequest(ctx, token, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks walks all pages of a playlist's track list.
func (c *Client) PlaylistTracks(ctx context.Context, token, playlistID string) ([]PlaylistTrackItem, error) {
	var items []PlaylistTrackItem
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", url.PathEscape(playlistID))

	for {
		var page playlistTracksPage
		if err := c.doRequest(ctx, token, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.Next == nil {
			return items, nil
		}
		next := *page.Next
		if len(next) <= len(c.base) {
			return items, nil
		}
		endpoint = next[len(c.base):]
	}
}

// ChangeDetails pushes a visibility change. The local row never caches these
// attributes, Spotify stays the authority.
func (c *Client) ChangeDetails(ctx context.Context, token, playlistID string, public, collaborative bool) error {
	body := map[string]interface{}{
		"public":        public,
		"collaborative": collaborative,
	}
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	return c.doRequest(ctx, token, http.MethodPut, endpoint, body, nil)
}

// AddTracks appends track URIs to a playlist.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	body := map[string]interface{}{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, token, http.MethodPost, endpoint, body, &snapshotResponse{})
}

// RemoveTracks removes track URIs from a playlist.
func (c *Client) RemoveTracks(ctx context.Context, token, playlistID string, uris []string) error {
	tracks := make([]map[string]string, len(uris))
	for i, uri := range uris {
		tracks[i] = map[string]string{"uri": uri}
	}
	body := map[string]interface{}{"tracks": tracks}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, token, http.MethodDelete, endpoint, body, &snapshotResponse{})
}

// Unfollow removes the playlist from the user's library, which is how the Web
// API deletes playlists. Already-removed (404) counts as success.
func (c *Client) Unfollow(ctx context.Context, token, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	err := c.doRequest(ctx, token, http.MethodDelete, endpoint, nil, nil)
	if re, ok := apperr.Remote(err); ok && re.Status == http.StatusNotFound {
		return nil
	}
	return err
}

// SearchTracks proxies the track search endpoint.
func (c *Client) SearchTracks(ctx context.Context, token, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var result searchResponse
	endpoint := fmt.Sprintf("/search?type=track&limit=%d&q=%s", limit, url.QueryEscape(query))
	if err := c.doRequest(ctx, token, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}
