// Package playlist manages the background music queued for a session.
package playlist

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	embedBaseURL     = "https://www.youtube.com/embed/"
	thumbnailBaseURL = "https://img.youtube.com/vi/"
)

// Video is a queued YouTube video.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	YouTubeID string `json:"youtube_id"`
}

// EmbedURL returns the player URL for the video.
func (v Video) EmbedURL() string {
	return embedBaseURL + v.YouTubeID
}

// ThumbnailURL returns the medium-quality thumbnail.
func (v Video) ThumbnailURL() string {
	return thumbnailBaseURL + v.YouTubeID + "/mqdefault.jpg"
}

// ExtractYouTubeID pulls the video id out of a watch or short link.
func ExtractYouTubeID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch {
	case strings.Contains(host, "youtube.com"):
		id = u.Query().Get("v")
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return id, nil
}

// Playlist is an ordered list of videos with an optional current selection.
// It is safe for concurrent use.
type Playlist struct {
	mu      sync.RWMutex
	videos  []Video
	current string
}

// New returns an empty playlist.
func New() *Playlist {
	return &Playlist{}
}

// Add appends a video. Both title and url are required.
func (p *Playlist) Add(title, rawURL string) (Video, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(rawURL) == "" {
		return Video{}, fmt.Errorf("%w: title and url are required", ErrInvalidVideo)
	}
	ytID, err := ExtractYouTubeID(rawURL)
	if err != nil {
		return Video{}, err
	}
	v := Video{ID: uuid.NewString(), Title: title, YouTubeID: ytID}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.videos = append(p.videos, v)
	return v, nil
}

// Remove deletes a video, clearing the selection if it was current.
func (p *Playlist) Remove(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.videos = slices.Delete(p.videos, i, i+1)
	if p.current == id {
		p.current = ""
	}
	return nil
}

// SetCurrent selects a video. An empty id clears the selection.
func (p *Playlist) SetCurrent(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != "" && p.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.current = id
	return nil
}

// Current returns the selected video, if any.
func (p *Playlist) Current() (Video, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.indexLocked(p.current); i >= 0 {
		return p.videos[i], true
	}
	return Video{}, false
}

// List returns the videos in insertion order.
func (p *Playlist) List() []Video {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.videos)
}

// Len returns the number of queued videos.
func (p *Playlist) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.videos)
}

func (p *Playlist) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(p.videos, func(v Video) bool { return v.ID == id })
}
