package api

import (
	"net/http"

	"github.com/okian/tavern/internal/domain/playlist"
	"github.com/okian/tavern/pkg/metrics"
)

// PlaylistDependencies exposes the shared session playlist.
type PlaylistDependencies interface {
	Playlist() *playlist.Playlist
}

// PlaylistHandler serves the session playlist.
type PlaylistHandler struct {
	deps PlaylistDependencies
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(deps PlaylistDependencies) *PlaylistHandler {
	return &PlaylistHandler{deps: deps}
}

type videoView struct {
	playlist.Video
	EmbedURL     string `json:"embed_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type playlistResponse struct {
	Videos  []videoView `json:"videos"`
	Current *videoView  `json:"current,omitempty"`
}

type addVideoRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type setCurrentRequest struct {
	ID string `json:"id"`
}

func viewOf(v playlist.Video) videoView {
	return videoView{Video: v, EmbedURL: v.EmbedURL(), ThumbnailURL: v.ThumbnailURL()}
}

func (h *PlaylistHandler) snapshot() playlistResponse {
	p := h.deps.Playlist()
	list := p.List()
	resp := playlistResponse{Videos: make([]videoView, len(list))}
	for i, v := range list {
		resp.Videos[i] = viewOf(v)
	}
	if cur, ok := p.Current(); ok {
		view := viewOf(cur)
		resp.Current = &view
	}
	return resp
}

// HandleList handles GET /playlist requests.
func (h *PlaylistHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// HandleAdd handles POST /playlist requests.
func (h *PlaylistHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "add video"
	var req addVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	v, err := h.deps.Playlist().Add(req.Title, req.URL)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	metrics.UpdatePlaylistVideos(h.deps.Playlist().Len())
	writeJSON(w, http.StatusCreated, viewOf(v))
}

// HandleRemove handles DELETE /playlist/{id} requests.
func (h *PlaylistHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Playlist().Remove(r.PathValue("id")); err != nil {
		writeFailure(w, "remove video", err)
		return
	}
	metrics.UpdatePlaylistVideos(h.deps.Playlist().Len())
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetCurrent handles PUT /playlist/current requests. An empty id stops
// playback.
func (h *PlaylistHandler) HandleSetCurrent(w http.ResponseWriter, r *http.Request) {
	const op = "set current video"
	var req setCurrentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := h.deps.Playlist().SetCurrent(req.ID); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}
