package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lrcview/internal/lyrics"
	"lrcview/pkg/lrclib"
)

// Handler serves the /api/v1 routes.
type Handler struct {
	catalog Catalog
}

func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type searchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type atQuery struct {
	T string `form:"t" binding:"required"`
}

// lineView is a line with its range; an absent bound is null.
type lineView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Timed bool   `json:"timed"`
	Start *int64 `json:"start_ms"`
	End   *int64 `json:"end_ms"`
}

type trackView struct {
	lrclib.Track
	Tags  map[string]string `json:"tags"`
	Lines []lineView        `json:"lines"`
}

// Search returns catalog matches for ?q=.
func (h *Handler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tracks, err := h.catalog.Search(c.Request.Context(), q.Q)
	if err != nil {
		catalogError(c, err)
		return
	}
	if q.Limit > 0 && len(tracks) > q.Limit {
		tracks = tracks[:q.Limit]
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// GetTrack returns a track with its parsed lines and their ranges.
func (h *Handler) GetTrack(c *gin.Context) {
	track, tl, ok := h.loadTimeline(c)
	if !ok {
		return
	}

	view := trackView{Track: track, Tags: tl.Tags(), Lines: make([]lineView, 0, tl.Len())}
	for _, line := range tl.Lines() {
		r, _ := tl.RangeOf(line.Index)
		view.Lines = append(view.Lines, lineView{
			Index: line.Index,
			Text:  line.Text,
			Timed: line.Timed,
			Start: r.Start,
			End:   r.End,
		})
	}
	c.JSON(http.StatusOK, view)
}

// GetLineRange returns the range of one line, raw and formatted.
func (h *Handler) GetLineRange(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line index"})
		return
	}

	_, tl, ok := h.loadTimeline(c)
	if !ok {
		return
	}

	r, err := tl.RangeOf(index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, _ := tl.Describe(index)
	c.JSON(http.StatusOK, gin.H{
		"index":    index,
		"text":     sel.Text,
		"start_ms": r.Start,
		"end_ms":   r.End,
		"start":    sel.Start,
		"end":      sel.End,
	})
}

// GetLineAt returns the line active at ?t=, given as MM:SS.CS or milliseconds.
func (h *Handler) GetLineAt(c *gin.Context) {
	var q atQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ms, err := lyrics.ParseTimestamp(q.T)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, tl, ok := h.loadTimeline(c)
	if !ok {
		return
	}

	index, found := tl.LineAt(ms)
	if !found {
		c.JSON(http.StatusOK, gin.H{"t_ms": ms, "index": nil, "line": nil})
		return
	}
	sel, _ := tl.Describe(index)
	c.JSON(http.StatusOK, gin.H{"t_ms": ms, "index": index, "line": sel})
}

func (h *Handler) loadTimeline(c *gin.Context) (lrclib.Track, *lyrics.Timeline, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return lrclib.Track{}, nil, false
	}

	track, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		catalogError(c, err)
		return lrclib.Track{}, nil, false
	}
	return track, lyrics.Parse(track.SyncedLyrics), true
}

func catalogError(c *gin.Context, err error) {
	if errors.Is(err, lrclib.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
