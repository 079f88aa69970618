package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/services"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

type EntryHandler struct {
	svc services.EntryService
}

func NewEntryHandler(svc services.EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

type CreateEntryRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content" binding:"required"`
	Mood           string   `json:"mood"`
	EntryType      string   `json:"entry_type"`
	Tags           []string `json:"tags"`
	IsPrivate      *bool    `json:"is_private"`
	SentimentScore *float64 `json:"sentiment_score"`
}

func (h *EntryHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EntryHandler.Create", "invalid request body", err))
		return
	}

	entry, err := h.svc.Create(c.Request.Context(), userID, services.EntryInput{
		Title:          req.Title,
		Content:        req.Content,
		Mood:           req.Mood,
		EntryType:      req.EntryType,
		Tags:           req.Tags,
		IsPrivate:      req.IsPrivate,
		SentimentScore: req.SentimentScore,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *EntryHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entry, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

type UpdateEntryRequest struct {
	Title          *string   `json:"title"`
	Content        *string   `json:"content"`
	Mood           *string   `json:"mood"`
	EntryType      *string   `json:"entry_type"`
	Tags           *[]string `json:"tags"`
	IsPrivate      *bool     `json:"is_private"`
	SentimentScore *float64  `json:"sentiment_score"`
}

func (h *EntryHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EntryHandler.Update", "invalid request body", err))
		return
	}

	entry, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), services.EntryUpdate{
		Title:          req.Title,
		Content:        req.Content,
		Mood:           req.Mood,
		EntryType:      req.EntryType,
		Tags:           req.Tags,
		IsPrivate:      req.IsPrivate,
		SentimentScore: req.SentimentScore,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type EntryListResponse struct {
	Count    int64                 `json:"count"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Results  []models.JournalEntry `json:"results"`
}

func (h *EntryHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	f := pgrepo.EntryFilter{
		Mood:      c.Query("mood"),
		EntryType: c.Query("entry_type"),
		Search:    c.Query("search"),
	}
	f.Page, f.PageSize = pagination(c)

	if v := c.Query("start_date"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "EntryHandler.List", "invalid start_date", err))
			return
		}
		f.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "EntryHandler.List", "invalid end_date", err))
			return
		}
		f.EndDate = &t
	}

	rows, total, err := h.svc.List(c.Request.Context(), userID, f)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, EntryListResponse{
		Count:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
		Results:  rows,
	})
}

func (h *EntryHandler) Recent(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	rows, total, err := h.svc.Recent(c.Request.Context(), userID, page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, EntryListResponse{
		Count:    total,
		Page:     page,
		PageSize: size,
		Results:  rows,
	})
}

func (h *EntryHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func pagination(c *gin.Context) (page, size int) {
	page, size = 1, 10
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}
	return page, size
}

// parseDate accepts a date or a full timestamp. A bare end date is widened
// to the end of that day so ranges are inclusive.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}
