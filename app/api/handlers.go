package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imartinez/kindlefeed/app/database"
	"github.com/imartinez/kindlefeed/app/pipeline"
	"github.com/imartinez/kindlefeed/app/recipients"
)

func NewHandler(sources database.SourceRepository, ledger database.LedgerRepository,
	banTerms database.BanTermRepository, recipientStore RecipientStoreInterface,
	runner RunnerInterface) *Handler {
	return &Handler{
		sources:    sources,
		ledger:     ledger,
		banTerms:   banTerms,
		recipients: recipientStore,
		runner:     runner,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.sources.Count(); err == nil {
		health["sources"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStatus(c *gin.Context) {
	status := map[string]interface{}{
		"running":    h.runner.Running(),
		"recipients": h.recipients.Count(),
	}

	if count, err := h.sources.Count(); err == nil {
		status["sources"] = count
	}
	if count, err := h.ledger.Count(); err == nil {
		status["delivered"] = count
	}
	if count, err := h.banTerms.Count(); err == nil {
		status["ban_terms"] = count
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sources.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(sources))
	for _, s := range sources {
		out = append(out, gin.H{"name": s.Name, "url": s.FeedURL})
	}

	c.JSON(http.StatusOK, gin.H{"sources": out, "total": len(out)})
}

func (h *Handler) AddSource(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and url are required"})
		return
	}

	if err := h.sources.Add(req.Name, req.URL); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Source already registered"})
			return
		}
		slog.Error("Database error", "operation", "add_source", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": req.Name, "url": req.URL})
}

func (h *Handler) RemoveSource(c *gin.Context) {
	name := c.Param("name")

	removed, err := h.sources.Remove(name)
	if err != nil {
		slog.Error("Database error", "operation", "remove_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": name})
}

func (h *Handler) ListRecipients(c *gin.Context) {
	emails := h.recipients.List()
	if emails == nil {
		emails = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"recipients": emails, "total": len(emails)})
}

func (h *Handler) AddRecipient(c *gin.Context) {
	var req addRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.recipients.Add(req.Email); err != nil {
		switch {
		case errors.Is(err, recipients.ErrInvalidEmail):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid email address"})
		case errors.Is(err, recipients.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		default:
			slog.Error("Recipient store error", "operation", "add_recipient", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"email": req.Email})
}

func (h *Handler) RemoveRecipient(c *gin.Context) {
	email := c.Param("email")

	if err := h.recipients.Remove(email); err != nil {
		if errors.Is(err, recipients.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not registered"})
			return
		}
		slog.Error("Recipient store error", "operation", "remove_recipient", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": email})
}

func (h *Handler) ListBanTerms(c *gin.Context) {
	terms, err := h.banTerms.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_ban_terms", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ban_terms": terms, "total": len(terms)})
}

func (h *Handler) AddBanTerm(c *gin.Context) {
	var req addBanTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term is required"})
		return
	}

	if err := h.banTerms.Add(req.Term); err != nil {
		slog.Error("Database error", "operation", "add_ban_term", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"term": req.Term})
}

func (h *Handler) RemoveBanTerm(c *gin.Context) {
	term := c.Param("term")

	removed, err := h.banTerms.Remove(term)
	if err != nil {
		slog.Error("Database error", "operation", "remove_ban_term", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ban term not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": term})
}

// TriggerRun starts a pipeline run and reports the per-recipient outcome,
// mirroring a manually triggered run in the original operator flow.
func (h *Handler) TriggerRun(c *gin.Context) {
	report, err := h.runner.Run(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		case errors.Is(err, pipeline.ErrNothingToSend):
			c.JSON(http.StatusOK, gin.H{"message": "Nothing to send"})
		case errors.Is(err, pipeline.ErrNoChapters):
			c.JSON(http.StatusOK, gin.H{"message": "No articles could be rendered; batch will be retried"})
		default:
			slog.Error("Run failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
