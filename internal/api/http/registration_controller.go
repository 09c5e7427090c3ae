package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/lib/logger/sl"
	"landcharges/assist/internal/registry"
)

// Register is what the controller needs from the backing store.
type Register interface {
	Register(reg domain.Registration) (domain.RegistrationResponse, error)
	Rectify(date, number string, reg domain.Registration) (domain.RegistrationResponse, error)
	Get(date, number string) (registry.Entry, error)
	Search(req domain.SearchRequest) ([]domain.SearchResult, error)
	Reset()
}

// RegistrationPublisher announces registrations once they are stored.
type RegistrationPublisher interface {
	PublishNewRegistration(ctx context.Context, event domain.RegistrationEvent) error
}

const publishTimeout = 5 * time.Second

type RegistrationController struct {
	register  Register
	publisher RegistrationPublisher
	log       *slog.Logger
}

// NewRegistrationController builds the controller. publisher may be nil.
func NewRegistrationController(register Register, publisher RegistrationPublisher, log *slog.Logger) *RegistrationController {
	return &RegistrationController{
		register:  register,
		publisher: publisher,
		log:       log,
	}
}

func (h *RegistrationController) Create(c *gin.Context) {
	var reg domain.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed registration: " + err.Error()})
		return
	}

	resp, err := h.register.Register(reg)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Debug("registration created", "count", len(resp.NewRegistrations))
	h.publish(c.Request.Context(), resp.NewRegistrations)
	c.JSON(http.StatusOK, resp)
}

func (h *RegistrationController) Update(c *gin.Context) {
	date, number := c.Param("date"), c.Param("number")

	var reg domain.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed registration: " + err.Error()})
		return
	}

	resp, err := h.register.Rectify(date, number, reg)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Debug("registration rectified", "date", date, "number", number)
	h.publish(c.Request.Context(), resp.NewRegistrations)
	c.JSON(http.StatusOK, resp)
}

func (h *RegistrationController) Show(c *gin.Context) {
	entry, err := h.register.Get(c.Param("date"), c.Param("number"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *RegistrationController) Search(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed search: " + err.Error()})
		return
	}

	results, err := h.register.Search(req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.SearchResponse{Results: results})
}

func (h *RegistrationController) Clear(c *gin.Context) {
	h.register.Reset()
	h.log.Info("register cleared")
	c.Status(http.StatusNoContent)
}

// publish failures are logged; the registration is already stored.
func (h *RegistrationController) publish(ctx context.Context, refs []domain.RegistrationRef) {
	if h.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	now := time.Now()
	for _, ref := range refs {
		entry, err := h.register.Get(ref.Date, ref.Number.String())
		if err != nil {
			h.log.Warn("registration vanished before publishing", "date", ref.Date, "number", ref.Number.String(), sl.Err(err))
			continue
		}
		if err := h.publisher.PublishNewRegistration(ctx, entry.Event(now)); err != nil {
			h.log.Warn("failed to publish registration", sl.Err(err))
		}
	}
}

func (h *RegistrationController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrSuperseded):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("register failure", sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
