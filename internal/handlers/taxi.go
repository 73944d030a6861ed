package handlers

import (
	"net/http"
	"time"

	"campuslink/internal/middleware"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaxiHandler struct {
	taxi   *services.TaxiService
	logger *zap.Logger
}

func NewTaxiHandler(taxi *services.TaxiService, logger *zap.Logger) *TaxiHandler {
	return &TaxiHandler{taxi: taxi, logger: logger.Named("taxi_handler")}
}

func (h *TaxiHandler) List(c *gin.Context) {
	parties, err := h.taxi.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parties": parties})
}

type createPartyRequest struct {
	DepartureTime   time.Time `json:"departure_time" binding:"required"`
	PickupLocation  string    `json:"pickup_location" binding:"required,max=100"`
	DropoffLocation string    `json:"dropoff_location" binding:"required,max=100"`
	MemberLimit     int       `json:"member_limit" binding:"required,min=1,max=10"`
}

// Create - 택시 파티 생성
func (h *TaxiHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	party, err := h.taxi.Create(c.Request.Context(), user.ID, services.CreatePartyInput{
		DepartureTime:   req.DepartureTime,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		MemberLimit:     req.MemberLimit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, party)
}

func (h *TaxiHandler) Join(c *gin.Context) {
	user := middleware.CurrentUser(c)

	party, err := h.taxi.Join(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, party)
}

func (h *TaxiHandler) Leave(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.taxi.Leave(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaxiHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.taxi.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type finalizeRequest struct {
	Attendance map[string]bool `json:"attendance" binding:"required"`
}

// Finalize - 정산 (참석 +2 하루 1회, 노쇼 -7) 후 파티 삭제
func (h *TaxiHandler) Finalize(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	settlement, err := h.taxi.Finalize(c.Request.Context(), c.Param("id"), user.ID, req.Attendance)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settlement)
}
