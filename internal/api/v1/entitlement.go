package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/datapass/datapass/internal/api/dto"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/service"
)

// EntitlementHandler handles subscription lifecycle API requests
type EntitlementHandler struct {
	entitlementService service.EntitlementService
	log                *logger.Logger
}

func NewEntitlementHandler(
	entitlementService service.EntitlementService,
	log *logger.Logger,
) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
		log:                log,
	}
}

func (h *EntitlementHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.entitlementService.Subscribe(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *EntitlementHandler) ExtendSubscription(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req dto.ExtendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}
	req.SubscriptionID = id

	resp, err := h.entitlementService.ExtendSubscription(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) AddConsumers(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req dto.AddConsumersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}
	req.SubscriptionID = id

	resp, err := h.entitlementService.AddConsumers(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) RemoveConsumers(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req dto.RemoveConsumersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}
	req.SubscriptionID = id

	resp, err := h.entitlementService.RemoveConsumers(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) ReplaceConsumers(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req dto.ReplaceConsumersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}
	req.SubscriptionID = id

	resp, err := h.entitlementService.ReplaceConsumers(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) GetSubscription(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.entitlementService.GetSubscription(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) QuoteSubscriptionFee(c *gin.Context) {
	var req dto.SubscriptionFeeQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.entitlementService.QuoteSubscriptionFee(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) QuoteExtraConsumerFee(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req dto.ExtraConsumerFeeQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}
	req.SubscriptionID = id

	resp, err := h.entitlementService.QuoteExtraConsumerFee(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) CheckAccess(c *gin.Context) {
	var req dto.AccessCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.entitlementService.IsCurrentlyAuthorized(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntitlementHandler) subscriptionID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Error(ierr.NewError("invalid subscription id").
			WithHint("The subscription id must be a positive integer").
			Mark(ierr.ErrValidation))
		return 0, false
	}
	return id, true
}
