package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/dto"
	msgService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/service"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/ratelimiter"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/response"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/validator"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service msgService.MessageService
}

func NewMessageHandler(service msgService.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), userID, input)
	if err != nil {
		var rateErr *ratelimiter.RateLimitError
		if errors.As(err, &rateErr) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	otherID, err := response.ParamUUID(c, "otherUserId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	messages, err := h.service.GetConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	count, err := h.service.GetTotalUnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *MessageHandler) ListConversations(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summaries, err := h.service.ListConversations(c.Request.Context(), caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *MessageHandler) DeleteConversation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	otherID, err := response.ParamUUID(c, "otherUserId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), userID, otherID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted successfully"})
}

func (h *MessageHandler) SupportContact(c *gin.Context) {
	contact, err := h.service.SupportContact(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}
