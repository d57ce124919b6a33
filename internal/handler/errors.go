package handler

import (
	"net/http"

	"retailpos/internal/service"
	"retailpos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindInvalidRequest, service.KindInvalidRedemption:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInsufficientStock, service.KindConflict, service.KindSkuAllocationFailed:
		return http.StatusConflict
	case service.KindBelowMinimumPrice, service.KindSameBranchTransfer:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the response envelope. Server-side
// failures are logged and their details withheld from the client.
func writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		msg = "Internal server error"
		if kind == "" {
			kind = service.KindPersistenceFailure
		}
	}
	_ = c.Error(err)
	c.JSON(status, response.ErrorWithCode(status, string(kind), msg))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, string(service.KindInvalidRequest), msg))
}

// parseUUIDParam reads a uuid path parameter, answering 400 when malformed
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDQuery reads an optional uuid query parameter
func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Invalid "+name+": "+raw)
		return nil, false
	}
	return &id, true
}
