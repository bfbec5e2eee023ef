package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/middleware"
	"github.com/xxxsen/codeman/internal/pkg/errcode"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
	"github.com/xxxsen/codeman/internal/pkg/response"
)

type errorMapping struct {
	kind    error
	status  int
	code    int
	message string
}

// errorMappings is checked in order; the first kind matched by errors.Is wins.
var errorMappings = []errorMapping{
	{appErr.ErrInvalidToken, http.StatusBadRequest, errcode.ErrInvalid, "Invalid token"},
	{appErr.ErrInvalid, http.StatusBadRequest, errcode.ErrInvalid, "Invalid request"},
	{appErr.ErrUnauthorized, http.StatusUnauthorized, errcode.ErrUnauthorized, "Unauthorized"},
	{appErr.ErrNotFound, http.StatusNotFound, errcode.ErrNotFound, "Not found"},
	{appErr.ErrExpired, http.StatusGone, errcode.ErrExpired, "Expired"},
	{appErr.ErrTooMany, http.StatusTooManyRequests, errcode.ErrTooMany, "Too many requests"},
	{appErr.ErrStorage, http.StatusBadGateway, errcode.ErrUploadFailed, "Failed to store code"},
	{appErr.ErrEmptyContent, http.StatusBadGateway, errcode.ErrEmptyContent, "Code file is empty"},
	{appErr.ErrUpstream, http.StatusBadGateway, errcode.ErrUpstream, "Failed to fetch code"},
	{appErr.ErrTimeout, http.StatusGatewayTimeout, errcode.ErrTimeout, "Request timeout"},
	{appErr.ErrPersistence, http.StatusInternalServerError, errcode.ErrPersistFailed, "Internal server error"},
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := http.StatusInternalServerError, errcode.ErrInternal, "Internal server error"
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			status, code, message = m.status, m.code, m.message
			break
		}
	}
	if msg := appErr.Message(err); msg != "" {
		message = msg
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	if uid := middleware.GetUserID(c); uid != "" {
		logger = logger.With(zap.String("user", uid))
	}
	if upstream, ok := appErr.UpstreamStatus(err); ok {
		logger = logger.With(zap.Int("upstream_status", upstream))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Info("request rejected")
	}
	response.Error(c, status, code, message)
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, message)
}

// requestBaseURL rebuilds the public origin of the request, honouring reverse proxy headers.
func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}
