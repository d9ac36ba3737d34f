package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// Router configures gin routes. An empty origins list allows any origin.
func Router(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsCfg))

	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	r.POST("/predict/tensor", h.PredictTensor)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestID(c.GetHeader(requestIDHeader))
		c.Header(requestIDHeader, id)

		entry := logrus.WithField("request_id", id)
		c.Set(loggerKey, entry)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.WithFields(fields).Warn("request completed")
		} else {
			entry.WithFields(fields).Debug("request completed")
		}
	}
}

// requestID keeps a client-supplied ID only when it is a UUID.
func requestID(header string) string {
	if parsed, err := uuid.Parse(header); err == nil {
		return parsed.String()
	}
	return uuid.NewString()
}

func logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
