package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rs *RestfulServer) CreateSession(c *gin.Context) {
	s := rs.Registry.Open()
	rs.logger().Info("Session opened", zap.String(common.LoggerFieldSessionID, s.ID))

	c.JSON(http.StatusCreated, NewSessionView(s.Snapshot()))
}

// session looks up the :session_id session, answering 404 itself when there
// is none.
func (rs *RestfulServer) session(c *gin.Context) (*garden.Session, bool) {
	s, err := rs.Registry.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

func (rs *RestfulServer) GetSession(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewSessionView(s.Snapshot()))
}

type SensorRequest struct {
	Sensor string `json:"sensor"`
}

var sensorRequestSchema = z.Struct(z.Shape{
	"sensor": z.String().Min(1).Required(),
})

func (rs *RestfulServer) SelectSensor(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}

	var req SensorRequest
	if err := sensorRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := s.SelectSensor(req.Sensor); err != nil {
		rs.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionView(s.Snapshot()))
}

type TimeframeRequest struct {
	Timeframe string `json:"timeframe"`
}

var timeframeRequestSchema = z.Struct(z.Shape{
	"timeframe": z.String().Min(1).Required(),
})

func (rs *RestfulServer) SetTimeframe(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}

	var req TimeframeRequest
	if err := timeframeRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	tf, err := models.ParseTimeframe(req.Timeframe)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.SetTimeframe(tf); err != nil {
		rs.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionView(s.Snapshot()))
}

// TriggerGeneration waits for the backend to answer. A failed trigger is
// still a 200; the outcome is in the telemetry phase.
func (rs *RestfulServer) TriggerGeneration(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}

	if !rs.CheckSessionLimiter(s.ID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	s.TriggerGeneration(c.Request.Context())
	c.JSON(http.StatusOK, NewSessionView(s.Snapshot()))
}

func (rs *RestfulServer) DeleteSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if err := rs.Registry.Close(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	rs.forgetLimiter(sessionID)
	rs.logger().Info("Session closed", zap.String(common.LoggerFieldSessionID, sessionID))

	c.Status(http.StatusNoContent)
}

func (rs *RestfulServer) Classify(c *gin.Context) {
	kind, err := garden.ParseMetricKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	level, err := strconv.ParseFloat(c.Query("level"), 64)
	if err != nil || math.IsNaN(level) || math.IsInf(level, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "level should be a finite number"})
		return
	}

	c.JSON(http.StatusOK, garden.Classify(level, kind))
}

func (rs *RestfulServer) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, garden.ErrSessionClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, garden.ErrEmptySensorID),
		errors.Is(err, garden.ErrUnknownSensor),
		errors.Is(err, garden.ErrUnknownTimeframe):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		rs.logger().Error("Session call failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
