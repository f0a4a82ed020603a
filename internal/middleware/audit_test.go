package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.POST("/timetable/:id/toggle-lock", Audit(zap.New(core), "timetable.toggle_lock"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/generate-timetable", Audit(zap.New(core), "timetable.generate"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/timetable/entry-1/toggle-lock", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/generate-timetable", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "timetable.toggle_lock", fields["action"])
	assert.Equal(t, "entry-1", fields["resource_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}
