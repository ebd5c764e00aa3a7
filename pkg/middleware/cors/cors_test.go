package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveCORS(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(allowed))
	handler := func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
		c.String(http.StatusOK, "ok")
	}
	router.POST("/timetable/export", handler)
	router.OPTIONS("/timetable/export", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, "/timetable/export", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestCORSExposesExportFilename(t *testing.T) {
	w := serveCORS(nil, http.MethodPost, "https://planner.example.org")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSAllowList(t *testing.T) {
	allowed := []string{"https://planner.example.org/"}

	w := serveCORS(allowed, http.MethodPost, "https://Planner.example.org")
	assert.Equal(t, "https://Planner.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	w = serveCORS(allowed, http.MethodPost, "https://other.example.org")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serveCORS(allowed, http.MethodOptions, "https://other.example.org")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := serveCORS([]string{"https://planner.example.org"}, http.MethodOptions, "https://planner.example.org")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "traceparent")
}
