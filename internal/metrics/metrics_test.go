package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(notificationsFailed.WithLabelValues("LIKE"))
	RecordNotification("LIKE", false)
	assert.Equal(t, before+1, testutil.ToFloat64(notificationsFailed.WithLabelValues("LIKE")))

	before = testutil.ToFloat64(likeToggles.WithLabelValues("comment", "true"))
	RecordLikeToggle("comment", true)
	assert.Equal(t, before+1, testutil.ToFloat64(likeToggles.WithLabelValues("comment", "true")))

	before = testutil.ToFloat64(userCache.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, before+1, testutil.ToFloat64(userCache.WithLabelValues("hit")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/posts/:post_id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/posts/:post_id", "404"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/posts/:post_id", "404")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordFriendTransition("ACCEPTED")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "engagement_friends_transitions_total"))
}
