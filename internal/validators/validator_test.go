package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	t.Run("valid body passes", func(t *testing.T) {
		assert.NoError(t, v.Validate(&models.CreateCommentRequest{Content: "nice!"}))
	})

	t.Run("missing content is a 400", func(t *testing.T) {
		err := v.Validate(&models.CreateCommentRequest{})
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		assert.Equal(t, "content is required", he.Message)
	})

	t.Run("unknown visibility is rejected", func(t *testing.T) {
		err := v.Validate(&models.CreatePostRequest{Content: "hi", Visibility: "SECRET"})
		require.Error(t, err)
		assert.Contains(t, err.(*echo.HTTPError).Message, "visibility must be one of")
	})
}
