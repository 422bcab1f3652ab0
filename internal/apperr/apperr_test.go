package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesKindAndResource(t *testing.T) {
	err := fmt.Errorf("vote: %w", NotFound(ResourceSubmission, "no such submission"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrSubmissionNotFound))
	assert.False(t, errors.Is(err, ErrCategoryNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
}

func TestMetadataFetch_Unwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := MetadataFetch("https://example.com", cause)

	assert.True(t, errors.Is(err, ErrMetadataFetch))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeMetadataFetchFailed, Code(err))
}

func TestCode_NotFoundCarriesResource(t *testing.T) {
	assert.Equal(t, "CATEGORY_NOT_FOUND", Code(NotFound(ResourceCategory, "")))
	assert.Equal(t, "SUBMISSION_NOT_FOUND", Code(NotFound(ResourceSubmission, "")))
	assert.Equal(t, CodeNotFound, Code(&Error{Kind: KindNotFound}))
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", Unauthenticated("login first"), http.StatusUnauthorized, CodeUnauthenticated},
		{"already authenticated", AlreadyAuthenticated("logged in"), http.StatusForbidden, CodeAlreadyAuthenticated},
		{"validation", Validation("email", "not an email"), http.StatusBadRequest, CodeValidationFailed},
		{"duplicate", Duplicate(ResourceCategory, "title taken"), http.StatusConflict, CodeDuplicateResource},
		{"metadata", MetadataFetch("https://x.test", errors.New("dial")), http.StatusBadGateway, CodeMetadataFetchFailed},
		{"configuration", Configuration("gap"), http.StatusInternalServerError, CodeConfiguration},
		{"internal", errors.New("db down"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return Handle(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var out ErrorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.code, out.Code)
		})
	}
}
