package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/bookmarks/services"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListBookmarks(ctx context.Context, caller *types.UserContext, filter models.Filter) (*services.ListResponse, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListResponse), args.Error(1)
}

func newApp(svc services.Service, caller *types.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if caller != nil {
			c.Locals(types.UserCtxName, *caller)
		}
		return c.Next()
	})
	app.Get("/bookmarks", NewBookmarkHandler(svc).List)
	return app
}

func TestBookmarkHandler_List(t *testing.T) {
	caller := &types.UserContext{UserID: uuid.Must(uuid.NewV4())}
	svc := new(mockService)
	svc.On("ListBookmarks", mock.Anything, caller, models.Filter{Stage: "butterfly"}).
		Return(&services.ListResponse{Submissions: []*models.SubmissionView{}}, nil)

	resp, err := newApp(svc, caller).Test(httptest.NewRequest("GET", "/bookmarks?stage=butterfly", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestBookmarkHandler_Anonymous(t *testing.T) {
	svc := new(mockService)

	resp, err := newApp(svc, nil).Test(httptest.NewRequest("GET", "/bookmarks", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	svc.AssertNotCalled(t, "ListBookmarks")
}
