package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Stage string `schema:"stage"`
	Limit int    `schema:"limit"`
}

func TestDecode(t *testing.T) {
	var got listing
	var decodeErr error

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		decodeErr = Decode(c, &got)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?stage=egg&limit=5&unknown=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NoError(t, decodeErr)
	assert.Equal(t, listing{Stage: "egg", Limit: 5}, got)
}

func TestDecode_BadNumber(t *testing.T) {
	var decodeErr error

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		var dst listing
		decodeErr = Decode(c, &dst)
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/?limit=many", nil))
	require.NoError(t, err)
	assert.Error(t, decodeErr)
}
