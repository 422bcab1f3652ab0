// Package query decodes request query strings into tagged structs.
package query

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// Decode fills dst from the query string of c using `schema` tags
func Decode(c *fiber.Ctx, dst interface{}) error {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return err
	}
	return decoder.Decode(dst, values)
}
