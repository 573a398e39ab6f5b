package chub

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// searchResponseSchema pins the minimum shape we rely on: a data object
// carrying a nodes array. Everything else in the payload is optional.
const searchResponseSchema = `{
	"type": "object",
	"required": ["data"],
	"properties": {
		"data": {
			"type": "object",
			"required": ["nodes"],
			"properties": {
				"nodes": { "type": "array" }
			}
		}
	}
}`

var searchSchema = gojsonschema.NewStringLoader(searchResponseSchema)

// validateSearchPayload checks the raw body against the response schema.
func validateSearchPayload(body []byte) error {
	res, err := gojsonschema.Validate(searchSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("payload is not valid json: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("payload shape mismatch: %s", strings.Join(msgs, "; "))
}
