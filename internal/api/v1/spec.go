package apiv1

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// SpecFile is the path of the document relative to the project root, for
// the Swagger UI.
const SpecFile = "internal/api/v1/openapi.yml"

//go:embed openapi.yml
var rawSpec []byte

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// validateRequest checks parameters against the operation documented for
// path and method. path uses OpenAPI template syntax.
func validateRequest(doc *openapi3.T, method, path string) fiber.Handler {
	item := doc.Paths.Value(path)
	if item == nil || item.GetOperation(method) == nil {
		panic(fmt.Sprintf("apiv1: %s %s is not documented", method, path))
	}
	route := &routers.Route{
		Spec:      doc,
		Path:      path,
		PathItem:  item,
		Method:    method,
		Operation: item.GetOperation(method),
	}

	return func(c *fiber.Ctx) error {
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return err
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: c.AllParams(),
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(c.UserContext(), input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(Error{Error: "bad_request", Message: err.Error()})
		}
		return c.Next()
	}
}
