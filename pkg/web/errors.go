package web

import (
	"errors"

	"github.com/dukex/nodegraph/pkg/editor"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func problem(c fiber.Ctx, status int, kind string, err error) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(err.Error())

	return c.Status(status).JSON(p)
}

// handleError maps graph core errors onto problem documents.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case models.IsModuleNotFound(err):
		return problem(c, fiber.StatusNotFound, "module_not_found", err)

	case models.IsNodeNotFound(err):
		return problem(c, fiber.StatusNotFound, "node_not_found", err)

	case models.IsConnectionNotFound(err):
		return problem(c, fiber.StatusNotFound, "connection_not_found", err)

	case models.IsCycle(err):
		return problem(c, fiber.StatusUnprocessableEntity, "cycle_error", err)

	case models.IsValidation(err):
		return problem(c, fiber.StatusBadRequest, "validation_error", err)

	case models.IsSerialization(err):
		return problem(c, fiber.StatusBadRequest, "serialization_error", err)

	case errors.Is(err, editor.ErrClosed):
		return problem(c, fiber.StatusServiceUnavailable, "editor_closed", err)

	default:
		p := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(p)
	}
}
