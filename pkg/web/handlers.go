// Package web exposes an editor session over HTTP.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/nodegraph/pkg/editor"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/dukex/nodegraph/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	editor      *editor.Editor
	validator   *validator.Validate
	registry    *registry.Registry
	persistence persistence.Persistence
}

// NewAPIHandlers creates the handlers. persistence may be nil.
func NewAPIHandlers(
	ed *editor.Editor,
	validator *validator.Validate,
	registry *registry.Registry,
	persistence persistence.Persistence,
) *APIHandlers {
	return &APIHandlers{
		editor:      ed,
		validator:   validator,
		registry:    registry,
		persistence: persistence,
	}
}

// Register mounts every route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	m := router.Group("/modules")
	m.Get("/", h.GetModules)
	m.Post("/", h.CreateModule)
	m.Post("/:name/open", h.OpenModule)

	e := router.Group("/editor")
	e.Post("/save", h.SaveModule)
	e.Post("/restore", h.RestoreModule)

	g := router.Group("/graph")
	g.Get("/", h.GetGraph)
	g.Post("/nodes", h.CreateNode)
	g.Delete("/nodes/:id", h.DeleteNode)
	g.Patch("/nodes/:id/controls", h.UpdateControls)
	g.Post("/connections", h.CreateConnection)
	g.Delete("/connections/:id", h.DeleteConnection)
	g.Post("/evaluate", h.Evaluate)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetModules(c fiber.Ctx) error {
	return c.JSON(ModulesResponse{
		Modules: h.editor.Modules(),
		Current: h.editor.Current(),
	})
}

func (h *APIHandlers) CreateModule(c fiber.Ctx) error {
	var req CreateModuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.editor.NewModule(c.Context(), req.Name); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"name": req.Name})
}

func (h *APIHandlers) OpenModule(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Module name is required")
	}

	if err := h.editor.Open(c.Context(), name); err != nil {
		return handleError(c, err)
	}

	return h.GetGraph(c)
}

func (h *APIHandlers) SaveModule(c fiber.Ctx) error {
	if err := h.editor.Save(c.Context()); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RestoreModule(c fiber.Ctx) error {
	if err := h.editor.Restore(c.Context()); err != nil {
		return handleError(c, err)
	}

	return h.GetGraph(c)
}

// GetGraph returns the graph as a payload.
func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	payload, err := h.editor.Export(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(payload)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var resp NodeResponse

	_, err := h.editor.AddNodeFunc(c.Context(), models.Kind(req.Kind), req.Controls, req.Position,
		func(node protocol.Node, position models.Position) {
			resp = TransformNodeResponse(node, position)
		})
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	if err := h.editor.RemoveNode(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateControls writes node controls and answers with the reprocessed outputs.
func (h *APIHandlers) UpdateControls(c fiber.Ctx) error {
	var req UpdateControlsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outputs, err := h.editor.SetControls(c.Context(), c.Params("id"), req.Controls)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(EvaluateResponse{Outputs: outputs})
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req CreateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	conn := models.Connection{
		Source:       req.Source,
		SourceOutput: req.SourceOutput,
		Target:       req.Target,
		TargetInput:  req.TargetInput,
	}

	id, err := h.editor.Connect(c.Context(), conn)
	if err != nil {
		return handleError(c, err)
	}

	conn.ID = id

	return c.Status(fiber.StatusCreated).JSON(conn)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	if err := h.editor.Disconnect(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) Evaluate(c fiber.Ctx) error {
	outputs, err := h.editor.Process(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(EvaluateResponse{Outputs: outputs})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	persistenceCheck, persistenceOk := "not configured", true

	if h.persistence != nil {
		persistenceCheck = "ok"

		if err := h.persistence.HealthCheck(c.Context()); err != nil {
			persistenceCheck, persistenceOk = err.Error(), false
		}
	}

	status := "unhealthy"
	message := "nodegraph API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && persistenceOk {
		status = "healthy"
		message = "nodegraph API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":    registryCheck,
			"persistence": persistenceCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
