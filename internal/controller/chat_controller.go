package controller

import (
	"github.com/gofiber/fiber/v2"

	"floatchat-be/internal/dto"
	"floatchat-be/internal/pkg/serverutils"
	"floatchat-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(app *fiber.App)
	Root(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	ChatWithSession(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
	ChatTypes(ctx *fiber.Ctx) error
	Rebuild(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(app *fiber.App) {
	app.Get("/", c.Root)
	app.Get("/api/health", c.Health)

	api := app.Group("/api")
	api.Get("chat-types", c.ChatTypes)
	api.Post("chat", c.Chat)
	api.Post("chat/session/:id", c.ChatWithSession)
	api.Get("chat/session/:id/history", c.GetHistory)
	api.Delete("chat/session/:id", c.ClearSession)
	api.Post("vectordb/rebuild", c.Rebuild)
}

func (c *chatController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"message": "FloatChat backend is running!"})
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "healthy", "message": "Backend is working fine!"})
}

// Chat answers a one-shot message. The response body keeps the shape the
// frontend expects: response/success/error plus an optional graph.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(c.chatService.Chat(ctx.Context(), &req))
}

func (c *chatController) ChatWithSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(c.chatService.ChatWithSession(ctx.Context(), sessionID, &req))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatService.GetHistory(ctx.Params("id")))
}

func (c *chatController) ClearSession(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatService.ClearSession(ctx.Params("id")))
}

func (c *chatController) ChatTypes(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatService.ChatTypes())
}

// Rebuild enqueues a vector collection rebuild and returns immediately.
func (c *chatController) Rebuild(ctx *fiber.Ctx) error {
	res, err := c.chatService.RequestRebuild("api request")
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Rebuild queued", res))
}
