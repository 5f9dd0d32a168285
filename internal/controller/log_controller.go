package controller

import (
	"time"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

const logTimeLayout = "2006-01-02T15:04:05.000Z0700"

type ILogController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

// logController exposes the service's own log file for operators.
type logController struct {
	logger logger.ILogger
}

func NewLogController(logger logger.ILogger) ILogController {
	return &logController{logger: logger}
}

func (c *logController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ops/v1/logs")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id", c.Show)
}

func toLogListResponse(e logger.LogEntry) dto.LogListResponse {
	createdAt, _ := time.Parse(logTimeLayout, e.Timestamp)
	return dto.LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		CreatedAt: createdAt,
	}
}

func (c *logController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	entries, err := c.logger.GetLogs(ctx.Query("level"), limit, ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	res := make([]dto.LogListResponse, len(entries))
	for i, e := range entries {
		res[i] = toLogListResponse(e)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list logs", res))
}

func (c *logController) Show(ctx *fiber.Ctx) error {
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show log", dto.LogDetailResponse{
		LogListResponse: toLogListResponse(*entry),
		Details:         entry.Details,
	}))
}
