package controller

import (
	"io"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/pkg/serverutils"
	"blog-editor-be/internal/service"
	"blog-editor-be/pkg/tracker"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEditorController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Command(ctx *fiber.Ctx) error
	InsertImage(ctx *fiber.Ctx) error
	Preview(ctx *fiber.Ctx) error
	PendingImages(ctx *fiber.Ctx) error
	RemovedImages(ctx *fiber.Ctx) error
	Toolbar(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type editorController struct {
	editorService service.IEditorService
}

func NewEditorController(editorService service.IEditorService) IEditorController {
	return &editorController{
		editorService: editorService,
	}
}

func (c *editorController) RegisterRoutes(r fiber.Router) {
	// Image tags cannot send a token; the session id guards previews.
	r.Get("/editor/v1/preview/:id/:path", c.Preview)

	h := r.Group("/editor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("sessions", c.Open)
	h.Get("sessions/:id", c.Show)
	h.Post("sessions/:id/commands", c.Command)
	h.Post("sessions/:id/images", c.InsertImage)
	h.Get("sessions/:id/images/pending", c.PendingImages)
	h.Get("sessions/:id/images/removed", c.RemovedImages)
	h.Post("sessions/:id/toolbar", c.Toolbar)
	h.Post("sessions/:id/submit", c.Submit)
	h.Delete("sessions/:id", c.Close)
}

func userIdFrom(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

func (c *editorController) Open(ctx *fiber.Ctx) error {
	userId := userIdFrom(ctx)

	var req dto.OpenEditorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	var (
		res *dto.EditorSessionResponse
		err error
	)
	if req.BlogId != nil {
		res, err = c.editorService.OpenEdit(ctx.Context(), userId, req.ProjectId, *req.BlogId)
	} else {
		res, err = c.editorService.OpenCreate(ctx.Context(), userId, req.ProjectId)
	}
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success open editor session", res))
}

func (c *editorController) Show(ctx *fiber.Ctx) error {
	res, err := c.editorService.Show(ctx.Context(), userIdFrom(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show editor session", res))
}

func (c *editorController) Command(ctx *fiber.Ctx) error {
	var req dto.EditorCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.editorService.Command(ctx.Context(), userIdFrom(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success apply command", res))
}

// InsertImage expects a multipart form with the file under "image".
func (c *editorController) InsertImage(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing image file")
	}
	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.editorService.InsertImage(ctx.Context(), userIdFrom(ctx), ctx.Params("id"), tracker.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success insert image", res))
}

func (c *editorController) Preview(ctx *fiber.Ctx) error {
	file, err := c.editorService.Preview(ctx.Context(), ctx.Params("id"), ctx.Params("path"))
	if err != nil {
		return err
	}
	if file.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, file.ContentType)
	}
	ctx.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return ctx.Send(file.Data)
}

func (c *editorController) PendingImages(ctx *fiber.Ctx) error {
	res, err := c.editorService.PendingImages(ctx.Context(), userIdFrom(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list pending images", res))
}

func (c *editorController) RemovedImages(ctx *fiber.Ctx) error {
	res, err := c.editorService.RemovedImages(ctx.Context(), userIdFrom(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list removed images", res))
}

func (c *editorController) Toolbar(ctx *fiber.Ctx) error {
	var req dto.ToolbarPositionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.editorService.Toolbar(ctx.Context(), userIdFrom(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success position toolbar", res))
}

func (c *editorController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitBlogRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.editorService.Submit(ctx.Context(), userIdFrom(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success submit blog", res))
}

func (c *editorController) Close(ctx *fiber.Ctx) error {
	if err := c.editorService.Close(ctx.Context(), userIdFrom(ctx), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close editor session", nil))
}
