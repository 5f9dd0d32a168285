package controller

import (
	"blog-editor-be/internal/pkg/serverutils"
	"blog-editor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBlogController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Markdown(ctx *fiber.Ctx) error
	Media(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type blogController struct {
	blogService service.IBlogService
}

func NewBlogController(blogService service.IBlogService) IBlogController {
	return &blogController{
		blogService: blogService,
	}
}

func (c *blogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/blog/v1/projects/:projectId/blogs")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/markdown", c.Markdown)
	h.Get(":id/media", c.Media)
	h.Delete(":id", c.Delete)
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func projectAndBlog(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	blogId, err := uuidParam(ctx, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return projectId, blogId, nil
}

func (c *blogController) List(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "projectId")
	if err != nil {
		return err
	}

	res, err := c.blogService.List(ctx.Context(), projectId, ctx.Query("category"), ctx.QueryInt("page", 1), ctx.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list blogs", res))
}

func (c *blogController) Show(ctx *fiber.Ctx) error {
	projectId, blogId, err := projectAndBlog(ctx)
	if err != nil {
		return err
	}

	res, err := c.blogService.Show(ctx.Context(), projectId, blogId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show blog", res))
}

func (c *blogController) Markdown(ctx *fiber.Ctx) error {
	projectId, blogId, err := projectAndBlog(ctx)
	if err != nil {
		return err
	}

	res, err := c.blogService.Markdown(ctx.Context(), projectId, blogId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success render markdown", res))
}

func (c *blogController) Media(ctx *fiber.Ctx) error {
	projectId, blogId, err := projectAndBlog(ctx)
	if err != nil {
		return err
	}

	res, err := c.blogService.Media(ctx.Context(), projectId, blogId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list blog media", res))
}

func (c *blogController) Delete(ctx *fiber.Ctx) error {
	projectId, blogId, err := projectAndBlog(ctx)
	if err != nil {
		return err
	}

	if err := c.blogService.Delete(ctx.Context(), userIdFrom(ctx), projectId, blogId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete blog", nil))
}
