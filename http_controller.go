package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type AuthControllerRoutes struct {
	MagicLink       string
	VerifyMagicLink string
}

type AuthController struct {
	Debug          bool
	Logger         Logger
	Routes         *AuthControllerRoutes
	RequestHandler *RequestMagicLinkHandler
	VerifyHandler  *VerifyMagicLinkHandler
	Tokens         TokenService
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithRequestHandler(h *RequestMagicLinkHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.RequestHandler = h
		return c
	}
}

func WithVerifyHandler(h *VerifyMagicLinkHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.VerifyHandler = h
		return c
	}
}

func WithTokenService(ts TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = ts
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			MagicLink:       "/auth/magic-link",
			VerifyMagicLink: "/auth/verify-magic-link",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.RequestHandler == nil {
		panic("Missing RequestMagicLinkHandler in auth controller...")
	}

	if c.VerifyHandler == nil {
		panic("Missing VerifyMagicLinkHandler in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

// RegisterAuthRoutes binds the magic link endpoints on the given router.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.MagicLink, controller.MagicLinkRequest).
		Name("magic-link.post")

	app.Post(controller.Routes.VerifyMagicLink, controller.MagicLinkVerify).
		Name("magic-link-verify.post")

	return controller
}

// MagicLinkRequest payload
type MagicLinkRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r MagicLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

// VerifyMagicLinkRequest payload
type VerifyMagicLinkRequest struct {
	Token string `form:"token" json:"token"`
}

// Validate will run validation rules
func (r VerifyMagicLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Token,
			validation.Required,
		),
	)
}

// MagicLinkRequest handles POST /auth/magic-link
func (a *AuthController) MagicLinkRequest(c *fiber.Ctx) error {
	payload := new(MagicLinkRequest)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH MAGIC LINK ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==============================")
	}

	msg := RequestMagicLinkMessage{
		Email: payload.Email,
	}

	if err := a.RequestHandler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "sign-in link sent",
		"email":   NormalizeEmail(payload.Email),
	})
}

// MagicLinkVerify handles POST /auth/verify-magic-link
func (a *AuthController) MagicLinkVerify(c *fiber.Ctx) error {
	payload := new(VerifyMagicLinkRequest)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var resp *VerifyMagicLinkResponse
	msg := VerifyMagicLinkMessage{
		Token: payload.Token,
		OnResponse: func(r *VerifyMagicLinkResponse) {
			resp = r
		},
	}

	if err := a.VerifyHandler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	if resp == nil || resp.User == nil {
		return a.renderError(c, goerrors.New("verification returned no identity", goerrors.CategoryInternal))
	}

	session, err := a.Tokens.Generate(resp.Identity())
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "signed in",
		"token":   session,
		"user": fiber.Map{
			"id":    resp.User.ID.String(),
			"email": resp.User.Email,
			"name":  resp.User.DisplayName,
		},
	})
}

func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred")
	}

	a.Logger.Error("auth controller error: %s (%s)", richErr.Message, richErr.TextCode)

	switch {
	case IsInvalidToken(err):
		// Generic on purpose: not-found, used, and expired read the same.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": InvalidTokenMessage,
		})
	case IsAccessDenied(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": AccessDeniedMessage,
		})
	case IsDeliveryFailed(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "could not send sign-in email",
		})
	case IsStoreUnavailable(err):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "service temporarily unavailable",
		})
	case richErr.Category == goerrors.CategoryBadInput || richErr.Category == goerrors.CategoryValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": richErr.Message,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
