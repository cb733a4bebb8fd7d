package rest

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"

	jobboard "github.com/jobhive/jobhive"
)

// ChatController serves conversation and message endpoints.
type ChatController struct {
	chat   *jobboard.ChatService
	logger jobboard.Logger
}

func NewChatController(chat *jobboard.ChatService) *ChatController {
	return &ChatController{
		chat:   chat,
		logger: jobboard.NewDefaultLogger(),
	}
}

func (ct *ChatController) WithLogger(logger jobboard.Logger) *ChatController {
	if logger != nil {
		ct.logger = logger
	}
	return ct
}

func (ct *ChatController) Register(router fiber.Router) {
	router.Get("/chats", ct.List)
	router.Post("/chats", ct.Initiate)
	router.Get("/chats/:id/messages", ct.History)
	router.Post("/chats/:id/messages", ct.Send)
}

func (ct *ChatController) List(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	conversations, err := ct.chat.Conversations(c.UserContext(), actor)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"conversations": conversations,
	})
}

// InitiateChatPayload opens a conversation with an applicant on behalf
// of a company.
type InitiateChatPayload struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
}

func (r InitiateChatPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompanyID, validation.Required, is.UUID),
		validation.Field(&r.UserID, validation.Required, is.UUID),
	)
}

func (ct *ChatController) Initiate(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	var req InitiateChatPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid chat payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	companyID, err := parseUUID(req.CompanyID, "company_id")
	if err != nil {
		return err
	}

	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return err
	}

	conversation, err := ct.chat.Initiate(c.UserContext(), actor, companyID, userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"conversation": conversation,
	})
}

func (ct *ChatController) History(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	messages, err := ct.chat.History(c.UserContext(), actor, id, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"messages": messages,
	})
}

// MessagePayload is one outgoing chat message.
type MessagePayload struct {
	Body string `json:"body"`
}

func (r MessagePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required, validation.Length(1, 4000)),
	)
}

func (ct *ChatController) Send(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req MessagePayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid message payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	message, err := ct.chat.Send(c.UserContext(), actor, id, req.Body)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}
