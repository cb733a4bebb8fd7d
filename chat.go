package jobboard

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ChatService runs the conversation rules: only a company owner/HR may
// open a conversation, and only with a user who applied to one of that
// company's jobs. Messages are an append-only log; the only message
// invariant is that the sender is a participant.
type ChatService struct {
	repo        RepositoryManager
	broadcaster Broadcaster
	logger      Logger
}

func NewChatService(repo RepositoryManager) *ChatService {
	return &ChatService{
		repo:        repo,
		broadcaster: NoopBroadcaster(),
		logger:      &defLogger{},
	}
}

func (s *ChatService) WithBroadcaster(b Broadcaster) *ChatService {
	if b != nil {
		s.broadcaster = b
	}
	return s
}

func (s *ChatService) WithLogger(logger Logger) *ChatService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Initiate opens (or returns) the conversation between the actor and
// the target applicant. The actor must manage the company whose job the
// target applied to.
func (s *ChatService) Initiate(ctx context.Context, actor *User, companyID, targetID uuid.UUID) (*Conversation, error) {
	if actor.ID == targetID {
		return nil, ErrChatNotPermitted
	}

	company, err := s.repo.Companies().GetWithHRs(ctx, companyID)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return nil, goerrors.New("company not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}

	if actor.Role != RoleAdmin && !company.IsManagedBy(actor.ID) {
		return nil, ErrChatNotPermitted
	}

	applied, err := s.repo.Applications().ExistsForCompany(ctx, companyID, targetID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrChatNotPermitted
	}

	if existing, err := s.repo.Chats().FindConversationBetween(ctx, actor.ID, targetID); err == nil {
		return existing, nil
	} else if !repository.IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return nil, err
	}

	conversation, err := s.repo.Chats().CreateConversation(ctx, &Conversation{
		InitiatorID:   actor.ID,
		ParticipantID: targetID,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "conversation create failed")
	}

	return conversation, nil
}

// Send appends a message and emits it to the conversation room.
func (s *ChatService) Send(ctx context.Context, actor *User, conversationID uuid.UUID, body string) (*ChatMessage, error) {
	if body == "" {
		return nil, goerrors.New("message body must not be empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(actor.ID) {
		return nil, ErrNotParticipant
	}

	message, err := s.repo.Chats().AppendMessage(ctx, &ChatMessage{
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Body:           body,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "message append failed")
	}

	s.broadcaster.Emit(ChatRoom(conversationID), "message", message)

	return message, nil
}

// History returns the conversation log, oldest first.
func (s *ChatService) History(ctx context.Context, actor *User, conversationID uuid.UUID, limit int) ([]*ChatMessage, error) {
	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(actor.ID) && actor.Role != RoleAdmin {
		return nil, ErrNotParticipant
	}

	return s.repo.Chats().ListMessages(ctx, conversationID, limit)
}

// Conversations lists the actor's own conversations.
func (s *ChatService) Conversations(ctx context.Context, actor *User) ([]*Conversation, error) {
	return s.repo.Chats().ListConversations(ctx, actor.ID)
}

func (s *ChatService) loadConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	conversation, err := s.repo.Chats().GetConversation(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return nil, goerrors.New("conversation not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}

	return conversation, nil
}

// ChatRoom is the broadcast room name for a conversation.
func ChatRoom(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}
