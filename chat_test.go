package jobboard_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobboard "github.com/jobhive/jobhive"
)

// recordingBroadcaster captures Emit calls for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	rooms  []string
	events []string
}

func (b *recordingBroadcaster) Emit(room, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms = append(b.rooms, room)
	b.events = append(b.events, event)
}

func TestChatInitiateRules(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	chat := jobboard.NewChatService(repo)

	owner := seedUser(t, repo, jobboard.RoleUser)
	hr := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	bystander := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner, hr)
	job := seedJob(t, repo, company, owner)
	seedApplication(t, repo, job, applicant, jobboard.StatusPending)

	t.Run("HR opens a conversation with an applicant", func(t *testing.T) {
		conversation, err := chat.Initiate(ctx, hr, company.ID, applicant.ID)
		require.NoError(t, err)
		assert.Equal(t, hr.ID, conversation.InitiatorID)
		assert.Equal(t, applicant.ID, conversation.ParticipantID)
	})

	t.Run("initiate is idempotent for the same pair", func(t *testing.T) {
		first, err := chat.Initiate(ctx, hr, company.ID, applicant.ID)
		require.NoError(t, err)
		second, err := chat.Initiate(ctx, hr, company.ID, applicant.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("outsiders cannot initiate", func(t *testing.T) {
		_, err := chat.Initiate(ctx, bystander, company.ID, applicant.ID)
		assert.ErrorIs(t, err, jobboard.ErrChatNotPermitted)
	})

	t.Run("no conversation without an application", func(t *testing.T) {
		_, err := chat.Initiate(ctx, owner, company.ID, bystander.ID)
		assert.ErrorIs(t, err, jobboard.ErrChatNotPermitted)
	})

	t.Run("no conversation with oneself", func(t *testing.T) {
		_, err := chat.Initiate(ctx, owner, company.ID, owner.ID)
		assert.ErrorIs(t, err, jobboard.ErrChatNotPermitted)
	})
}

func TestChatMessaging(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	sink := &recordingBroadcaster{}
	chat := jobboard.NewChatService(repo).WithBroadcaster(sink)

	owner := seedUser(t, repo, jobboard.RoleUser)
	applicant := seedUser(t, repo, jobboard.RoleUser)
	stranger := seedUser(t, repo, jobboard.RoleUser)
	company := seedCompany(t, repo, owner)
	job := seedJob(t, repo, company, owner)
	seedApplication(t, repo, job, applicant, jobboard.StatusPending)

	conversation, err := chat.Initiate(ctx, owner, company.ID, applicant.ID)
	require.NoError(t, err)

	t.Run("both participants can write", func(t *testing.T) {
		first, err := chat.Send(ctx, owner, conversation.ID, "thanks for applying")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, first.SenderID)

		_, err = chat.Send(ctx, applicant, conversation.ID, "happy to talk")
		require.NoError(t, err)
	})

	t.Run("messages land in the conversation room", func(t *testing.T) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		require.NotEmpty(t, sink.rooms)
		assert.Equal(t, jobboard.ChatRoom(conversation.ID), sink.rooms[0])
		assert.Equal(t, "message", sink.events[0])
	})

	t.Run("strangers cannot write or read", func(t *testing.T) {
		_, err := chat.Send(ctx, stranger, conversation.ID, "hello?")
		assert.ErrorIs(t, err, jobboard.ErrNotParticipant)

		_, err = chat.History(ctx, stranger, conversation.ID, 0)
		assert.ErrorIs(t, err, jobboard.ErrNotParticipant)
	})

	t.Run("empty bodies are rejected", func(t *testing.T) {
		_, err := chat.Send(ctx, owner, conversation.ID, "")
		assert.Error(t, err)
	})

	t.Run("history is oldest first and honors the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := chat.Send(ctx, owner, conversation.ID, fmt.Sprintf("note %d", i))
			require.NoError(t, err)
		}

		log, err := chat.History(ctx, applicant, conversation.ID, 0)
		require.NoError(t, err)
		require.Len(t, log, 5)

		bodies := make([]string, 0, len(log))
		for _, m := range log {
			bodies = append(bodies, m.Body)
		}
		assert.Contains(t, bodies, "thanks for applying")
		assert.Contains(t, bodies, "note 2")

		for i := 1; i < len(log); i++ {
			assert.False(t, log[i].CreatedAt.Before(*log[i-1].CreatedAt))
		}

		limited, err := chat.History(ctx, applicant, conversation.ID, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("admins may read any conversation", func(t *testing.T) {
		admin := seedUser(t, repo, jobboard.RoleAdmin)
		_, err := chat.History(ctx, admin, conversation.ID, 0)
		require.NoError(t, err)
	})

	t.Run("participants see the conversation in their list", func(t *testing.T) {
		list, err := chat.Conversations(ctx, applicant)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, conversation.ID, list[0].ID)
	})
}
