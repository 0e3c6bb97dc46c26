package builtin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hassbridge/hassbridge-core/internal/command"
)

// Languages offered by the assist command.
var assistLanguages = []command.Choice{
	{Label: "English", Value: "en"},
	{Label: "Polish", Value: "pl"},
}

const conversationTTL = 5 * time.Minute

// conversations remembers each user's active conversation ID so follow-up
// messages stay in context.
type conversations struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, string]
}

func newConversations() *conversations {
	return &conversations{lru: expirable.NewLRU[string, string](256, nil, conversationTTL)}
}

func (c *conversations) get(userID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, _ := c.lru.Get(userID)
	return id
}

func (c *conversations) set(userID, conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(userID, conversationID)
}

func (c *Commands) assist() command.Definition {
	convs := newConversations()

	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "assist",
		Description: "Sends a message to the conversation agent",
		Parameters: []command.Parameter{
			{
				Name:        "message",
				Description: "Message to send",
				Kind:        command.KindString,
				Required:    true,
			},
			{
				Name:        "language",
				Description: "Conversation language",
				Kind:        command.KindString,
				Choices:     assistLanguages,
				Default:     "en",
			},
		},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			message, err := stringArg(args, "message")
			if err != nil {
				return nil, err
			}
			language, _ := args["language"].(string)
			if language == "" {
				language = "en"
			}

			prior := convs.get(userID)
			reply, err := c.agent.Conversation(ctx, message, language, prior)
			if err != nil {
				return nil, fmt.Errorf("conversation failed: %w", err)
			}
			if reply.ConversationID != "" && prior == "" {
				convs.set(userID, reply.ConversationID)
			}

			speech := reply.Speech
			if speech == "" {
				speech = "No text"
			}
			return &command.Result{
				Message: speech,
				Response: map[string]any{
					"success":         reply.Success,
					"conversation_id": reply.ConversationID,
				},
			}, nil
		},
	}
}
