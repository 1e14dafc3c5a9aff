package badger

import (
	"context"
	"testing"
	"time"

	"github.com/practicalaiml/askdocs/core"
)

func TestConversationBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	conv := &core.Conversation{
		SessionId:  "sess-1",
		Question:   "What services do you offer?",
		Answer:     "AI prototypes and full-stack builds.",
		ChunksUsed: 2,
	}

	added, err := repos.Conversations.AddConversation(ctx, conv)
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}
}

func TestConversationSequentialIDs(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	first, err := repos.Conversations.AddConversation(ctx, &core.Conversation{Question: "one"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}
	second, err := repos.Conversations.AddConversation(ctx, &core.Conversation{Question: "two"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}
	if second.Id <= first.Id {
		t.Fatalf("Expected increasing IDs, got %d then %d", first.Id, second.Id)
	}
}

func TestGetRecentConversations(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	questions := []string{"oldest", "middle", "newest"}
	for i, q := range questions {
		_, err := repos.Conversations.AddConversation(ctx, &core.Conversation{
			Question:  q,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Failed to add conversation: %v", err)
		}
	}

	recent, err := repos.Conversations.GetRecentConversations(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to get recent conversations: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(recent))
	}
	if recent[0].Question != "newest" || recent[1].Question != "middle" {
		t.Fatalf("Expected newest first, got %q then %q", recent[0].Question, recent[1].Question)
	}
}

func TestGetRecentConversationsInvalidLimit(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	if _, err := repos.Conversations.GetRecentConversations(context.Background(), 0); err == nil {
		t.Fatal("Expected error for zero limit")
	}
}

func TestGetConversationsBySession(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	for _, entry := range []struct {
		session  string
		question string
	}{
		{"sess-a", "first question"},
		{"sess-b", "other session"},
		{"sess-a", "second question"},
	} {
		_, err := repos.Conversations.AddConversation(ctx, &core.Conversation{
			SessionId: entry.session,
			Question:  entry.question,
		})
		if err != nil {
			t.Fatalf("Failed to add conversation: %v", err)
		}
	}

	got, err := repos.Conversations.GetConversationsBySession(ctx, "sess-a")
	if err != nil {
		t.Fatalf("Failed to get session conversations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(got))
	}
	if got[0].Question != "first question" || got[1].Question != "second question" {
		t.Fatalf("Expected creation order, got %q then %q", got[0].Question, got[1].Question)
	}
}
