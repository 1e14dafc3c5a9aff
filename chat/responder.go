// Copyright 2025 Practical AI & ML
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/practicalaiml/askdocs/ai"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// DefaultHistoryLimit is the number of prior exchanges from the same
// session included with each completion.
const DefaultHistoryLimit = 10

// Retriever finds chunks relevant to a question. *search.Searcher
// satisfies this interface.
type Retriever interface {
	FindRelevant(ctx context.Context, query string) ([]*core.ScoredChunk, error)
}

// Answer is the result of a single chat exchange.
type Answer struct {
	Text       string
	ChunksUsed int
	Fallback   bool
}

// Responder answers customer questions from the knowledge base. It
// retrieves relevant chunks, assembles them into a grounded system prompt,
// invokes the completion model once, and records the exchange.
type Responder struct {
	retriever     Retriever
	completer     ai.Completer
	conversations storage.ConversationRepository
	assembler     *Assembler
	historyLimit  int
	logger        *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithAssembler sets a custom context assembler.
// Default is DefaultAssembler().
func WithAssembler(assembler *Assembler) Option {
	return func(r *Responder) error {
		if assembler == nil {
			return fmt.Errorf("assembler cannot be nil")
		}
		r.assembler = assembler
		return nil
	}
}

// WithHistoryLimit sets how many prior exchanges from the session are
// included with each completion. Zero disables history.
// Default is DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(r *Responder) error {
		if limit < 0 {
			return fmt.Errorf("history limit cannot be negative, got %d", limit)
		}
		r.historyLimit = limit
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// NewResponder creates a Responder over the given retriever, completion
// service, and conversation log.
func NewResponder(retriever Retriever, completer ai.Completer, conversations storage.ConversationRepository, opts ...Option) (*Responder, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if conversations == nil {
		return nil, ErrConversationRepositoryRequired
	}

	r := &Responder{
		retriever:     retriever,
		completer:     completer,
		conversations: conversations,
		assembler:     DefaultAssembler(),
		historyLimit:  DefaultHistoryLimit,
		logger:        slog.Default().With("component", "responder"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Respond answers a question, grounding the completion in retrieved chunks
// when available and in the static fallback context otherwise. A failed
// similarity search degrades to the fallback path rather than failing the
// request; a failed completion is returned to the caller wrapped in
// ai.ErrGenerationFailed. Every invocation, successful or not, is recorded
// in the conversation log with the number of chunks used.
func (r *Responder) Respond(ctx context.Context, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	chunks, err := r.retriever.FindRelevant(ctx, question)
	if err != nil {
		r.logger.Warn("similarity search failed, answering from fallback context",
			"session_id", sessionID,
			"error", err)
		chunks = nil
	}

	contextBlock, used, fallback := r.assembler.Assemble(chunks)
	system := systemPrompt(contextBlock, fallback)
	if transcript := r.sessionTranscript(ctx, sessionID); transcript != "" {
		system += "\n\n" + transcript
	}

	text, err := r.completer.Complete(ctx, system, question)
	r.record(ctx, sessionID, question, text, used)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("answered question",
		"session_id", sessionID,
		"chunks_used", used,
		"fallback", fallback)

	return &Answer{Text: text, ChunksUsed: used, Fallback: fallback}, nil
}

// sessionTranscript renders the most recent exchanges of the session as a
// transcript block for the system prompt. History failures are logged and
// ignored; a missing transcript never fails an answer.
func (r *Responder) sessionTranscript(ctx context.Context, sessionID string) string {
	if sessionID == "" || r.historyLimit == 0 {
		return ""
	}

	convs, err := r.conversations.GetConversationsBySession(ctx, sessionID)
	if err != nil {
		r.logger.Warn("failed to load session history",
			"session_id", sessionID,
			"error", err)
		return ""
	}
	if len(convs) == 0 {
		return ""
	}
	if len(convs) > r.historyLimit {
		convs = convs[len(convs)-r.historyLimit:]
	}

	var sb strings.Builder
	sb.WriteString("Recent conversation with this customer:\n\n")
	for _, conv := range convs {
		fmt.Fprintf(&sb, "Customer: %s\n", conv.Question)
		if conv.Answer != "" {
			fmt.Fprintf(&sb, "Assistant: %s\n", conv.Answer)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// record appends the exchange to the conversation log. Logging failures
// are reported but never fail the answer.
func (r *Responder) record(ctx context.Context, sessionID, question, answer string, chunksUsed int) {
	_, err := r.conversations.AddConversation(ctx, &core.Conversation{
		SessionId:  sessionID,
		Question:   question,
		Answer:     answer,
		ChunksUsed: chunksUsed,
	})
	if err != nil {
		r.logger.Warn("failed to record conversation",
			"session_id", sessionID,
			"error", err)
	}
}
