package chat

import "errors"

var (
	// ErrRetrieverRequired indicates a Responder was created without a retriever.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrCompleterRequired indicates a Responder was created without a completer.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrConversationRepositoryRequired indicates a Responder was created
	// without a conversation repository.
	ErrConversationRepositoryRequired = errors.New("conversation repository is required")

	// ErrEmptyQuestion indicates an answer was requested for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrInvalidContextLimit indicates an assembler was created with a
	// non-positive context length cap.
	ErrInvalidContextLimit = errors.New("invalid context limit")
)
