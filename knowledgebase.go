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


package askdocs

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/practicalaiml/askdocs/ai"
	"github.com/practicalaiml/askdocs/ai/openai"
	"github.com/practicalaiml/askdocs/chat"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/ingestion"
	"github.com/practicalaiml/askdocs/search"
	"github.com/practicalaiml/askdocs/storage"
	"github.com/practicalaiml/askdocs/storage/badger"
	"github.com/practicalaiml/askdocs/storage/disk"
)

// KnowledgeBase bundles storage, file handling, and AI services behind one
// handle. It is the integration point the server, watcher, and CLI build on.
type KnowledgeBase struct {
	repos    *badger.Repositories
	files    storage.FileStore
	provider ai.AIProvider
	logger   *slog.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*knowledgeBaseOptions)

type knowledgeBaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(config *ai.Config) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing the
// OpenAI-backed one. Used with mock providers in tests.
func WithProvider(provider ai.AIProvider) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.provider = provider
	}
}

// NewKnowledgeBase opens (or creates) a knowledge base under dataDir. The
// badger database lives in dataDir/db and uploaded files in dataDir/files.
func NewKnowledgeBase(dataDir string, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	options := &knowledgeBaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.NewRepositories(filepath.Join(dataDir, "db"))
	if err != nil {
		return nil, err
	}

	files, err := disk.NewFileStore(filepath.Join(dataDir, "files"))
	if err != nil {
		repos.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	return &KnowledgeBase{
		repos:    repos,
		files:    files,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (kb *KnowledgeBase) Close() error {
	if err := kb.provider.Close(); err != nil {
		kb.logger.Error("error closing AI provider", "err", err)
	}
	if err := kb.repos.Close(); err != nil {
		kb.logger.Error("error closing repositories", "err", err)
		return err
	}
	return nil
}

func (kb *KnowledgeBase) Documents() storage.DocumentRepository {
	return kb.repos.Documents
}

func (kb *KnowledgeBase) Chunks() storage.ChunkRepository {
	return kb.repos.Chunks
}

func (kb *KnowledgeBase) Conversations() storage.ConversationRepository {
	return kb.repos.Conversations
}

func (kb *KnowledgeBase) Files() storage.FileStore {
	return kb.files
}

func (kb *KnowledgeBase) Provider() ai.AIProvider {
	return kb.provider
}

// UploadDocument stores the raw file and creates the document record in the
// uploaded state. Processing is a separate step.
func (kb *KnowledgeBase) UploadDocument(ctx context.Context, fileName, title, description, fileType string, content io.Reader) (*core.Document, error) {
	path, size, err := kb.files.Save(ctx, fileName, content)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = fileName
	}

	doc, err := kb.repos.Documents.AddDocument(ctx, &core.Document{
		Id:          uuid.New().String(),
		Title:       title,
		Description: description,
		FileName:    fileName,
		FilePath:    path,
		FileType:    fileType,
		FileSize:    size,
		Status:      core.StatusUploaded,
	})
	if err != nil {
		if delErr := kb.files.Delete(ctx, path); delErr != nil {
			kb.logger.Warn("failed to remove orphaned file", "path", path, "err", delErr)
		}
		return nil, err
	}
	return doc, nil
}

func (kb *KnowledgeBase) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(kb.repos.Documents, kb.repos.Chunks, kb.files, kb.provider.Embedder(), opts...)
}

func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(kb.repos.Chunks, kb.provider.Embedder(), opts...)
}

func (kb *KnowledgeBase) NewResponder(searcher *search.Searcher, opts ...chat.Option) (*chat.Responder, error) {
	return chat.NewResponder(searcher, kb.provider.Completer(), kb.repos.Conversations, opts...)
}
