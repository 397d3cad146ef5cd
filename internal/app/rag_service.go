package app

import (
	"context"
	"fmt"
	"strings"

	"teachassist/internal/ai"
	"teachassist/internal/platform/logger"
)

const contextPreamble = "Based on the following information:\n\n"

// groundedTask is one retrieval-augmented generation call site.
type groundedTask struct {
	name        string
	query       string
	k           int
	prompt      func(contextBlock string) string
	maxTokens   int
	temperature float64
}

// RAGService answers prompts grounded in knowledge-base snippets. Every
// artifact, topic list and presentation outline goes through Answer.
type RAGService struct {
	retriever ai.Retriever
	generator ai.Generator
	log       *logger.Logger
}

func NewRAGService(retriever ai.Retriever, generator ai.Generator, log *logger.Logger) *RAGService {
	return &RAGService{retriever: retriever, generator: generator, log: log}
}

func (s *RAGService) Answer(ctx context.Context, task groundedTask) (string, error) {
	snippets, err := s.retriever.Retrieve(ctx, task.query, task.k)
	if err != nil {
		s.log.Error("knowledge base retrieval failed", "task", task.name, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	prompt := task.prompt(BuildContextBlock(snippets))
	return s.Complete(ctx, task.name, ai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   task.maxTokens,
		Temperature: task.temperature,
		TopP:        1.0,
	})
}

// Complete runs a plain generation call with no retrieval step.
func (s *RAGService) Complete(ctx context.Context, name string, req ai.GenerateRequest) (string, error) {
	text, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.log.Error("text generation failed", "task", name, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(text), nil
}

// BuildContextBlock lists each snippet as a "- " line; binary snippets are
// labelled by content type.
func BuildContextBlock(snippets []ai.Snippet) string {
	var sb strings.Builder
	sb.WriteString(contextPreamble)
	for _, sn := range snippets {
		if sn.Text != "" {
			sb.WriteString("- " + sn.Text + "\n")
			continue
		}
		contentType := sn.ContentType
		if contentType == "" {
			contentType = "unknown"
		}
		sb.WriteString("- [Content of type: " + contentType + "]\n")
	}
	return sb.String()
}
