package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
)

const anthropicVersion = "bedrock-2023-05-31"

type bedrockInvoker interface {
	InvokeModelWithContext(ctx aws.Context, input *bedrockruntime.InvokeModelInput, opts ...request.Option) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockGenerator invokes one Anthropic model on Bedrock. Claude 3 models
// take the messages body; claude-v2 and claude-instant take the legacy
// "\n\nHuman: ... \n\nAssistant:" text-completion body.
type BedrockGenerator struct {
	client  bedrockInvoker
	modelID string
}

func NewBedrockGenerator(sess *session.Session, modelID string) *BedrockGenerator {
	return &BedrockGenerator{client: bedrockruntime.New(sess), modelID: modelID}
}

func (g *BedrockGenerator) ModelID() string {
	return g.modelID
}

func (g *BedrockGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, legacy, err := buildAnthropicBody(g.modelID, req)
	if err != nil {
		return "", err
	}

	out, err := g.client.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model %s failed: %w", g.modelID, err)
	}

	text, err := parseAnthropicBody(out.Body, legacy)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func isLegacyAnthropic(modelID string) bool {
	return strings.HasPrefix(modelID, "anthropic.claude-v2") ||
		strings.HasPrefix(modelID, "anthropic.claude-instant")
}

func buildAnthropicBody(modelID string, req GenerateRequest) ([]byte, bool, error) {
	topP := req.TopP
	if topP == 0 {
		topP = 1.0
	}

	var payload map[string]interface{}
	legacy := isLegacyAnthropic(modelID)
	if legacy {
		payload = map[string]interface{}{
			"prompt":               "\n\nHuman: " + req.Prompt + "\n\nAssistant:",
			"max_tokens_to_sample": req.MaxTokens,
			"temperature":          req.Temperature,
			"top_p":                topP,
			"stop_sequences":       append([]string{"\n\nHuman:"}, req.StopSequences...),
		}
	} else {
		payload = map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        req.MaxTokens,
			"temperature":       req.Temperature,
			"top_p":             topP,
			"messages": []map[string]interface{}{
				{
					"role":    "user",
					"content": []map[string]string{{"type": "text", "text": req.Prompt}},
				},
			},
		}
		if len(req.StopSequences) > 0 {
			payload["stop_sequences"] = req.StopSequences
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal bedrock request failed: %w", err)
	}
	return body, legacy, nil
}

func parseAnthropicBody(raw []byte, legacy bool) (string, error) {
	if legacy {
		var parsed struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("parse bedrock completion failed: %w", err)
		}
		return parsed.Completion, nil
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse bedrock messages response failed: %w", err)
	}
	var sb strings.Builder
	for _, part := range parsed.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
