package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockagent"
	"github.com/aws/aws-sdk-go/service/bedrockagentruntime"
)

// Snippet is one ranked retrieval hit. Text is empty for binary content, in
// which case ContentType names the media type.
type Snippet struct {
	Text        string
	ContentType string
	Location    string
	Score       float64
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

// KnowledgeBase queries a Bedrock knowledge base.
type KnowledgeBase struct {
	client *bedrockagentruntime.BedrockAgentRuntime
	id     string
}

func NewKnowledgeBase(sess *session.Session, knowledgeBaseID string) *KnowledgeBase {
	return &KnowledgeBase{client: bedrockagentruntime.New(sess), id: knowledgeBaseID}
}

func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if kb.id == "" {
		return nil, errors.New("knowledge base id is not configured")
	}
	out, err := kb.client.RetrieveWithContext(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(kb.id),
		RetrievalQuery:  &bedrockagentruntime.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &bedrockagentruntime.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &bedrockagentruntime.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int64(int64(k)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve from knowledge base failed: %w", err)
	}

	snippets := make([]Snippet, 0, len(out.RetrievalResults))
	for _, res := range out.RetrievalResults {
		var s Snippet
		if res.Content != nil && res.Content.Text != nil {
			s.Text = aws.StringValue(res.Content.Text)
		} else {
			s.ContentType = "application/octet-stream"
		}
		if res.Location != nil && res.Location.S3Location != nil {
			s.Location = aws.StringValue(res.Location.S3Location.Uri)
		}
		s.Score = aws.Float64Value(res.Score)
		snippets = append(snippets, s)
	}
	return snippets, nil
}

type IngestionTrigger interface {
	StartIngestion(ctx context.Context) (string, error)
}

// Ingestor starts ingestion jobs on the knowledge base's S3 data source.
type Ingestor struct {
	client          *bedrockagent.BedrockAgent
	knowledgeBaseID string
	dataSourceID    string
}

func NewIngestor(sess *session.Session, knowledgeBaseID, dataSourceID string) *Ingestor {
	return &Ingestor{
		client:          bedrockagent.New(sess),
		knowledgeBaseID: knowledgeBaseID,
		dataSourceID:    dataSourceID,
	}
}

// StartIngestion returns the new ingestion job id.
func (i *Ingestor) StartIngestion(ctx context.Context) (string, error) {
	if i.knowledgeBaseID == "" || i.dataSourceID == "" {
		return "", errors.New("knowledge base or data source id is not configured")
	}
	out, err := i.client.StartIngestionJobWithContext(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(i.knowledgeBaseID),
		DataSourceId:    aws.String(i.dataSourceID),
	})
	if err != nil {
		return "", fmt.Errorf("start ingestion job failed: %w", err)
	}
	if out.IngestionJob == nil {
		return "", nil
	}
	return aws.StringValue(out.IngestionJob.IngestionJobId), nil
}
