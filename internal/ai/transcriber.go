package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
)

// Upstream transcription job states.
const (
	TranscriptionQueued     = transcribeservice.TranscriptionJobStatusQueued
	TranscriptionInProgress = transcribeservice.TranscriptionJobStatusInProgress
	TranscriptionCompleted  = transcribeservice.TranscriptionJobStatusCompleted
	TranscriptionFailed     = transcribeservice.TranscriptionJobStatusFailed
)

type TranscriptionRequest struct {
	JobName      string
	MediaURI     string
	MediaFormat  string
	LanguageCode string
}

type TranscriptionStatus struct {
	State         string
	TranscriptURI string
	FailureReason string
}

type Transcriber interface {
	Start(ctx context.Context, req TranscriptionRequest) error
	Status(ctx context.Context, jobName string) (TranscriptionStatus, error)
	FetchTranscript(ctx context.Context, transcriptURI string) (string, error)
}

// AWSTranscriber drives Amazon Transcribe batch jobs.
type AWSTranscriber struct {
	client     *transcribeservice.TranscribeService
	httpClient *http.Client
}

func NewAWSTranscriber(sess *session.Session) *AWSTranscriber {
	return &AWSTranscriber{
		client:     transcribeservice.New(sess),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *AWSTranscriber) Start(ctx context.Context, req TranscriptionRequest) error {
	_, err := t.client.StartTranscriptionJobWithContext(ctx, &transcribeservice.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.JobName),
		Media:                &transcribeservice.Media{MediaFileUri: aws.String(req.MediaURI)},
		MediaFormat:          aws.String(req.MediaFormat),
		LanguageCode:         aws.String(req.LanguageCode),
	})
	if err != nil {
		return fmt.Errorf("start transcription job %s failed: %w", req.JobName, err)
	}
	return nil
}

func (t *AWSTranscriber) Status(ctx context.Context, jobName string) (TranscriptionStatus, error) {
	out, err := t.client.GetTranscriptionJobWithContext(ctx, &transcribeservice.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return TranscriptionStatus{}, fmt.Errorf("get transcription job %s failed: %w", jobName, err)
	}
	job := out.TranscriptionJob
	if job == nil {
		return TranscriptionStatus{}, fmt.Errorf("transcription job %s missing from response", jobName)
	}
	status := TranscriptionStatus{
		State:         aws.StringValue(job.TranscriptionJobStatus),
		FailureReason: aws.StringValue(job.FailureReason),
	}
	if job.Transcript != nil {
		status.TranscriptURI = aws.StringValue(job.Transcript.TranscriptFileUri)
	}
	return status, nil
}

// FetchTranscript downloads the transcript document and returns its first
// transcript text.
func (t *AWSTranscriber) FetchTranscript(ctx context.Context, transcriptURI string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transcriptURI, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request failed: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcript response status %d", resp.StatusCode)
	}
	return ParseTranscriptDocument(raw)
}

func ParseTranscriptDocument(raw []byte) (string, error) {
	var doc struct {
		Results struct {
			Transcripts []struct {
				Transcript string `json:"transcript"`
			} `json:"transcripts"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse transcript json failed: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", errors.New("transcript document has no transcripts")
	}
	return doc.Results.Transcripts[0].Transcript, nil
}
