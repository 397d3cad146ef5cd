package awsclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides every service endpoint (localstack, minio).
	Endpoint string
}

// New builds the shared session for S3, Bedrock and Transcribe clients. Static
// keys win when both are set; otherwise the default credential chain applies.
func New(opts Options) (*session.Session, error) {
	cfg := aws.NewConfig().
		WithRegion(opts.Region).
		WithHTTPClient(&http.Client{Timeout: 120 * time.Second})
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, ""))
	}
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session failed: %w", err)
	}
	return sess, nil
}
