package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"teachassist/internal/ai"
	"teachassist/internal/model"
	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

var errJobPending = errors.New("transcription job still running")

// TranscriptionJobStore persists job records. Lookups return nil, nil when
// the record does not exist.
type TranscriptionJobStore interface {
	Create(job *model.TranscriptionJob) error
	Update(job *model.TranscriptionJob) error
	GetByID(id uint) (*model.TranscriptionJob, error)
	LatestForVideo(subject, chapter, video string) (*model.TranscriptionJob, error)
	ListPending(limit int) ([]model.TranscriptionJob, error)
}

type TranscriptionOptions struct {
	MediaBucket  string
	LanguageCode string
	// Timeout bounds one wait when the caller passes none.
	Timeout     time.Duration
	PollInitial time.Duration
	PollMax     time.Duration
}

// TranscriptionService runs lecture transcription as an explicit polling task:
// SUBMITTED -> RUNNING -> COMPLETED | FAILED | TIMED_OUT. A timed-out job can
// be refreshed later without starting a new one.
type TranscriptionService struct {
	jobs        TranscriptionJobStore
	transcriber ai.Transcriber
	media       storage.Store
	opts        TranscriptionOptions
	log         *logger.Logger
	jobName     func(video string) string
}

func NewTranscriptionService(
	jobs TranscriptionJobStore,
	transcriber ai.Transcriber,
	media storage.Store,
	opts TranscriptionOptions,
	log *logger.Logger,
) *TranscriptionService {
	if opts.LanguageCode == "" {
		opts.LanguageCode = "en-US"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Minute
	}
	if opts.PollInitial <= 0 {
		opts.PollInitial = 2 * time.Second
	}
	if opts.PollMax <= 0 {
		opts.PollMax = 30 * time.Second
	}
	if opts.PollMax < opts.PollInitial {
		opts.PollMax = opts.PollInitial
	}
	return &TranscriptionService{
		jobs:        jobs,
		transcriber: transcriber,
		media:       media,
		opts:        opts,
		log:         log,
		jobName:     transcriptionJobName,
	}
}

// transcriptionJobName keeps only the characters Amazon Transcribe accepts.
func transcriptionJobName(video string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, path.Base(video))
	return fmt.Sprintf("transcribe_%s_%s", clean, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Start submits a transcription job for an uploaded lecture video.
func (s *TranscriptionService) Start(ctx context.Context, subject, chapter, video string, requestedBy uint) (*model.TranscriptionJob, error) {
	ref, err := VideoRef{Subject: subject, Chapter: chapter, Video: video}.validate()
	if err != nil {
		return nil, err
	}
	subject, chapter, video = ref.Subject, ref.Chapter, ref.Video
	key := videoKey(subject, chapter, video)
	exists, err := s.media.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: check video: %v", ErrUpstream, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: video %q", ErrNotFound, video)
	}

	job := &model.TranscriptionJob{
		JobName:     s.jobName(video),
		Subject:     subject,
		Chapter:     chapter,
		Video:       video,
		MediaURI:    fmt.Sprintf("s3://%s/%s", s.opts.MediaBucket, key),
		State:       model.JobSubmitted,
		RequestedBy: requestedBy,
	}
	err = s.transcriber.Start(ctx, ai.TranscriptionRequest{
		JobName:      job.JobName,
		MediaURI:     job.MediaURI,
		MediaFormat:  mediaFormat(video),
		LanguageCode: s.opts.LanguageCode,
	})
	if err != nil {
		s.log.Error("start transcription failed", "video", key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}
	s.log.Info("transcription submitted", "job", job.JobName, "video", key)
	return job, nil
}

// Transcribe submits a job and waits for it up to timeout.
func (s *TranscriptionService) Transcribe(ctx context.Context, subject, chapter, video string, requestedBy uint, timeout time.Duration) (*model.TranscriptionJob, error) {
	job, err := s.Start(ctx, subject, chapter, video, requestedBy)
	if err != nil {
		return nil, err
	}
	return s.Wait(ctx, job, timeout)
}

// Refresh polls a stored job again, for instance one that timed out.
func (s *TranscriptionService) Refresh(ctx context.Context, id uint, timeout time.Duration) (*model.TranscriptionJob, error) {
	job, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return job, nil
	}
	return s.Wait(ctx, job, timeout)
}

func (s *TranscriptionService) Get(id uint) (*model.TranscriptionJob, error) {
	job, err := s.jobs.GetByID(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Latest returns the newest job for a video, or nil.
func (s *TranscriptionService) Latest(subject, chapter, video string) (*model.TranscriptionJob, error) {
	return s.jobs.LatestForVideo(subject, chapter, video)
}

// ResumePending polls every job left SUBMITTED or RUNNING, for instance by a
// restart, once with a short wait. It returns how many reached a terminal
// state.
func (s *TranscriptionService) ResumePending(ctx context.Context, limit int) (int, error) {
	jobs, err := s.jobs.ListPending(limit)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range jobs {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		job, err := s.Wait(ctx, &jobs[i], s.opts.PollMax)
		if err != nil {
			s.log.Warn("resume transcription job failed", "job", jobs[i].JobName, "error", err)
			continue
		}
		if job.Terminal() {
			settled++
		}
	}
	if len(jobs) > 0 {
		s.log.Info("pending transcription jobs resumed", "checked", len(jobs), "settled", settled)
	}
	return settled, nil
}

// Wait polls the job with exponential backoff until it reaches a terminal
// state or timeout elapses; in the latter case the job is marked TIMED_OUT.
func (s *TranscriptionService) Wait(ctx context.Context, job *model.TranscriptionJob, timeout time.Duration) (*model.TranscriptionJob, error) {
	if timeout <= 0 {
		timeout = s.opts.Timeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.PollInitial
	policy.MaxInterval = s.opts.PollMax

	status, err := backoff.Retry(waitCtx, func() (ai.TranscriptionStatus, error) {
		job.Polls++
		st, err := s.transcriber.Status(waitCtx, job.JobName)
		if err != nil {
			s.log.Warn("transcription status poll failed", "job", job.JobName, "error", err)
			return st, err
		}
		switch st.State {
		case ai.TranscriptionCompleted, ai.TranscriptionFailed:
			return st, nil
		case ai.TranscriptionInProgress:
			job.State = model.JobRunning
		}
		return st, errJobPending
	}, backoff.WithBackOff(policy), backoff.WithMaxElapsedTime(timeout))

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		job.State = model.JobTimedOut
		if !errors.Is(err, errJobPending) && !errors.Is(err, context.DeadlineExceeded) {
			job.FailureReason = err.Error()
		}
		s.log.Warn("transcription wait timed out", "job", job.JobName, "timeout", timeout, "polls", job.Polls)
		return job, s.jobs.Update(job)
	}

	if status.State == ai.TranscriptionFailed {
		job.State = model.JobFailed
		job.FailureReason = status.FailureReason
		s.log.Error("transcription failed", "job", job.JobName, "reason", status.FailureReason)
		return job, s.jobs.Update(job)
	}

	if err := s.storeTranscript(ctx, job, status.TranscriptURI); err != nil {
		job.State = model.JobFailed
		job.FailureReason = err.Error()
		_ = s.jobs.Update(job)
		return job, err
	}
	return job, s.jobs.Update(job)
}

func (s *TranscriptionService) storeTranscript(ctx context.Context, job *model.TranscriptionJob, uri string) error {
	text, err := s.transcriber.FetchTranscript(ctx, uri)
	if err != nil {
		s.log.Error("fetch transcript failed", "job", job.JobName, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	key := lectureAssetKey(job.Subject, job.Chapter, job.Video, string(AssetTranscription), "txt")
	if err := s.media.Put(ctx, key, []byte(text), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("%w: save transcript: %v", ErrUpstream, err)
	}
	now := time.Now()
	job.State = model.JobCompleted
	job.TranscriptKey = key
	job.CompletedAt = &now
	s.log.Info("transcription completed", "job", job.JobName, "key", key, "polls", job.Polls)
	return nil
}

func mediaFormat(video string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(video), ".")); ext {
	case "mp4", "mov":
		return "mp4"
	case "":
		return "mp4"
	default:
		return ext
	}
}
