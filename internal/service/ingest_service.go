package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"lumir-agentic-be/internal/dto"
	"lumir-agentic-be/internal/pkg/logger"
	repo "lumir-agentic-be/internal/repository/memory"
	"lumir-agentic-be/pkg/events"
	"lumir-agentic-be/pkg/ingest"
	"lumir-agentic-be/pkg/nats"
)

type IIngestService interface {
	// Enqueue validates the request, registers a job and publishes it for
	// the background consumer.
	Enqueue(ctx context.Context, req *dto.IngestDocumentsRequest) (*dto.IngestDocumentsResponse, error)

	// GetJob returns the current job record, nil when unknown or expired.
	GetJob(jobID string) *dto.IngestJobResponse

	// Consume starts draining the ingest topic until ctx is done.
	Consume(ctx context.Context) error
}

type ingestService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	pipeline  *ingest.Pipeline
	jobs      *repo.JobRepository
	publisher *nats.Publisher
	log       logger.ILogger
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	pipeline *ingest.Pipeline,
	jobs *repo.JobRepository,
	publisher *nats.Publisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		pubSub:    pubSub,
		topicName: topicName,
		pipeline:  pipeline,
		jobs:      jobs,
		publisher: publisher,
		log:       log,
	}
}

func (s *ingestService) Enqueue(ctx context.Context, req *dto.IngestDocumentsRequest) (*dto.IngestDocumentsResponse, error) {
	cleaned, err := ingest.ValidateInputs(req.SessionID, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	job := &repo.IngestJob{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Status:    repo.JobQueued,
	}
	s.jobs.Save(job)

	payload, err := json.Marshal(dto.IngestJobMessage{
		JobID:       job.ID,
		SessionID:   req.SessionID,
		DocumentIDs: cleaned,
	})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		job.Status = repo.JobFailed
		job.Error = err.Error()
		s.jobs.Save(job)
		return nil, err
	}

	s.log.Info("ingest", "job enqueued", map[string]interface{}{
		"job_id":     job.ID,
		"session_id": req.SessionID,
		"documents":  len(cleaned),
	})
	return &dto.IngestDocumentsResponse{
		JobID:     job.ID,
		SessionID: req.SessionID,
		Status:    job.Status,
	}, nil
}

func (s *ingestService) GetJob(jobID string) *dto.IngestJobResponse {
	job, found := s.jobs.Get(jobID)
	if !found {
		return nil
	}
	return &dto.IngestJobResponse{
		JobID:     job.ID,
		SessionID: job.SessionID,
		Status:    job.Status,
		Result:    job.Result,
		Error:     job.Error,
	}
}

func (s *ingestService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.log.Error("ingest", "failed to unmarshal job message", map[string]interface{}{"error": err.Error()})
		// Ack malformed messages so they are not redelivered forever.
		msg.Ack()
		return
	}

	job, found := s.jobs.Get(payload.JobID)
	if !found {
		job = &repo.IngestJob{ID: payload.JobID, SessionID: payload.SessionID}
	}
	job.Status = repo.JobRunning
	s.jobs.Save(job)

	s.log.Info("ingest", "job started", map[string]interface{}{
		"job_id":    payload.JobID,
		"documents": len(payload.DocumentIDs),
	})

	result := s.pipeline.ProcessDocuments(ctx, payload.SessionID, payload.DocumentIDs)
	job.Result = &result

	if result.Success {
		job.Status = repo.JobCompleted
		s.publishEvent(ctx, events.NewIngestionCompleted(job.ID, job.SessionID, result.DocumentsProcessed, result.UploadedChunks))
	} else {
		job.Status = repo.JobFailed
		if len(result.Errors) > 0 {
			job.Error = result.Errors[0]
		}
		s.publishEvent(ctx, events.NewIngestionFailed(job.ID, job.SessionID, job.Error))
	}
	s.jobs.Save(job)

	s.log.Info("ingest", "job finished", map[string]interface{}{
		"job_id":  job.ID,
		"status":  job.Status,
		"chunks":  result.UploadedChunks,
		"elapsed": result.Timing["total"],
	})
	msg.Ack()
}

func (s *ingestService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("ingest", "failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
