package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docgen/internal/domain"
	"docgen/internal/pipeline"
)

// stubSubscriber hands out one fixed delivery channel and closes it when the
// subscription context ends.
type stubSubscriber struct {
	ch        chan *message.Message
	err       error
	closeOnce sync.Once
}

func newStubSubscriber(buffer int) *stubSubscriber {
	return &stubSubscriber{ch: make(chan *message.Message, buffer)}
}

func (s *stubSubscriber) Subscribe(ctx context.Context, _ string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	go func() {
		<-ctx.Done()
		s.closeOnce.Do(func() { close(s.ch) })
	}()
	return s.ch, nil
}

func (s *stubSubscriber) Close() error { return nil }

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*message.Message
}

func (p *capturePublisher) Publish(_ string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, messages...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) responses(t *testing.T) []GenerationResponse {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]GenerationResponse, 0, len(p.msgs))
	for _, m := range p.msgs {
		var resp GenerationResponse
		if err := json.Unmarshal(m.Payload, &resp); err != nil {
			t.Fatalf("decode published response: %v", err)
		}
		out = append(out, resp)
	}
	return out
}

type stubOrchestrator struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	peak     int
	block    chan struct{}
	err      error
	result   func(req pipeline.Request) *pipeline.Result
}

func (o *stubOrchestrator) Process(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	o.mu.Lock()
	o.calls++
	o.inFlight++
	if o.inFlight > o.peak {
		o.peak = o.inFlight
	}
	o.mu.Unlock()

	if o.block != nil {
		<-o.block
	}

	o.mu.Lock()
	o.inFlight--
	o.mu.Unlock()

	if o.err != nil {
		return nil, o.err
	}
	if o.result != nil {
		return o.result(req), nil
	}
	return &pipeline.Result{
		Document: &domain.Document{ID: 1, Status: domain.StatusCompleted},
		Artifacts: []domain.Artifact{
			{Format: "pdf", FileName: "doc.pdf", StoragePath: "t/documents/1/1/doc.pdf"},
		},
	}, nil
}

func validPayload(correlationID *uuid.UUID) []byte {
	req := GenerationRequest{
		TenantID:         uuid.New(),
		ProjectID:        1,
		CorrelationID:    correlationID,
		Title:            "Doc",
		DocumentType:     "ieee830_srs",
		RequestedFormats: []string{"pdf"},
		RequestedBy:      9,
	}
	payload, _ := json.Marshal(req)
	return payload
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message nacked, want ack")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack")
	}
}

func waitNack(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Nacked():
	case <-msg.Acked():
		t.Fatal("message acked, want nack")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for nack")
	}
}

func startConsumer(t *testing.T, sub *stubSubscriber, pub *capturePublisher, orch Orchestrator, maxConcurrent int) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewConsumer(
		sub,
		NewResponsePublisher(pub, "results", zerolog.Nop()),
		orch,
		"requests",
		maxConcurrent,
		10*time.Millisecond,
		zerolog.Nop(),
	)

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("consumer did not stop after cancel")
		}
	})
	return cancel
}

func TestConsumerProcessesAndAcks(t *testing.T) {
	sub := newStubSubscriber(1)
	pub := &capturePublisher{}
	orch := &stubOrchestrator{}
	startConsumer(t, sub, pub, orch, 1)

	correlation := uuid.New()
	msg := message.NewMessage(NewULID(), validPayload(&correlation))
	sub.ch <- msg

	waitAck(t, msg)

	responses := pub.responses(t)
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	resp := responses[0]
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.RequestID != correlation.String() {
		t.Fatalf("request_id = %q, want correlation id", resp.RequestID)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].Reference != "t/documents/1/1/doc.pdf" {
		t.Fatalf("documents = %+v", resp.Documents)
	}
}

func TestConsumerFailedJobPublishesErrorAndAcks(t *testing.T) {
	sub := newStubSubscriber(1)
	pub := &capturePublisher{}
	msgText := "Rendering failed: boom"
	orch := &stubOrchestrator{
		result: func(pipeline.Request) *pipeline.Result {
			return &pipeline.Result{
				Document: &domain.Document{ID: 1, Status: domain.StatusFailed, ErrorMessage: &msgText},
			}
		},
	}
	startConsumer(t, sub, pub, orch, 1)

	msg := message.NewMessage(NewULID(), validPayload(nil))
	sub.ch <- msg
	waitAck(t, msg)

	responses := pub.responses(t)
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if responses[0].Status != "error" || responses[0].Error != msgText {
		t.Fatalf("response = %+v", responses[0])
	}
	if responses[0].RequestID == "" {
		t.Fatal("request_id must be generated when no correlation id is present")
	}
}

func TestConsumerInvalidPayloadAcked(t *testing.T) {
	sub := newStubSubscriber(1)
	pub := &capturePublisher{}
	orch := &stubOrchestrator{}
	startConsumer(t, sub, pub, orch, 1)

	msg := message.NewMessage(NewULID(), []byte("{not json"))
	sub.ch <- msg
	waitAck(t, msg)

	if orch.calls != 0 {
		t.Fatalf("orchestrator ran %d times for an undecodable payload", orch.calls)
	}
	responses := pub.responses(t)
	if len(responses) != 1 || responses[0].Status != "error" {
		t.Fatalf("responses = %+v", responses)
	}
}

func TestConsumerPipelineErrorNacks(t *testing.T) {
	sub := newStubSubscriber(1)
	pub := &capturePublisher{}
	orch := &stubOrchestrator{err: errors.New("db down")}
	startConsumer(t, sub, pub, orch, 1)

	msg := message.NewMessage(NewULID(), validPayload(nil))
	sub.ch <- msg
	waitNack(t, msg)

	if len(pub.responses(t)) != 0 {
		t.Fatal("no response must be published when the outcome is unrecorded")
	}
}

func TestConsumerBoundsConcurrency(t *testing.T) {
	const total = 6
	const limit = 2

	sub := newStubSubscriber(total)
	pub := &capturePublisher{}
	orch := &stubOrchestrator{block: make(chan struct{})}
	startConsumer(t, sub, pub, orch, limit)

	msgs := make([]*message.Message, 0, total)
	for i := 0; i < total; i++ {
		msg := message.NewMessage(NewULID(), validPayload(nil))
		msgs = append(msgs, msg)
		sub.ch <- msg
	}

	// Let the consumer saturate the semaphore before unblocking.
	deadline := time.Now().Add(2 * time.Second)
	for {
		orch.mu.Lock()
		inFlight := orch.inFlight
		orch.mu.Unlock()
		if inFlight == limit {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("in-flight = %d, want %d", inFlight, limit)
		}
		time.Sleep(time.Millisecond)
	}
	close(orch.block)

	for _, msg := range msgs {
		waitAck(t, msg)
	}

	orch.mu.Lock()
	defer orch.mu.Unlock()
	if orch.calls != total {
		t.Fatalf("calls = %d, want %d", orch.calls, total)
	}
	if orch.peak > limit {
		t.Fatalf("peak concurrency = %d, limit %d", orch.peak, limit)
	}
}

func TestConsumerBacksOffOnSubscribeError(t *testing.T) {
	sub := newStubSubscriber(0)
	sub.err = errors.New("broker unreachable")
	pub := &capturePublisher{}
	consumer := NewConsumer(
		sub,
		NewResponsePublisher(pub, "results", zerolog.Nop()),
		&stubOrchestrator{},
		"requests",
		1,
		5*time.Millisecond,
		zerolog.Nop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := consumer.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
}
