package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/aliskhannn/image-versioner/internal/model"
)

type call struct {
	bucket string
	key    string
}

type fakeService struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error
}

func (f *fakeService) Process(_ context.Context, bucket, key string) (model.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{bucket: bucket, key: key})
	if err := f.fail[key]; err != nil {
		return model.Result{}, err
	}
	return model.Result{Bucket: bucket, SourceKey: key}, nil
}

func record(eventName, bucket, key string) events.S3EventRecord {
	return events.S3EventRecord{
		EventName: eventName,
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	}
}

func TestHandleEventDecodesKeys(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc)

	event := events.S3Event{Records: []events.S3EventRecord{
		record("ObjectCreated:Put", "media", "uploads/summer+trip/photo_001.jpg"),
	}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(svc.calls))
	}
	if svc.calls[0].bucket != "media" || svc.calls[0].key != "uploads/summer trip/photo_001.jpg" {
		t.Fatalf("unexpected call %+v", svc.calls[0])
	}
}

func TestHandleEventSkipsOtherEventsAndDerivatives(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, "thumb", "web")

	event := events.S3Event{Records: []events.S3EventRecord{
		record("ObjectRemoved:Delete", "media", "uploads/photo_001.jpg"),
		record("s3:ObjectCreated:Put", "media", "uploads/thumb_001.jpg"),
		record("s3:ObjectCreated:Put", "media", "uploads/web_001.jpg"),
		record("s3:ObjectCreated:Put", "media", "uploads/photo_002.jpg"),
	}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if len(svc.calls) != 1 || svc.calls[0].key != "uploads/photo_002.jpg" {
		t.Fatalf("expected only the original upload to be processed, got %+v", svc.calls)
	}
}

func TestHandleEventReportsFailures(t *testing.T) {
	svc := &fakeService{fail: map[string]error{
		"uploads/report.pdf": model.ErrUnsupportedMediaType,
	}}
	h := NewHandler(svc)

	event := events.S3Event{Records: []events.S3EventRecord{
		record("ObjectCreated:Put", "media", "uploads/report.pdf"),
		record("ObjectCreated:Put", "media", "uploads/photo_001.jpg"),
	}}

	err := h.HandleEvent(context.Background(), event)
	if !errors.Is(err, model.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType to surface, got %v", err)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("expected remaining records to still be processed, got %d calls", len(svc.calls))
	}
}

func TestHandleEventTreatsDerivedSourcesAsDone(t *testing.T) {
	svc := &fakeService{fail: map[string]error{
		"uploads/web_001.jpg": fmt.Errorf("%w: web", model.ErrDerivedSource),
	}}
	h := NewHandler(svc)

	event := events.S3Event{Records: []events.S3EventRecord{
		record("s3:ObjectCreated:Put", "media", "uploads/web_001.jpg"),
		record("s3:ObjectCreated:Put", "media", "uploads/web_banner.jpg"),
	}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if len(svc.calls) != 2 || svc.calls[1].key != "uploads/web_banner.jpg" {
		t.Fatalf("expected both records to reach the service, got %+v", svc.calls)
	}
}
