package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/segmentio/kafka-go"
)

type fakeEvents struct {
	got []events.S3Event
	err error
}

func (f *fakeEvents) HandleEvent(_ context.Context, event events.S3Event) error {
	f.got = append(f.got, event)
	return f.err
}

const minioPayload = `{
  "EventName": "s3:ObjectCreated:Put",
  "Key": "media/uploads/photo_001.jpg",
  "Records": [{
    "eventVersion": "2.0",
    "eventSource": "minio:s3",
    "eventName": "s3:ObjectCreated:Put",
    "s3": {
      "bucket": {"name": "media"},
      "object": {"key": "uploads%2Fphoto_001.jpg", "size": 2048, "contentType": "image/jpeg"}
    }
  }]
}`

func TestHandleDecodesMinioNotification(t *testing.T) {
	f := &fakeEvents{}
	h := NewHandler(f)

	if err := h.Handle(context.Background(), kafka.Message{Value: []byte(minioPayload)}); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(f.got) != 1 || len(f.got[0].Records) != 1 {
		t.Fatalf("expected one event with one record, got %+v", f.got)
	}

	rec := f.got[0].Records[0]
	if rec.EventName != "s3:ObjectCreated:Put" {
		t.Fatalf("unexpected event name %q", rec.EventName)
	}
	if rec.S3.Bucket.Name != "media" || rec.S3.Object.Key != "uploads%2Fphoto_001.jpg" {
		t.Fatalf("unexpected record %+v", rec.S3)
	}
}

func TestHandleSkipsEmptyNotification(t *testing.T) {
	f := &fakeEvents{}
	h := NewHandler(f)

	if err := h.Handle(context.Background(), kafka.Message{Value: []byte(`{"EventName":"s3:TestEvent"}`)}); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(f.got) != 0 {
		t.Fatalf("expected no dispatch, got %d", len(f.got))
	}
}

func TestHandleErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		value string
		err error
	}{
		{name: "malformed json", value: `{"Records":`},
		{name: "handler failure", value: minioPayload, err: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeEvents{err: tt.err})
			err := h.Handle(context.Background(), kafka.Message{Value: []byte(tt.value)})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v in chain, got %v", tt.err, err)
			}
		})
	}
}
