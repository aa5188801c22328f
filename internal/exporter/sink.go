package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/repository"
	"github.com/jwalitptl/edu-content/pkg/circuitbreaker"
	"github.com/jwalitptl/edu-content/pkg/messaging"
)

// Sink receives published snapshots.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snapshot *model.CatalogSnapshot) error
}

// FileSink writes the snapshot as an indented JSON bundle. The file is
// replaced atomically.
type FileSink struct {
	Path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Publish(ctx context.Context, snapshot *model.CatalogSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("move snapshot into place: %w", err)
	}
	return nil
}

// RepositorySink stores the snapshot through a SnapshotRepository.
type RepositorySink struct {
	repo repository.SnapshotRepository
}

func NewRepositorySink(repo repository.SnapshotRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Name() string { return "postgres" }

func (s *RepositorySink) Publish(ctx context.Context, snapshot *model.CatalogSnapshot) error {
	return s.repo.Save(ctx, snapshot)
}

// CatalogPublished is the payload of a catalog publication notice.
type CatalogPublished struct {
	SnapshotID uuid.UUID             `json:"snapshot_id"`
	Strict     bool                  `json:"strict"`
	Summary    model.SnapshotSummary `json:"summary"`
	ContentIDs []string              `json:"content_ids"`
}

// BrokerSink announces a snapshot on a message channel. Entries are not
// sent; subscribers fetch them from the durable sinks.
type BrokerSink struct {
	broker  messaging.Broker
	channel string
	event   string
}

func NewBrokerSink(broker messaging.Broker, channel string) *BrokerSink {
	if channel == "" {
		channel = messaging.CatalogChannel
	}
	return &BrokerSink{broker: broker, channel: channel, event: messaging.EventCatalogPublished}
}

// WithEvent sets the message type the sink announces with.
func (s *BrokerSink) WithEvent(eventType string) *BrokerSink {
	s.event = eventType
	return s
}

func (s *BrokerSink) Name() string { return "redis" }

func (s *BrokerSink) Publish(ctx context.Context, snapshot *model.CatalogSnapshot) error {
	ids := make([]string, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		ids = append(ids, e.Content.ID)
	}
	msg := messaging.NewMessage(s.event, CatalogPublished{
		SnapshotID: snapshot.ID,
		Strict:     snapshot.Strict,
		Summary:    snapshot.Summary,
		ContentIDs: ids,
	})
	return s.broker.Publish(ctx, s.channel, msg)
}

type guardedSink struct {
	Sink
	cb *circuitbreaker.CircuitBreaker
}

// Guard runs every publish of s through cb.
func Guard(s Sink, cb *circuitbreaker.CircuitBreaker) Sink {
	return &guardedSink{Sink: s, cb: cb}
}

func (g *guardedSink) Publish(ctx context.Context, snapshot *model.CatalogSnapshot) error {
	return g.cb.Execute(func() error {
		return g.Sink.Publish(ctx, snapshot)
	})
}
