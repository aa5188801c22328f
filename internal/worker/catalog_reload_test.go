package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/exporter"
	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/model/modeltest"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/circuitbreaker"
)

type recordingSwapper struct {
	swaps   int
	catalog exporter.Catalog
}

func (s *recordingSwapper) Swap(catalog exporter.Catalog, _ *validation.Validator) {
	s.swaps++
	s.catalog = catalog
}

func contentFile(t *testing.T, id string) *fstest.MapFile {
	t.Helper()
	data, err := json.Marshal(modeltest.ValidContent(id))
	require.NoError(t, err)
	return &fstest.MapFile{Data: data}
}

func TestReload_SwapsCompleteTree(t *testing.T) {
	fsys := fstest.MapFS{
		"dermatology/catalog.toml": {Data: []byte("specialty = \"dermatology\"\nid_prefixes = [\"dermatology-\"]\n")},
		"dermatology/acne.json":    contentFile(t, "dermatology-acne"),
	}
	target := &recordingSwapper{}
	w := NewCatalogReloadWorker(fsys, target, CatalogReloadConfig{Interval: time.Minute}, nil, nil)

	require.NoError(t, w.Reload(context.Background()))
	require.Equal(t, 1, target.swaps)
	c, err := target.catalog.GetByID("dermatology-acne")
	require.NoError(t, err)
	assert.Equal(t, "dermatology", c.Specialty)
}

func TestReload_KeepsPreviousOnFailure(t *testing.T) {
	target := &recordingSwapper{}

	broken := NewCatalogReloadWorker(fstest.MapFS{
		"acne.json": contentFile(t, "dermatology-acne"),
		"bad.yaml":  {Data: []byte("id: [oops")},
	}, target, CatalogReloadConfig{}, nil, nil)
	assert.Error(t, broken.Reload(context.Background()))

	duplicate := NewCatalogReloadWorker(fstest.MapFS{
		"a/acne.json": contentFile(t, "dermatology-acne"),
		"b/acne.json": contentFile(t, "dermatology-acne"),
	}, target, CatalogReloadConfig{}, nil, nil)
	assert.Error(t, duplicate.Reload(context.Background()))

	assert.Zero(t, target.swaps)
}

type countingSink struct {
	calls int
	err   error
	last  *model.CatalogSnapshot
}

func (s *countingSink) Name() string { return "redis" }

func (s *countingSink) Publish(_ context.Context, snapshot *model.CatalogSnapshot) error {
	s.calls++
	s.last = snapshot
	return s.err
}

func TestReload_NotifiesAfterSwap(t *testing.T) {
	fsys := fstest.MapFS{"acne.json": contentFile(t, "dermatology-acne")}
	target := &recordingSwapper{}
	sink := &countingSink{}
	w := NewCatalogReloadWorker(fsys, target, CatalogReloadConfig{}, nil, nil).WithNotifier(sink)

	require.NoError(t, w.Reload(context.Background()))
	assert.Equal(t, 1, target.swaps)
	require.Equal(t, 1, sink.calls)
	assert.False(t, sink.last.Strict)
	require.Len(t, sink.last.Entries, 1)
	assert.Equal(t, "dermatology-acne", sink.last.Entries[0].Content.ID)

	_ = NewCatalogReloadWorker(fstest.MapFS{"bad.yaml": {Data: []byte("id: [oops")}}, target, CatalogReloadConfig{}, nil, nil).
		WithNotifier(sink).
		Reload(context.Background())
	assert.Equal(t, 1, sink.calls, "a skipped reload sends no notice")
}

func TestReload_BreakerStopsNoticesToFailingBroker(t *testing.T) {
	fsys := fstest.MapFS{"acne.json": contentFile(t, "dermatology-acne")}
	target := &recordingSwapper{}
	broker := &countingSink{err: errors.New("connection refused")}
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "reload-notice",
		MaxFailures: 2,
		Timeout:     time.Hour,
	})
	w := NewCatalogReloadWorker(fsys, target, CatalogReloadConfig{}, nil, nil).
		WithNotifier(exporter.Guard(broker, cb))

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Reload(context.Background()), "notice failures do not fail the reload")
	}

	assert.Equal(t, 5, target.swaps)
	assert.Equal(t, 2, broker.calls)
	assert.Equal(t, "open", cb.State())
}

func TestStart_StopsOnCancel(t *testing.T) {
	target := &recordingSwapper{}
	w := NewCatalogReloadWorker(fstest.MapFS{}, target, CatalogReloadConfig{Interval: time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
