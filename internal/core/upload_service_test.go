package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploads() *UploadService {
	return NewUploadService(NewBus(), zerolog.Nop(), time.Millisecond, 0)
}

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name string
		file FileCandidate
		ok   bool
	}{
		{"pdf", FileCandidate{Name: "manual.pdf", Size: 1024}, true},
		{"docx", FileCandidate{Name: "report.docx", Size: 2048}, true},
		{"uppercase ext", FileCandidate{Name: "NOTES.TXT", Size: 10}, true},
		{"executable", FileCandidate{Name: "a.exe", Size: 1024}, false},
		{"no extension", FileCandidate{Name: "README", Size: 10}, false},
		{"oversized", FileCandidate{Name: "a.pdf", Size: 60_000_000}, false},
		{"at limit", FileCandidate{Name: "a.pdf", Size: MaxUploadSize}, true},
		{"negative size", FileCandidate{Name: "a.pdf", Size: -5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidate(tt.file)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAddFilesRejectsIndividually(t *testing.T) {
	svc := newTestUploads()
	defer svc.Close()
	id := svc.CreateQueue()

	report, err := svc.AddFiles(id, []FileCandidate{
		{Name: "a.exe", Size: 1024},
		{Name: "a.pdf", Size: 60_000_000},
		{Name: "a.pdf", Size: 1024},
		{Name: "b.txt", Size: 2048},
	})
	require.NoError(t, err)

	require.Len(t, report.Rejected, 2)
	assert.Equal(t, "a.exe", report.Rejected[0].Name)
	assert.Contains(t, report.Rejected[0].Reason, "not allowed")
	assert.Contains(t, report.Rejected[1].Reason, "limit")

	snap, err := svc.Snapshot(id)
	require.NoError(t, err)
	require.Len(t, snap.Files, 2)
	assert.Equal(t, "a.pdf", snap.Files[0].Name)
	assert.Equal(t, "b.txt", snap.Files[1].Name)
}

func TestAddFilesRejectsNegativeSize(t *testing.T) {
	svc := newTestUploads()
	defer svc.Close()
	id := svc.CreateQueue()

	report, err := svc.AddFiles(id, []FileCandidate{{Name: "a.pdf", Size: -5}})
	require.NoError(t, err)
	assert.Empty(t, report.Accepted)
	require.Len(t, report.Rejected, 1)
	assert.Contains(t, report.Rejected[0].Reason, "invalid size")
}

func TestAddFilesAllowsDuplicates(t *testing.T) {
	svc := newTestUploads()
	defer svc.Close()
	id := svc.CreateQueue()

	_, err := svc.AddFiles(id, []FileCandidate{
		{Name: "a.pdf", Size: 100},
		{Name: "a.pdf", Size: 100},
	})
	require.NoError(t, err)

	snap, _ := svc.Snapshot(id)
	assert.Len(t, snap.Files, 2)
}

func TestRemoveFilePreservesOrder(t *testing.T) {
	svc := newTestUploads()
	defer svc.Close()
	id := svc.CreateQueue()
	_, err := svc.AddFiles(id, []FileCandidate{
		{Name: "a.pdf", Size: 100},
		{Name: "b.txt", Size: 200},
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFile(id, 0))

	snap, _ := svc.Snapshot(id)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "b.txt", snap.Files[0].Name)

	assert.ErrorIs(t, svc.RemoveFile(id, 5), ErrIndexOutOfRange)
	assert.ErrorIs(t, svc.RemoveFile(id, -1), ErrIndexOutOfRange)
}

func TestStartUploadPreconditions(t *testing.T) {
	svc := newTestUploads()
	defer svc.Close()
	id := svc.CreateQueue()

	assert.ErrorIs(t, svc.StartUpload(id, "manuals"), ErrQueueEmpty)

	_, err := svc.AddFiles(id, []FileCandidate{{Name: "a.pdf", Size: 100}})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.StartUpload(id, ""), ErrNoCategory)
	assert.ErrorIs(t, svc.StartUpload(id, "  "), ErrNoCategory)

	assert.ErrorIs(t, svc.StartUpload("nope", "manuals"), ErrQueueNotFound)
}

func TestUploadRunsToCompletionAndClears(t *testing.T) {
	bus := NewBus()
	var completed atomic.Int32
	bus.Subscribe(TopicUploadCompleted, func(Event) { completed.Add(1) })

	svc := NewUploadService(bus, zerolog.Nop(), time.Millisecond, 0)
	defer svc.Close()
	id := svc.CreateQueue()
	_, err := svc.AddFiles(id, []FileCandidate{
		{Name: "a.pdf", Size: 100},
		{Name: "b.txt", Size: 200},
		{Name: "c.doc", Size: 300},
	})
	require.NoError(t, err)

	require.NoError(t, svc.StartUpload(id, "manuals"))
	assert.ErrorIs(t, svc.StartUpload(id, "manuals"), ErrUploadInProgress)

	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(id)
		return err == nil && snap.Completed
	}, 2*time.Second, 2*time.Millisecond)

	snap, err := svc.Snapshot(id)
	require.NoError(t, err)
	assert.Empty(t, snap.Files, "pending list clears once every row completes")
	assert.False(t, snap.Uploading)
	assert.Equal(t, int32(1), completed.Load())
}

func TestBusHandlersMayCallBackIntoService(t *testing.T) {
	bus := NewBus()
	svc := NewUploadService(bus, zerolog.Nop(), time.Millisecond, 0)
	defer svc.Close()
	id := svc.CreateQueue()

	// Handlers that re-enter the service must not deadlock against the
	// queue lock held by the publishing call.
	var reentries atomic.Int32
	bus.Subscribe(TopicFileRejected, func(Event) {
		if _, err := svc.Snapshot(id); err == nil {
			reentries.Add(1)
		}
	})
	bus.Subscribe(TopicUploadCompleted, func(Event) {
		if _, err := svc.Snapshot(id); err == nil {
			reentries.Add(1)
		}
	})

	_, err := svc.AddFiles(id, []FileCandidate{
		{Name: "a.exe", Size: 10},
		{Name: "a.pdf", Size: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), reentries.Load())

	require.NoError(t, svc.StartUpload(id, "manuals"))
	require.Eventually(t, func() bool {
		snap, err := svc.Snapshot(id)
		return err == nil && snap.Completed
	}, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, int32(2), reentries.Load())
}

func TestProgressStaysInRange(t *testing.T) {
	svc := NewUploadService(NewBus(), zerolog.Nop(), 2*time.Millisecond, 0)
	defer svc.Close()
	id := svc.CreateQueue()
	_, err := svc.AddFiles(id, []FileCandidate{{Name: "a.pdf", Size: 100}})
	require.NoError(t, err)
	require.NoError(t, svc.StartUpload(id, "manuals"))

	deadline := time.After(time.Second)
	for {
		snap, err := svc.Snapshot(id)
		require.NoError(t, err)
		if snap.Completed {
			return
		}
		for _, f := range snap.Files {
			assert.GreaterOrEqual(t, f.Progress, 0)
			assert.LessOrEqual(t, f.Progress, 100)
		}
		select {
		case <-deadline:
			t.Fatal("upload never completed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCloseQueueCancelsTimers(t *testing.T) {
	svc := NewUploadService(NewBus(), zerolog.Nop(), 10*time.Millisecond, 0)
	id := svc.CreateQueue()
	_, err := svc.AddFiles(id, []FileCandidate{{Name: "a.pdf", Size: 100}})
	require.NoError(t, err)
	require.NoError(t, svc.StartUpload(id, "manuals"))

	svc.CloseQueue(id)
	_, err = svc.Snapshot(id)
	assert.ErrorIs(t, err, ErrQueueNotFound)

	// Abandoned timers must not fire anything after teardown.
	time.Sleep(50 * time.Millisecond)
	svc.Close()
}
