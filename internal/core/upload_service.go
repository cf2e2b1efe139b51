package core

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/utils"
)

// MaxUploadSize is the per-file ceiling enforced client-side and here.
const MaxUploadSize = 50 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

var (
	ErrQueueNotFound    = errors.New("upload queue not found")
	ErrIndexOutOfRange  = errors.New("file index out of range")
	ErrNoCategory       = errors.New("a document category is required")
	ErrQueueEmpty       = errors.New("no files staged for upload")
	ErrUploadInProgress = errors.New("upload already in progress")
)

// FileCandidate is what the browse/drag-and-drop surface hands over: just
// metadata, never bytes.
type FileCandidate struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type PendingFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"size_label"`
	Progress  int    `json:"progress"`
	Done      bool   `json:"done"`
}

type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AddReport lists, per candidate, whether it was staged or why it was not.
// Rejections are reported individually, never silently dropped.
type AddReport struct {
	Accepted []PendingFile  `json:"accepted"`
	Rejected []RejectedFile `json:"rejected"`
}

// QueueSnapshot mirrors what the upload modal renders: one row per staged
// file, in insertion order.
type QueueSnapshot struct {
	ID        string        `json:"id"`
	Files     []PendingFile `json:"files"`
	Uploading bool          `json:"uploading"`
	Completed bool          `json:"completed"`
	Category  string        `json:"category"`
}

type uploadQueue struct {
	id string

	mu        sync.Mutex
	files     []PendingFile
	uploading bool
	completed bool
	category  string
	stop      chan struct{}
	closed    bool
}

// UploadService stages files for the documents page and animates a fake
// upload. No bytes are ever read or transmitted; the "upload" is purely a
// progress simulation, by product decision (there is no storage backend).
type UploadService struct {
	bus     *Bus
	log     zerolog.Logger
	tick    time.Duration // interval between progress increments
	stagger time.Duration // delay between successive files starting

	mu     sync.Mutex
	queues map[string]*uploadQueue
}

func NewUploadService(bus *Bus, logger zerolog.Logger, tick, stagger time.Duration) *UploadService {
	if tick <= 0 {
		tick = 300 * time.Millisecond
	}
	if stagger < 0 {
		stagger = 200 * time.Millisecond
	}
	return &UploadService{
		bus:     bus,
		log:     logger,
		tick:    tick,
		stagger: stagger,
		queues:  make(map[string]*uploadQueue),
	}
}

func (s *UploadService) CreateQueue() string {
	q := &uploadQueue{
		id:   uuid.NewString(),
		stop: make(chan struct{}),
	}
	s.mu.Lock()
	s.queues[q.id] = q
	s.mu.Unlock()
	return q.id
}

func (s *UploadService) queue(id string) (*uploadQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[id]
	if !ok {
		return nil, ErrQueueNotFound
	}
	return q, nil
}

// ValidateCandidate applies the extension allow-list and the size ceiling.
func ValidateCandidate(c FileCandidate) error {
	ext := strings.ToLower(filepath.Ext(c.Name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type %q is not allowed (accepted: pdf, doc, docx, txt)", ext)
	}
	if c.Size < 0 {
		return fmt.Errorf("file has an invalid size")
	}
	if c.Size > MaxUploadSize {
		return fmt.Errorf("file exceeds the %s limit", utils.FormatFileSize(MaxUploadSize))
	}
	return nil
}

// AddFiles validates each candidate independently and appends the valid ones
// in order. Duplicate names are permitted; the queue is a staging list, not a
// set.
func (s *UploadService) AddFiles(queueID string, candidates []FileCandidate) (AddReport, error) {
	q, err := s.queue(queueID)
	if err != nil {
		return AddReport{}, err
	}

	var report AddReport
	q.mu.Lock()
	if q.uploading {
		q.mu.Unlock()
		return AddReport{}, ErrUploadInProgress
	}
	q.completed = false
	for _, c := range candidates {
		if err := ValidateCandidate(c); err != nil {
			report.Rejected = append(report.Rejected, RejectedFile{Name: c.Name, Reason: err.Error()})
			continue
		}
		pf := PendingFile{
			ID:        uuid.NewString(),
			Name:      c.Name,
			Size:      c.Size,
			SizeLabel: utils.FormatFileSize(c.Size),
		}
		q.files = append(q.files, pf)
		report.Accepted = append(report.Accepted, pf)
	}
	q.mu.Unlock()

	// Published outside the lock; handlers may call back into the service.
	for _, rej := range report.Rejected {
		s.bus.Publish(TopicFileRejected, rej)
	}
	return report, nil
}

// RemoveFile drops the staged file at index, preserving the order of the
// rest. An out-of-range index is a defined error, never a panic.
func (s *UploadService) RemoveFile(queueID string, index int) error {
	q, err := s.queue(queueID)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.uploading {
		return ErrUploadInProgress
	}
	if index < 0 || index >= len(q.files) {
		return ErrIndexOutOfRange
	}
	q.files = append(q.files[:index], q.files[index+1:]...)
	return nil
}

// StartUpload kicks off the progress simulation for every staged file. Each
// file animates on its own staggered timer, so there is no ordering guarantee
// across rows; completion of the whole queue clears the staging list.
func (s *UploadService) StartUpload(queueID, category string) error {
	q, err := s.queue(queueID)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if strings.TrimSpace(category) == "" {
		return ErrNoCategory
	}
	if len(q.files) == 0 {
		return ErrQueueEmpty
	}
	if q.uploading {
		return ErrUploadInProgress
	}
	q.uploading = true
	q.category = category
	for i := range q.files {
		go s.animate(q, q.files[i].ID, time.Duration(i)*s.stagger)
	}
	s.log.Debug().Str("queue", q.id).Int("files", len(q.files)).Str("category", category).Msg("simulated upload started")
	return nil
}

// animate walks one file's progress from 0 to 100 in randomized increments.
// Progress only ever increases; each step adds at least 1, so the number of
// increments is bounded.
func (s *UploadService) animate(q *uploadQueue, fileID string, startDelay time.Duration) {
	if startDelay > 0 {
		select {
		case <-time.After(startDelay):
		case <-q.stop:
			return
		}
	}
	for {
		select {
		case <-time.After(s.tick):
		case <-q.stop:
			return
		}
		if s.step(q, fileID) {
			return
		}
	}
}

// step applies one increment; reports true when the file (or queue) is done.
func (s *UploadService) step(q *uploadQueue, fileID string) bool {
	q.mu.Lock()
	if q.closed || !q.uploading {
		q.mu.Unlock()
		return true
	}
	idx := -1
	for i := range q.files {
		if q.files[i].ID == fileID {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return true
	}

	f := &q.files[idx]
	f.Progress += 1 + rand.Intn(30)
	if f.Progress >= 100 {
		f.Progress = 100
		f.Done = true
	}
	if !f.Done {
		q.mu.Unlock()
		return false
	}

	for i := range q.files {
		if !q.files[i].Done {
			q.mu.Unlock()
			return true
		}
	}
	// Every row finished: clear the staging list and close the surface.
	count := len(q.files)
	category := q.category
	q.files = nil
	q.uploading = false
	q.completed = true
	q.category = ""
	q.mu.Unlock()

	s.bus.Publish(TopicUploadCompleted, struct {
		QueueID  string
		Category string
		Files    int
	}{q.id, category, count})
	s.log.Debug().Str("queue", q.id).Int("files", count).Msg("simulated upload completed")
	return true
}

func (s *UploadService) Snapshot(queueID string) (QueueSnapshot, error) {
	q, err := s.queue(queueID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	snap := QueueSnapshot{
		ID:        q.id,
		Files:     make([]PendingFile, len(q.files)),
		Uploading: q.uploading,
		Completed: q.completed,
		Category:  q.category,
	}
	copy(snap.Files, q.files)
	return snap, nil
}

// CloseQueue is the modal-close path: abandon the staging list and cancel
// any in-flight progress timers.
func (s *UploadService) CloseQueue(queueID string) {
	s.mu.Lock()
	q, ok := s.queues[queueID]
	delete(s.queues, queueID)
	s.mu.Unlock()
	if ok {
		q.close()
	}
}

func (q *uploadQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.files = nil
	q.uploading = false
	close(q.stop)
}

// Close cancels every queue's timers. Part of shell teardown.
func (s *UploadService) Close() {
	s.mu.Lock()
	queues := make([]*uploadQueue, 0, len(s.queues))
	for _, q := range s.queues {
		queues = append(queues, q)
	}
	s.queues = make(map[string]*uploadQueue)
	s.mu.Unlock()
	for _, q := range queues {
		q.close()
	}
}
