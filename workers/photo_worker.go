package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/facelens/facelensbackend/cluster"
	"github.com/facelens/facelensbackend/config"
	"github.com/facelens/facelensbackend/media"
	"github.com/facelens/facelensbackend/models"
	"github.com/facelens/facelensbackend/repository"
	"github.com/facelens/facelensbackend/utils"
)

// State values for the worker status record
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// PhotoJob describes one photo to ingest
type PhotoJob struct {
	PhotoID  string // content hash, also the stored photo's identity
	FilePath string
	OrigName string // display name for progress reporting
}

// Status is the progress record shared with concurrent pollers. The worker is
// its only writer; every transition happens under the processor lock so
// readers always observe a consistent snapshot, never a half-updated record.
type Status struct {
	State        State  `json:"state"`
	Total        int    `json:"total"`
	Processed    int    `json:"processed"`
	Current      string `json:"current"`
	FacesFound   int64  `json:"faces_found"`
	PhotosNoFace int64  `json:"photos_no_face"`
	Error        string `json:"error,omitempty"`
}

// PhotoProcessor owns the ingestion pipeline: a FIFO queue of job batches, the
// single background worker draining it and the status cell pollers read.
// Producers may call Submit concurrently; exactly one batch is processed at a
// time, in submission order.
type PhotoProcessor struct {
	photoRepo repository.PhotoRepositoryInterface
	faceRepo  repository.FaceRepositoryInterface
	detector  media.Detector
	settings  *config.Settings

	jobQueue chan []PhotoJob
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	status Status
}

// NewPhotoProcessor starts the single background worker and returns the
// pipeline handle
func NewPhotoProcessor(
	photoRepo repository.PhotoRepositoryInterface,
	faceRepo repository.FaceRepositoryInterface,
	detector media.Detector,
	settings *config.Settings,
	queueSize int,
) *PhotoProcessor {
	if queueSize <= 0 {
		queueSize = 100
	}
	p := &PhotoProcessor{
		photoRepo: photoRepo,
		faceRepo:  faceRepo,
		detector:  detector,
		settings:  settings,
		jobQueue:  make(chan []PhotoJob, queueSize),
		stopChan:  make(chan struct{}),
		status:    Status{State: StateIdle},
	}
	p.wg.Add(1)
	go p.worker()
	log.Printf("Started photo processing worker with queue size %d", queueSize)
	return p
}

// Submit enqueues a batch for background processing and returns immediately.
// Empty batches are ignored. Returns an error only when the queue is full.
func (p *PhotoProcessor) Submit(jobs []PhotoJob) error {
	if len(jobs) == 0 {
		return nil
	}
	select {
	case p.jobQueue <- jobs:
		log.Printf("Queued batch of %d photo job(s)", len(jobs))
		return nil
	default:
		return fmt.Errorf("job queue is full, batch of %d rejected", len(jobs))
	}
}

// Status returns a snapshot of the current progress record
func (p *PhotoProcessor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Stop signals the worker to exit and waits for it. An in-flight batch runs
// to completion first; batches still queued are abandoned.
func (p *PhotoProcessor) Stop() {
	log.Println("Stopping photo processor worker...")
	close(p.stopChan)
	p.wg.Wait()
	log.Println("Photo processor worker stopped")
}

// setStatus replaces the whole status record
func (p *PhotoProcessor) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// updateStatus applies a transition to the status record under the lock
func (p *PhotoProcessor) updateStatus(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// failBatch marks the run as failed while keeping the progress counters, so
// pollers can still see how far the batch got before it aborted
func (p *PhotoProcessor) failBatch(err error) {
	p.updateStatus(func(s *Status) {
		s.State = StateError
		s.Current = ""
		s.Error = err.Error()
	})
}

func (p *PhotoProcessor) worker() {
	defer p.wg.Done()
	log.Println("Photo worker started")
	for {
		select {
		case jobs := <-p.jobQueue:
			p.processBatch(jobs)
		case <-p.stopChan:
			log.Println("Photo worker stopping: stop signal received")
			return
		}
	}
}

// processBatch runs one full batch: per-photo extraction in job order, then a
// full reclustering pass over the entire store. The first failing job aborts
// the remainder of the batch; photos persisted by earlier jobs stay put.
func (p *PhotoProcessor) processBatch(jobs []PhotoJob) {
	if err := p.detector.Available(); err != nil {
		log.Printf("Worker: detector unavailable, rejecting batch: %v", err)
		p.setStatus(Status{State: StateError, Error: err.Error()})
		return
	}

	p.setStatus(Status{State: StateRunning, Total: len(jobs)})

	for _, job := range jobs {
		p.updateStatus(func(s *Status) { s.Current = job.OrigName })

		faceCount, noFace, err := p.processPhoto(job)
		if err != nil {
			log.Printf("Worker: ERROR processing %s: %v. Aborting batch.", job.OrigName, err)
			p.failBatch(err)
			return
		}

		p.updateStatus(func(s *Status) {
			s.Processed++
			s.FacesFound += int64(faceCount)
			if noFace {
				s.PhotosNoFace++
			}
		})
	}

	if err := p.reclusterAll(); err != nil {
		log.Printf("Worker: ERROR reclustering: %v", err)
		p.failBatch(err)
		return
	}

	// the finished record reports store-wide totals, not just this batch
	facesTotal, err := p.faceRepo.Count()
	if err != nil {
		p.failBatch(err)
		return
	}
	_, photosNoFace, err := p.photoRepo.CountStats()
	if err != nil {
		p.failBatch(err)
		return
	}

	p.updateStatus(func(s *Status) {
		s.State = StateDone
		s.Current = ""
		s.FacesFound = facesTotal
		s.PhotosNoFace = photosNoFace
	})
	log.Printf("Worker: batch of %d job(s) done, %d face(s) stored in total", len(jobs), facesTotal)
}

// processPhoto runs the single-photo step: read the file, decode dimensions,
// detect faces and persist the photo with its faces in one transaction.
// Returns the number of faces found and whether the photo had none.
func (p *PhotoProcessor) processPhoto(job PhotoJob) (int, bool, error) {
	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read photo %s: %w", job.FilePath, err)
	}

	width, height, err := media.DecodeDimensions(data)
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode %s: %w", job.OrigName, err)
	}

	detected, err := p.detector.Detect(context.Background(), data)
	if err != nil {
		return 0, false, fmt.Errorf("detection failed for %s: %w", job.OrigName, err)
	}

	photo := models.Photo{
		ID:       job.PhotoID,
		FilePath: job.FilePath,
		OrigName: job.OrigName,
		Width:    width,
		Height:   height,
		NoFace:   len(detected) == 0,
		TakenAt:  utils.TakenAtFromEXIF(data),
	}

	faces := make([]models.Face, 0, len(detected))
	for _, df := range detected {
		face := models.Face{
			X1:        df.X1,
			Y1:        df.Y1,
			X2:        df.X2,
			Y2:        df.Y2,
			ModelType: df.ModelType,
		}
		face.SetEmbedding(df.Embedding)
		faces = append(faces, face)
	}

	if err := p.photoRepo.CreateWithFaces(&photo, faces); err != nil {
		return 0, false, err
	}
	return len(detected), len(detected) == 0, nil
}

// reclusterAll rebuilds every group label from scratch: fetch all faces,
// clear all labels, rerun the clusterer over the full set and write the fresh
// labels back. Thresholds are read at the start of the pass, so a settings
// change applies from the next batch onward.
func (p *PhotoProcessor) reclusterAll() error {
	thresholds := p.settings.Thresholds()

	faces, err := p.faceRepo.ListAll()
	if err != nil {
		return err
	}

	if err := p.faceRepo.ClearGroups(); err != nil {
		return err
	}

	vectors := make([]cluster.FaceVector, 0, len(faces))
	for _, f := range faces {
		vectors = append(vectors, cluster.FaceVector{
			FaceID:    f.ID,
			Embedding: f.GetEmbedding(),
			ModelType: f.ModelType,
		})
	}

	assignments := cluster.AssignGroups(vectors, thresholds.Cosine, thresholds.Euclidean)
	for _, a := range assignments {
		if err := p.faceRepo.UpdateGroup(a.FaceID, a.GroupID); err != nil {
			return err
		}
	}
	return nil
}
