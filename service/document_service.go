package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"driverbot/pkg/checklist"
	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/storage"
)

// statusNamespace seeds the idempotency keys of status submissions.
var statusNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("driverbot/document-status"))

type DocumentService interface {
	// Checklist fetches the driver's uploaded documents and normalizes them.
	Checklist(ctx context.Context, driverID int64) (checklist.State, error)
	// Next decides where the driver goes from the checklist. When everything
	// is uploaded it submits the documents for verification first.
	Next(ctx context.Context, driverID int64) (*NextStep, error)
	Upload(ctx context.Context, up models.DocumentUpload) error
	// Mirrored is the last checklist seen locally, for display when the backend is unreachable.
	Mirrored(ctx context.Context, driverID int64) (checklist.State, error)
}

// NextStep is the single navigation outcome of a checklist evaluation.
type NextStep struct {
	Route   models.Route
	Missing *checklist.Category
	State   checklist.State
	// Message is the backend's answer to the verification submission, if one was made.
	Message string
}

type documentService struct {
	drivers storage.IDriverStorage
	docs    storage.IDocumentStorage
	api     API
	log     logger.ILogger
	metrics *metrics.Metrics

	group     singleflight.Group
	submitted sync.Map // driverID -> struct{}

	mu     sync.Mutex
	rounds map[int64]int // verification submissions reopened per driver
}

func NewDocumentService(drivers storage.IDriverStorage, docs storage.IDocumentStorage, api API, log logger.ILogger, m *metrics.Metrics) DocumentService {
	return &documentService{
		drivers: drivers,
		docs:    docs,
		api:     api,
		log:     log,
		metrics: m,
		rounds:  make(map[int64]int),
	}
}

func (s *documentService) Checklist(ctx context.Context, driverID int64) (checklist.State, error) {
	v, err, _ := s.group.Do("docs:"+strconv.FormatInt(driverID, 10), func() (any, error) {
		set, err := s.api.GetDriverDocuments(ctx, driverID)
		if err != nil {
			return nil, err
		}

		state, ignored := checklist.FromUploaded(set.Uploaded)
		if len(ignored) > 0 {
			s.log.Warning("ignoring unknown document categories",
				logger.Int64("driver_id", driverID), logger.Strings("doc_types", ignored))
		}

		uploaded := make([]string, 0, len(checklist.Categories))
		for _, c := range checklist.Categories {
			if state[c] {
				uploaded = append(uploaded, c.String())
			}
		}
		if err := s.docs.SyncUploaded(ctx, driverID, uploaded); err != nil {
			s.log.Error("error while mirroring documents", logger.Int64("driver_id", driverID), logger.Error(err))
		}
		if !state.Complete() {
			s.reopen(ctx, driverID)
		}
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(checklist.State), nil
}

func (s *documentService) Next(ctx context.Context, driverID int64) (*NextStep, error) {
	state, err := s.Checklist(ctx, driverID)
	if err != nil {
		return nil, err
	}

	d := checklist.Evaluate(state)
	step := &NextStep{
		Route:   models.Route{Screen: d.Next, DriverID: driverID},
		Missing: d.Missing,
		State:   state,
	}
	if !d.SubmitForVerification {
		return step, nil
	}

	msg, err := s.submit(ctx, driverID)
	if err != nil {
		return nil, err
	}
	step.Message = msg
	return step, nil
}

// submit moves the driver to under_verification at most once. Concurrent
// callers share one request and later callers find the driver already moved.
func (s *documentService) submit(ctx context.Context, driverID int64) (string, error) {
	v, err, _ := s.group.Do("status:"+strconv.FormatInt(driverID, 10), func() (any, error) {
		if _, done := s.submitted.Load(driverID); done {
			s.metrics.ObserveStatusSubmission(true)
			return "", nil
		}

		status, err := s.drivers.GetDocumentStatus(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if status == models.DocumentStatusUnderVerification {
			s.submitted.Store(driverID, struct{}{})
			s.metrics.ObserveStatusSubmission(true)
			return "", nil
		}

		res, err := s.api.UpdateDocumentStatus(ctx, driverID, models.DocumentStatusUnderVerification, s.statusKey(driverID))
		if err != nil {
			return nil, err
		}
		s.submitted.Store(driverID, struct{}{})
		s.metrics.ObserveStatusSubmission(false)

		if _, err := s.drivers.MarkDocumentStatus(ctx, driverID, models.DocumentStatusUnderVerification); err != nil {
			s.log.Error("error while saving document status", logger.Int64("driver_id", driverID), logger.Error(err))
		}
		s.log.Info("documents submitted for verification", logger.Int64("driver_id", driverID))

		if res == nil {
			return "", nil
		}
		return res.Message, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// reopen forgets a submission once a category goes missing again, so the
// next complete checklist is submitted anew.
func (s *documentService) reopen(ctx context.Context, driverID int64) {
	_, latched := s.submitted.LoadAndDelete(driverID)
	changed, err := s.drivers.MarkDocumentStatus(ctx, driverID, models.DocumentStatusPending)
	if err != nil {
		s.log.Error("error while resetting document status", logger.Int64("driver_id", driverID), logger.Error(err))
	}
	if !latched && !changed {
		return
	}

	s.mu.Lock()
	s.rounds[driverID]++
	s.mu.Unlock()
	s.log.Info("documents reopened for upload", logger.Int64("driver_id", driverID))
}

// statusKey is stable for one submission round of a driver.
func (s *documentService) statusKey(driverID int64) string {
	s.mu.Lock()
	round := s.rounds[driverID]
	s.mu.Unlock()
	return uuid.NewSHA1(statusNamespace,
		[]byte(fmt.Sprintf("%d:%s:%d", driverID, models.DocumentStatusUnderVerification, round))).String()
}

// Upload checks the number format and both images before posting anything.
func (s *documentService) Upload(ctx context.Context, up models.DocumentUpload) error {
	category, ok := checklist.Parse(up.DocType)
	if !ok {
		return ErrUnknownDocType
	}
	up.DocType = category.String()

	if ok, hint := validation.DocumentNumber(up.DocType, up.DocNumber); !ok {
		return validation.Errors{"doc_number": hint}
	}
	if len(up.FrontImage) == 0 || len(up.BackImage) == 0 {
		return ErrMissingImages
	}

	_, err := s.api.UploadDocument(ctx, up)
	s.metrics.ObserveUpload(up.DocType, err)
	if err != nil {
		return err
	}

	if err := s.docs.MarkUploaded(ctx, up.DriverID, up.DocType, up.DocNumber); err != nil {
		s.log.Error("error while mirroring upload", logger.Int64("driver_id", up.DriverID), logger.Error(err))
	}
	s.log.Info("document uploaded", logger.Int64("driver_id", up.DriverID), logger.String("doc_type", up.DocType))
	return nil
}

func (s *documentService) Mirrored(ctx context.Context, driverID int64) (checklist.State, error) {
	records, err := s.docs.GetByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return checklist.FromRecords(records), nil
}
