package service

import (
	"context"
	"sync"
	"time"

	"driverbot/pkg/backend"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type fakeAPI struct {
	mu sync.Mutex

	uploaded     []string
	docsErr      error
	statusCalls  int
	statusKeys   []string
	statusDelay  time.Duration
	uploads      []models.DocumentUpload
	uploadErr    error
	assigned     []string
	assignErr    error
	payments     []string
	completed    int
	missed       int
	loginResult  *models.LoginResult
	registration *models.Registration
	otpSentTo    []string
}

func (f *fakeAPI) SendLoginOTP(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpSentTo = append(f.otpSentTo, phone)
	return nil
}

func (f *fakeAPI) VerifyLoginOTP(context.Context, string, string) (*models.LoginResult, error) {
	return f.loginResult, nil
}

func (f *fakeAPI) RegisterDriver(context.Context, models.DriverProfile) (*models.Registration, error) {
	return f.registration, nil
}

func (f *fakeAPI) GetDriverDocuments(context.Context, int64) (*backend.DocumentSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docsErr != nil {
		return nil, f.docsErr
	}
	return &backend.DocumentSet{Uploaded: append([]string(nil), f.uploaded...)}, nil
}

func (f *fakeAPI) UpdateDocumentStatus(_ context.Context, _ int64, _ string, key string) (*models.StatusMessage, error) {
	time.Sleep(f.statusDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	f.statusKeys = append(f.statusKeys, key)
	return &models.StatusMessage{Message: "Documents submitted"}, nil
}

func (f *fakeAPI) UploadDocument(_ context.Context, up models.DocumentUpload) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, up)
	return map[string]any{"message": "ok"}, nil
}

func (f *fakeAPI) AssignDriver(_ context.Context, bookingID string, _ int64) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	f.assigned = append(f.assigned, bookingID)
	return map[string]any{}, nil
}

func (f *fakeAPI) UpdatePayment(_ context.Context, bookingID, status, method string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, bookingID+":"+status+":"+method)
	return map[string]any{}, nil
}

func (f *fakeAPI) CompletedOrders(context.Context, int64) (int, error) { return f.completed, nil }
func (f *fakeAPI) MissedOrders(context.Context, int64) (int, error)    { return f.missed, nil }

type fakeDrivers struct {
	mu      sync.Mutex
	drivers map[int64]*models.Driver
	status  map[int64]string
}

func newFakeDrivers() *fakeDrivers {
	return &fakeDrivers{drivers: map[int64]*models.Driver{}, status: map[int64]string{}}
}

func (f *fakeDrivers) GetOrCreate(_ context.Context, teleID int64, name string) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[teleID]
	if !ok {
		d = &models.Driver{ID: int64(len(f.drivers) + 1), TelegramID: teleID, Name: name, DocumentStatus: models.DocumentStatusPending}
		f.drivers[teleID] = d
	}
	return d, nil
}

func (f *fakeDrivers) Get(_ context.Context, teleID int64) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drivers[teleID], nil
}

func (f *fakeDrivers) GetByDriverID(_ context.Context, driverID int64) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drivers {
		if d.DriverID != nil && *d.DriverID == driverID {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDrivers) UpdatePhone(_ context.Context, teleID int64, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[teleID].Phone = &phone
	return nil
}

func (f *fakeDrivers) SetToken(_ context.Context, teleID int64, token string, exp *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[teleID].Token = &token
	f.drivers[teleID].TokenExpiresAt = exp
	return nil
}

func (f *fakeDrivers) ClearToken(_ context.Context, teleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[teleID].Token = nil
	f.drivers[teleID].TokenExpiresAt = nil
	return nil
}

func (f *fakeDrivers) Link(_ context.Context, teleID, driverID int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[teleID].DriverID = &driverID
	f.drivers[teleID].Name = name
	return nil
}

func (f *fakeDrivers) SaveProfile(_ context.Context, teleID int64, p models.DriverProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[teleID].VehicleType = p.VehicleType
	f.drivers[teleID].VehicleNumber = p.VehicleNumber
	return nil
}

func (f *fakeDrivers) MarkDocumentStatus(_ context.Context, driverID int64, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.status[driverID]
	if !ok {
		current = models.DocumentStatusPending
	}
	if current == status {
		return false, nil
	}
	f.status[driverID] = status
	return true, nil
}

func (f *fakeDrivers) GetDocumentStatus(_ context.Context, driverID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.status[driverID]; ok {
		return s, nil
	}
	return models.DocumentStatusPending, nil
}

type fakeDocs struct {
	mu     sync.Mutex
	synced map[int64][]string
	marked []string
}

func newFakeDocs() *fakeDocs { return &fakeDocs{synced: map[int64][]string{}} }

func (f *fakeDocs) GetByDriver(_ context.Context, driverID int64) ([]*models.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DocumentRecord
	for _, c := range f.synced[driverID] {
		out = append(out, &models.DocumentRecord{DriverID: driverID, Category: c, Uploaded: true})
	}
	return out, nil
}

func (f *fakeDocs) SyncUploaded(_ context.Context, driverID int64, categories []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced[driverID] = categories
	return nil
}

func (f *fakeDocs) MarkUploaded(_ context.Context, _ int64, category, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, category)
	return nil
}

type fakeVehicles struct{ types []*models.VehicleType }

func (f fakeVehicles) GetTypes(context.Context) ([]*models.VehicleType, error) { return f.types, nil }

type fakeRides struct {
	mu    sync.Mutex
	rides []*models.CompletedRide
}

func (f *fakeRides) RecordCompleted(_ context.Context, r *models.CompletedRide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rides = append(f.rides, r)
	return nil
}

func (f *fakeRides) GetByDate(_ context.Context, driverID int64, _ time.Time) ([]*models.CompletedRide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CompletedRide
	for _, r := range f.rides {
		if r.DriverID == driverID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRides) GetDriverRides(ctx context.Context, driverID int64, _ int) ([]*models.CompletedRide, error) {
	return f.GetByDate(ctx, driverID, time.Time{})
}

type fakeSocket struct {
	mu     sync.Mutex
	events []string
	closed bool
}

func (f *fakeSocket) Emit(event string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

var (
	_ API                      = (*fakeAPI)(nil)
	_ storage.IDriverStorage   = (*fakeDrivers)(nil)
	_ storage.IDocumentStorage = (*fakeDocs)(nil)
	_ storage.IVehicleStorage  = fakeVehicles{}
	_ storage.IRideStorage     = (*fakeRides)(nil)
	_ API                      = (*backend.Client)(nil)
)
