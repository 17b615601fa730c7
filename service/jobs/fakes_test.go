package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/infra"
)

var errRemote = errors.New("remote unavailable")

type fakeStore struct {
	mu   sync.Mutex
	rows []entity.Job

	failList   bool
	failInsert error
	failUpdate bool
	failFiles  bool
	failDelete bool

	// updateEntered / updateRelease block UpdateFields when set.
	updateEntered chan struct{}
	updateRelease chan struct{}

	inserts int
}

func (s *fakeStore) seed(job entity.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	s.rows = append(s.rows, job)
}

func (s *fakeStore) find(owner uuid.UUID, serial int) int {
	return slices.IndexFunc(s.rows, func(j entity.Job) bool { return j.OwnerID == owner && j.Serial == serial })
}

func (s *fakeStore) row(owner uuid.UUID, serial int) (entity.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(owner, serial); i >= 0 {
		return s.rows[i].Clone(), true
	}
	return entity.Job{}, false
}

func (s *fakeStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]entity.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errRemote
	}
	var out []entity.Job
	for _, j := range s.rows {
		if j.OwnerID == owner {
			out = append(out, j.Clone())
		}
	}
	slices.SortFunc(out, func(a, b entity.Job) int { return a.Serial - b.Serial })
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.failInsert != nil {
		return s.failInsert
	}
	if s.find(job.OwnerID, job.Serial) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateSerial, job.Serial)
	}
	job.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	job.UpdatedAt = job.CreatedAt
	s.rows = append(s.rows, job.Clone())
	return nil
}

func (s *fakeStore) UpdateFields(_ context.Context, owner uuid.UUID, serial int, fields map[string]interface{}) error {
	if s.updateEntered != nil {
		s.updateEntered <- struct{}{}
		<-s.updateRelease
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return errRemote
	}
	i := s.find(owner, serial)
	if i < 0 {
		return ErrJobNotFound
	}
	for k, v := range fields {
		switch k {
		case "consignee":
			s.rows[i].Consignee = v.(string)
		case "bl_number":
			s.rows[i].BLNumber = v.(string)
		case "container_size":
			s.rows[i].ContainerSize = v.(string)
		case "terminal":
			s.rows[i].Terminal = v.(string)
		case "status":
			s.rows[i].Status = v.(entity.JobStatus)
		case "refund_status":
			s.rows[i].RefundStatus = v.(entity.RefundStatus)
		case "eta":
			if v == nil {
				s.rows[i].ETA = nil
			} else {
				t := v.(time.Time)
				s.rows[i].ETA = &t
			}
		default:
			return fmt.Errorf("unknown column %s", k)
		}
	}
	return nil
}

func (s *fakeStore) UpdateFiles(_ context.Context, owner uuid.UUID, serial int, files []entity.JobFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFiles {
		return errRemote
	}
	i := s.find(owner, serial)
	if i < 0 {
		return ErrJobNotFound
	}
	s.rows[i].Files = slices.Clone(files)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, owner uuid.UUID, serial int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errRemote
	}
	i := s.find(owner, serial)
	if i < 0 {
		return ErrJobNotFound
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte

	// failPutFor fails Put when the uploaded body starts with one of these.
	failPutFor []string
	failRemove map[string]bool
	failCopy   bool

	removeAttempts []string

	// onRemove runs after a successful Remove, outside the lock.
	onRemove func(key string)
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte), failRemove: make(map[string]bool)}
}

func (o *fakeObjects) Put(_ context.Context, key string, data io.Reader, _ int64, _ string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, prefix := range o.failPutFor {
		if bytes.HasPrefix(body, []byte(prefix)) {
			return errRemote
		}
	}
	o.objects[key] = body
	return nil
}

func (o *fakeObjects) Copy(_ context.Context, src, dst string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failCopy {
		return errRemote
	}
	body, ok := o.objects[src]
	if !ok {
		return fmt.Errorf("no such object %s", src)
	}
	o.objects[dst] = slices.Clone(body)
	return nil
}

func (o *fakeObjects) Remove(_ context.Context, key string) error {
	o.mu.Lock()
	o.removeAttempts = append(o.removeAttempts, key)
	for suffix := range o.failRemove {
		if strings.HasSuffix(key, suffix) {
			o.mu.Unlock()
			return errRemote
		}
	}
	delete(o.objects, key)
	hook := o.onRemove
	o.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	return nil
}

func (o *fakeObjects) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func (o *fakeObjects) get(key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.objects[key]
	return b, ok
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, owner uuid.UUID, msg entity.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg.OwnerID = owner
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) ofKind(kind string) []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []entity.Notification
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type recordingOrphans struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingOrphans) ReportOrphan(_ context.Context, _ uuid.UUID, key, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

type fixture struct {
	owner     uuid.UUID
	store     *fakeStore
	objects   *fakeObjects
	notifier  *recordingNotifier
	orphans   *recordingOrphans
	container *Container
}

func newFixture() *fixture {
	f := &fixture{
		owner:    uuid.New(),
		store:    &fakeStore{},
		objects:  newFakeObjects(),
		notifier: &recordingNotifier{},
		orphans:  &recordingOrphans{},
	}
	f.container = NewContainer(f.owner, f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Store:     f.store,
		Objects:   f.objects,
		Notifier:  f.notifier,
		Orphans:   f.orphans,
		Logger:    infra.NewNopLogger(),
		URLExpiry: time.Hour,
	}
}

// seedJob stores a job with the given files and their objects, then reloads.
func (f *fixture) seedJob(serial int, files ...string) entity.Job {
	job := entity.Job{
		ID:           uuid.New(),
		Serial:       serial,
		Status:       entity.JobStatusPending,
		RefundStatus: entity.RefundStatusPending,
		OwnerID:      f.owner,
	}
	for i, name := range files {
		storage := fmt.Sprintf("100%d-seed%d.pdf", i, i)
		job.Files = append(job.Files, entity.JobFile{Name: name, StorageName: storage, Size: 4})
		f.objects.objects[entity.JobFileKey(serial, storage)] = []byte("data-" + name)
	}
	f.store.seed(job)
	return job
}
