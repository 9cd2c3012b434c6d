package forms

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbolis/parish-forms/model"
)

// memStore is an in-memory FormStore and ResponseStore with failure hooks.
type memStore struct {
	mu        sync.Mutex
	forms     map[string]*model.FormDefinition
	responses []model.FormResponse

	createFormErr     error
	statusErr         error
	createResponseErr error
	listResponsesErr  error
}

func newMemStore() *memStore {
	return &memStore{forms: map[string]*model.FormDefinition{}}
}

func (m *memStore) CreateForm(ctx context.Context, def *model.FormDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFormErr != nil {
		return m.createFormErr
	}
	if err := def.Validate(); err != nil {
		return err
	}
	cp := *def
	m.forms[def.ID] = &cp
	return nil
}

func (m *memStore) GetForm(ctx context.Context, id string) (*model.FormDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.forms[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *def
	return &cp, nil
}

func (m *memStore) FormStatus(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return false, m.statusErr
	}
	def, ok := m.forms[id]
	if !ok {
		return false, model.ErrNotFound
	}
	return def.Active, nil
}

func (m *memStore) ListForms(ctx context.Context) ([]model.FormSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []model.FormSummary{}
	for _, def := range m.forms {
		n := 0
		for _, r := range m.responses {
			if r.FormID == def.ID {
				n++
			}
		}
		list = append(list, model.FormSummary{FormDefinition: *def, ResponseCount: n})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *memStore) SetFormActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.forms[id]
	if !ok {
		return model.ErrNotFound
	}
	def.Active = active
	return nil
}

func (m *memStore) DeleteForm(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.forms, id)
	return nil
}

func (m *memStore) CreateResponse(ctx context.Context, resp *model.FormResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createResponseErr != nil {
		return m.createResponseErr
	}
	m.responses = append(m.responses, *resp)
	return nil
}

func (m *memStore) ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listResponsesErr != nil {
		return nil, m.listResponsesErr
	}
	list := []model.FormResponse{}
	for _, r := range m.responses {
		if r.FormID == formID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *memStore) responseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

type published struct {
	topic string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, event})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.events))
	for i, e := range p.events {
		topics[i] = e.topic
	}
	return topics
}

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	e := NewEngine(store, store, pub)
	e.Now = func() time.Time { return testNow }
	return e, store, pub
}
