// Package drafts keeps rule drafts on the server between dashboard requests.
// Drafts expire after a period without access.
package drafts

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
)

var ErrNotFound = errors.New("draft not found")

// Session is one open draft. All access to the form goes through Do.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	form   *ruleform.Form
	stored *models.Rule
}

// Do runs fn with exclusive access to the form.
func (s *Session) Do(fn func(f *ruleform.Form) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.form)
}

// Stored is the rule the draft was opened from, nil for a new rule.
func (s *Session) Stored() *models.Rule {
	if s.stored == nil {
		return nil
	}
	r := *s.stored
	return &r
}

// View is the state of a draft as served to the dashboard.
type View struct {
	ID           string           `json:"id"`
	Mode         string           `json:"mode"`
	RuleID       int64            `json:"ruleId,omitempty"`
	Draft        models.Rule      `json:"draft"`
	Conditions   string           `json:"conditions"`
	Actions      string           `json:"actions"`
	TypedActions json.RawMessage  `json:"typedActions,omitempty"`
	TieredRanges []ruleform.Range `json:"tieredRanges,omitempty"`
	AwardPoints  int              `json:"awardPoints,omitempty"`
	ValidUntil   string           `json:"validUntil,omitempty"`
	Summary      ruleform.Summary `json:"summary"`
	Problems     []string         `json:"problems,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// View snapshots the draft.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.form
	payload := f.BuildSubmitPayload()
	v := View{
		ID:         s.ID,
		Mode:       f.Mode().String(),
		RuleID:     f.ID(),
		Draft:      f.Draft(),
		Conditions: f.Conditions(),
		Actions:    f.Actions(),
		ValidUntil: f.ValidUntilDate(),
		Summary:    ruleform.Summarize(payload),
		CreatedAt:  s.CreatedAt,
	}
	switch f.RuleType() {
	case models.RuleTypeTransaction:
		v.TieredRanges = f.TieredRanges()
	case models.RuleTypeEvent:
		v.AwardPoints = f.AwardPoints()
	}
	if actions, err := f.TypedActions(); err == nil {
		if b, err := ruleform.EncodeActions(actions); err == nil {
			v.TypedActions = b
		}
	}
	if err := f.Validate(); err != nil {
		v.Problems = []string{err.Error()}
	}
	return v
}

type Registry struct {
	cache *cache.Cache

	mu       sync.Mutex
	onChange func(open int)
}

// NewRegistry returns a registry whose drafts expire after ttl without access.
func NewRegistry(ttl time.Duration) *Registry {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	r := &Registry{cache: cache.New(ttl, cleanup)}
	r.cache.OnEvicted(func(string, interface{}) { r.notify() })
	return r
}

// OnChange registers fn to be told the number of open drafts after every
// open, close or expiry.
func (r *Registry) OnChange(fn func(open int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Create opens a draft for a new rule of type t.
func (r *Registry) Create(t models.RuleType) (*Session, error) {
	if err := models.ValidateRuleType(t); err != nil {
		return nil, err
	}
	return r.add(ruleform.New(t), nil), nil
}

// Edit opens a draft for an existing rule.
func (r *Registry) Edit(rule models.Rule) *Session {
	f := &ruleform.Form{}
	f.StartEdit(rule)
	stored := rule
	return r.add(f, &stored)
}

func (r *Registry) add(f *ruleform.Form, stored *models.Rule) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		form:      f,
		stored:    stored,
	}
	r.cache.SetDefault(s.ID, s)
	r.notify()
	return s
}

// Get returns an open draft and extends its lifetime.
func (r *Registry) Get(id string) (*Session, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	r.cache.SetDefault(id, s)
	return s, nil
}

// Delete discards a draft. Deleting an unknown draft is not an error.
func (r *Registry) Delete(id string) {
	r.cache.Delete(id)
}

func (r *Registry) Count() int {
	return r.cache.ItemCount()
}

func (r *Registry) notify() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(r.cache.ItemCount())
	}
}
