package drafts

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
)

func TestCreate(t *testing.T) {
	r := NewRegistry(time.Minute)
	s, err := r.Create(models.RuleTypeTransaction)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.Stored())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	v := s.View()
	assert.Equal(t, "create", v.Mode)
	assert.Equal(t, "[]", v.Actions)
	assert.Equal(t, "{}", v.Conditions)
	assert.Equal(t, "TRANSACTION", v.Summary.Period)
	assert.JSONEq(t, `[]`, string(v.TypedActions))
}

func TestView_TypedActions(t *testing.T) {
	r := NewRegistry(time.Minute)
	s, err := r.Create(models.RuleTypeTransaction)
	require.NoError(t, err)
	require.NoError(t, s.Do(func(f *ruleform.Form) error {
		f.AddTieredRange()
		f.UpdateTieredRange(0, ruleform.RangeMax, 100)
		f.UpdateTieredRange(0, ruleform.RangePoints, 10)
		return nil
	}))

	v := s.View()
	assert.JSONEq(t, `[{"type":"TIERED_POINTS","ranges":[{"min":0,"max":100,"points":10,"multiplier":0}]}]`,
		string(v.TypedActions))

	require.NoError(t, s.Do(func(f *ruleform.Form) error {
		f.SetActions("{broken")
		return nil
	}))
	v = s.View()
	assert.Nil(t, v.TypedActions)
	assert.NotEmpty(t, v.Problems)
}

func TestCreate_InvalidType(t *testing.T) {
	r := NewRegistry(time.Minute)
	_, err := r.Create("LOTTERY")
	assert.Error(t, err)
	assert.Equal(t, 0, r.Count())
}

func TestEdit(t *testing.T) {
	r := NewRegistry(time.Minute)
	rule := models.Rule{
		ID:       5,
		RuleType: models.RuleTypeEvent,
		RuleName: "Welcome",
		Actions:  json.RawMessage(`{"points":100}`),
	}
	s := r.Edit(rule)

	require.NoError(t, s.Do(func(f *ruleform.Form) error {
		f.SetAwardPoints(250)
		return nil
	}))

	v := s.View()
	assert.Equal(t, "edit", v.Mode)
	assert.Equal(t, int64(5), v.RuleID)
	assert.Equal(t, 250, v.AwardPoints)
	assert.Empty(t, v.Problems)

	stored := s.Stored()
	require.NotNil(t, stored)
	assert.JSONEq(t, `{"points":100}`, string(stored.Actions))
}

func TestView_ReportsProblems(t *testing.T) {
	r := NewRegistry(time.Minute)
	s, err := r.Create(models.RuleTypeEvent)
	require.NoError(t, err)

	v := s.View()
	require.Len(t, v.Problems, 1)
	assert.Contains(t, v.Problems[0], "ruleName")
}

func TestDeleteAndCount(t *testing.T) {
	r := NewRegistry(time.Minute)
	var counts []int
	var mu sync.Mutex
	r.OnChange(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	})

	a, _ := r.Create(models.RuleTypeEvent)
	_, _ = r.Create(models.RuleTypeProduct)
	assert.Equal(t, 2, r.Count())

	r.Delete(a.ID)
	r.Delete("missing")
	_, err := r.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, r.Count())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 1}, counts)
}

func TestExpiry(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	s, _ := r.Create(models.RuleTypeReward)

	time.Sleep(40 * time.Millisecond)
	_, err := r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_ConcurrentEdits(t *testing.T) {
	r := NewRegistry(time.Minute)
	s, _ := r.Create(models.RuleTypeTransaction)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(f *ruleform.Form) error {
				f.AddTieredRange()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Len(t, s.View().TieredRanges, 20)
}
