package ruleform

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/models"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func decodeActions(t *testing.T, r models.Rule) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Actions, &out))
	return out
}

func TestStartCreate_Defaults(t *testing.T) {
	for _, rt := range models.RuleTypes {
		t.Run(string(rt), func(t *testing.T) {
			f := New(rt)
			p := f.BuildSubmitPayload()

			assert.Equal(t, ModeCreate, f.Mode())
			assert.Equal(t, rt, p.RuleType)
			assert.Equal(t, 1, p.Priority)
			assert.True(t, p.IsActive)
			assert.JSONEq(t, `{}`, string(p.Conditions))
			assert.JSONEq(t, `[]`, string(p.Actions))
		})
	}
}

func TestStartCreate_TypeSpecificDefaults(t *testing.T) {
	assert.Equal(t, models.EvaluationPerTransaction, New(models.RuleTypeTransaction).Draft().EvaluationType)
	assert.Equal(t, models.RewardPoints, New(models.RuleTypeEvent).Draft().RewardType)
	assert.Empty(t, New(models.RuleTypeReward).Draft().EvaluationType)
	assert.Equal(t, []string{}, New(models.RuleTypeProduct).Draft().TargetProductCodes)
}

func TestStartCreate_ResetsPreviousDraft(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.SetName("Big spenders")
	f.AddTieredRange()

	f.StartCreate(models.RuleTypeEvent)
	p := f.BuildSubmitPayload()
	assert.Empty(t, p.RuleName)
	assert.Equal(t, models.RuleTypeEvent, p.RuleType)
	assert.JSONEq(t, `[]`, string(p.Actions))
}

func TestStartEdit_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		conditions json.RawMessage
		actions    json.RawMessage
	}{
		{"empty object", raw(`{}`), raw(`[]`)},
		{"object actions", raw(`{"eventType": "ONBOARDING"}`), raw(`{"points": 500, "reason": "Welcome Bonus"}`)},
		{"tiered", raw(`{}`), raw(`[{"type":"TIERED_POINTS","ranges":[{"min":0,"max":100,"points":50,"multiplier":0},{"min":501,"points":500,"multiplier":0.2}]}]`)},
		{"nested conditions", raw(`{"all":[{"fact":"amount","operator":"gte","value":100}]}`), raw(`[{"type":"AWARD_POINTS","points":10}]`)},
		{"large number", raw(`{"limit": 12345678901234567890}`), raw(`[]`)},
		{"null", raw(`null`), raw(`null`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := models.Rule{
				ID:         7,
				RuleType:   models.RuleTypeEvent,
				RuleName:   "r",
				Priority:   3,
				Conditions: tt.conditions,
				Actions:    tt.actions,
			}
			f := &Form{}
			f.StartEdit(in)
			p := f.BuildSubmitPayload()

			assert.Equal(t, ModeEdit, f.Mode())
			assert.Equal(t, int64(7), f.ID())
			assert.JSONEq(t, string(tt.conditions), string(p.Conditions))
			assert.JSONEq(t, string(tt.actions), string(p.Actions))
			assert.Equal(t, 3, p.Priority)
		})
	}
}

func TestStartEdit_StringValuesUsedAsIs(t *testing.T) {
	f := &Form{}
	f.StartEdit(models.Rule{
		RuleType:   models.RuleTypeEvent,
		Conditions: raw(`"{\"a\":1}"`),
		Actions:    raw(`"free text"`),
	})
	assert.Equal(t, `{"a":1}`, f.Conditions())
	assert.Equal(t, "free text", f.Actions())
}

func TestStartEdit_MissingPayloadIsOmitted(t *testing.T) {
	f := &Form{}
	f.StartEdit(models.Rule{ID: 1, RuleType: models.RuleTypeReward, RuleName: "x"})
	p := f.BuildSubmitPayload()
	assert.Nil(t, p.Conditions)
	assert.Nil(t, p.Actions)
}

func TestStartEdit_CopiesProductCodes(t *testing.T) {
	codes := []string{"SKU1", "SKU2"}
	f := &Form{}
	f.StartEdit(models.Rule{RuleType: models.RuleTypeProduct, TargetProductCodes: codes})
	f.ToggleProductTarget("SKU1")
	assert.Equal(t, []string{"SKU1", "SKU2"}, codes)
	assert.Equal(t, []string{"SKU2"}, f.Draft().TargetProductCodes)
}

func TestSetField(t *testing.T) {
	f := New(models.RuleTypeTransaction)

	require.NoError(t, f.SetField(FieldRuleName, "Gold boost"))
	require.NoError(t, f.SetField(FieldPriority, "5"))
	require.NoError(t, f.SetField(FieldIsActive, "false"))
	require.NoError(t, f.SetField(FieldTargetTier, "gold"))
	require.NoError(t, f.SetField(FieldEvaluationType, "MONTHLY"))
	require.NoError(t, f.SetField(FieldValidUntil, "2026-12-31"))

	d := f.Draft()
	assert.Equal(t, "Gold boost", d.RuleName)
	assert.Equal(t, 5, d.Priority)
	assert.False(t, d.IsActive)
	assert.Equal(t, models.TierGold, d.TargetTier)
	assert.Equal(t, models.EvaluationMonthly, d.EvaluationType)
	require.NotNil(t, d.ValidUntil)
	assert.Equal(t, "2026-12-31T23:59:59", *d.ValidUntil)
	assert.Equal(t, "2026-12-31", f.ValidUntilDate())
}

func TestSetField_InvalidNumberBecomesZero(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	require.NoError(t, f.SetField(FieldPriority, "abc"))
	assert.Equal(t, 0, f.Draft().Priority)
}

func TestSetField_Unknown(t *testing.T) {
	f := New(models.RuleTypeEvent)
	err := f.SetField("drl", "rule x")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.False(t, KnownField("drl"))
	assert.True(t, KnownField(FieldValidUntil))
}

func TestSetField_ClearValues(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetValidUntil("2026-01-01")
	f.SetTargetTier(models.TierSilver)

	require.NoError(t, f.SetField(FieldValidUntil, ""))
	require.NoError(t, f.SetField(FieldTargetTier, ""))

	d := f.Draft()
	assert.Nil(t, d.ValidUntil)
	assert.Empty(t, d.TargetTier)
}

func TestTieredRange_AddThenUpdate(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.AddTieredRange()
	f.UpdateTieredRange(0, RangePoints, 50)

	actions := decodeActions(t, f.BuildSubmitPayload())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionTieredPoints, actions[0]["type"])
	ranges := actions[0]["ranges"].([]interface{})
	require.Len(t, ranges, 1)
	assert.Equal(t, float64(50), ranges[0].(map[string]interface{})["points"])
}

func TestTieredRange_NewRangeIsZeroed(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.AddTieredRange()
	assert.JSONEq(t,
		`[{"type":"TIERED_POINTS","ranges":[{"min":0,"max":0,"points":0,"multiplier":0}]}]`,
		f.Actions())
}

func TestTieredRange_Remove(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	for i := 0; i < 4; i++ {
		f.AddTieredRange()
		f.UpdateTieredRange(i, RangeMin, float64(i*100))
	}

	f.RemoveTieredRange(1)

	ranges := f.TieredRanges()
	require.Len(t, ranges, 3)
	assert.Equal(t, []float64{0, 200, 300}, []float64{ranges[0].Min, ranges[1].Min, ranges[2].Min})
}

func TestTieredRange_KeepsOtherActions(t *testing.T) {
	f := &Form{}
	f.StartEdit(models.Rule{
		RuleType: models.RuleTypeTransaction,
		Actions:  raw(`[{"type":"BONUS","points":5},{"type":"TIERED_POINTS","ranges":[{"min":1,"max":10,"points":2,"multiplier":0}]}]`),
	})
	f.AddTieredRange()

	actions := decodeActions(t, f.BuildSubmitPayload())
	require.Len(t, actions, 2)
	assert.Equal(t, "BONUS", actions[0]["type"])
	assert.Len(t, actions[1]["ranges"], 2)
}

func TestTieredRange_AcceptsInvertedAndOverlapping(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.AddTieredRange()
	f.AddTieredRange()
	f.UpdateTieredRange(0, RangeMin, 500)
	f.UpdateTieredRange(0, RangeMax, 100)
	f.UpdateTieredRange(1, RangeMin, 50)
	f.UpdateTieredRange(1, RangeMax, 600)

	ranges := f.TieredRanges()
	require.Len(t, ranges, 2)
	assert.Equal(t, float64(500), ranges[0].Min)
	assert.Equal(t, float64(100), *ranges[0].Max)
	assert.Equal(t, float64(50), ranges[1].Min)
}

func TestTieredRange_NonFiniteValuesBecomeZero(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(models.RuleTypeTransaction)
			f.AddTieredRange()
			f.UpdateTieredRange(0, RangePoints, 10)
			f.AddTieredRange()
			f.UpdateTieredRange(1, RangeMin, tt.value)
			f.UpdateTieredRange(1, RangeMultiplier, tt.value)

			ranges := f.TieredRanges()
			require.Len(t, ranges, 2)
			assert.Equal(t, 10, ranges[0].Points)
			assert.Equal(t, float64(0), ranges[1].Min)
			assert.Equal(t, float64(0), ranges[1].Multiplier)

			actions := decodeActions(t, f.BuildSubmitPayload())
			require.Len(t, actions, 1)
			assert.Len(t, actions[0]["ranges"], 2)
		})
	}
}

func TestStoreActions_UnencodableKeepsText(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.AddTieredRange()
	before := f.Actions()

	f.storeActions([]interface{}{json.Number("NaN")})
	assert.Equal(t, before, f.Actions())
}

func TestTieredRange_MalformedActionsStartOver(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.SetActions("{not json")
	f.AddTieredRange()
	assert.Len(t, f.TieredRanges(), 1)
}

func TestTieredRange_NoOps(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.UpdateTieredRange(0, RangePoints, 5)
	f.RemoveTieredRange(0)
	assert.Equal(t, "[]", f.Actions())

	f.AddTieredRange()
	before := f.Actions()
	f.UpdateTieredRange(3, RangePoints, 5)
	f.UpdateTieredRange(0, "bonus", 5)
	f.RemoveTieredRange(-1)
	assert.Equal(t, before, f.Actions())

	ev := New(models.RuleTypeEvent)
	ev.AddTieredRange()
	assert.Equal(t, "[]", ev.Actions())
}

func TestSetAwardPoints_FreshEventDraft(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetAwardPoints(500)

	assert.JSONEq(t, `[{"type":"AWARD_POINTS","points":500}]`, string(f.BuildSubmitPayload().Actions))
	assert.Equal(t, 500, f.AwardPoints())

	f.SetAwardPoints(750)
	assert.JSONEq(t, `[{"type":"AWARD_POINTS","points":750}]`, f.Actions())
}

func TestSetAwardPoints_ObjectActions(t *testing.T) {
	f := &Form{}
	f.StartEdit(models.Rule{
		RuleType: models.RuleTypeEvent,
		Actions:  raw(`{"points":100,"reason":"Welcome Bonus"}`),
	})
	f.SetAwardPoints(500)
	assert.JSONEq(t, `{"points":500,"reason":"Welcome Bonus"}`, f.Actions())
}

func TestSetAwardPoints_Unparseable(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetActions("{not json")
	f.SetAwardPoints(10)
	assert.Equal(t, "{not json", f.Actions())
	assert.Equal(t, 0, f.AwardPoints())

	f.SetActions("")
	f.SetAwardPoints(10)
	assert.JSONEq(t, `{"points":10}`, f.Actions())
}

func TestAwardPoints_ReadsFirstEntryWithPoints(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetActions(`[{"type":"NOTIFY"},{"points":25},{"type":"AWARD_POINTS","points":40}]`)
	assert.Equal(t, 25, f.AwardPoints())
}

func TestToggleProductTarget_Twice(t *testing.T) {
	f := New(models.RuleTypeProduct)
	f.ToggleProductTarget("SKU0")
	before := f.Draft().TargetProductCodes

	f.ToggleProductTarget("SKU1")
	assert.True(t, f.TargetsProduct("SKU1"))
	f.ToggleProductTarget("SKU1")

	assert.Equal(t, before, f.Draft().TargetProductCodes)
}

func TestSelectAllProducts(t *testing.T) {
	all := []string{"A", "B", "C"}
	f := New(models.RuleTypeProduct)

	f.SelectAllProducts(all)
	assert.Equal(t, all, f.Draft().TargetProductCodes)

	f.SelectAllProducts(all)
	assert.Equal(t, []string{}, f.Draft().TargetProductCodes)

	f.ToggleProductTarget("B")
	f.SelectAllProducts(all)
	assert.Equal(t, all, f.Draft().TargetProductCodes)
}

func TestProductOps_IgnoredOutsideProductRules(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.ToggleProductTarget("A")
	f.SelectAllProducts([]string{"A"})
	assert.Nil(t, f.Draft().TargetProductCodes)
}

func TestBuildSubmitPayload_MalformedPassThrough(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetActions("{not json")
	f.SetConditions(`{"ok":true}`)

	p := f.BuildSubmitPayload()
	assert.Equal(t, raw(`"{not json"`), p.Actions)
	assert.JSONEq(t, `{"ok":true}`, string(p.Conditions))

	var s string
	require.NoError(t, json.Unmarshal(p.Actions, &s))
	assert.Equal(t, "{not json", s)
}

func TestBuildSubmitPayload_TrailingGarbageIsNotJSON(t *testing.T) {
	f := New(models.RuleTypeEvent)
	f.SetConditions(`{} extra`)
	assert.Equal(t, raw(`"{} extra"`), f.BuildSubmitPayload().Conditions)
}

func TestWelcomeBonusScenario(t *testing.T) {
	f := &Form{}
	f.StartEdit(models.Rule{
		RuleType:   models.RuleTypeEvent,
		Priority:   1,
		IsActive:   true,
		RewardType: models.RewardPoints,
		Conditions: raw(`{}`),
		Actions:    raw(`{}`),
	})
	f.SetName("Welcome Bonus")
	f.SetAwardPoints(500)

	body, err := json.Marshal(f.BuildSubmitPayload())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ruleName": "Welcome Bonus",
		"ruleType": "EVENT",
		"rewardType": "POINTS",
		"actions": {"points": 500},
		"conditions": {},
		"isActive": true,
		"priority": 1,
		"targetProductCodes": null
	}`, string(body))
}

func TestBuildStrictPayload(t *testing.T) {
	f := New(models.RuleTypeTransaction)
	f.SetName("tiers")
	f.AddTieredRange()
	f.UpdateTieredRange(0, RangePoints, 10)

	p, err := f.BuildStrictPayload()
	require.NoError(t, err)
	assert.Equal(t, "tiers", p.RuleName)

	f.SetConditions("{bad")
	_, err = f.BuildStrictPayload()
	assert.ErrorIs(t, err, ErrMalformedJSON)

	f.SetConditions("{}")
	f.SetActions(`[{"type":"TIERED_POINTS","ranges":[{"max":5}]}]`)
	_, err = f.BuildStrictPayload()
	assert.ErrorIs(t, err, ErrMalformedAction)

	f.SetName("")
	f.SetActions("[]")
	_, err = f.BuildStrictPayload()
	assert.Error(t, err)
}
