package ruleform

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/alexis/lmsadmin/internal/models"
)

// previewRanges is how many tiered ranges a rule summary spells out.
const previewRanges = 3

// Summary is the one-line description of a rule shown in rule lists.
type Summary struct {
	Reward     string   `json:"reward"`
	Ranges     []string `json:"ranges,omitempty"`
	MoreRanges int      `json:"moreRanges,omitempty"`
	Products   []string `json:"products,omitempty"`
	Period     string   `json:"period,omitempty"`
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Reward)
	if len(s.Ranges) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(s.Ranges, ", "))
		if s.MoreRanges > 0 {
			fmt.Fprintf(&b, " (+%d more tiers)", s.MoreRanges)
		}
	}
	if len(s.Products) > 0 {
		b.WriteString(" on ")
		b.WriteString(strings.Join(s.Products, ","))
	}
	return b.String()
}

// Summarize describes a stored rule without decoding its actions fully.
// Actions the summary cannot read are skipped.
func Summarize(r models.Rule) Summary {
	s := Summary{Products: r.TargetProductCodes}
	actions := gjson.ParseBytes(r.Actions)
	if actions.Type == gjson.String {
		actions = gjson.Parse(actions.Str)
	}
	if !gjson.Valid(actions.Raw) {
		actions = gjson.Result{}
	}

	if r.RuleType == models.RuleTypeTransaction {
		s.Reward = "Tiered Points"
		s.Period = string(r.EvaluationType)
		if s.Period == "" {
			s.Period = "Per Transaction"
		}
		if !actions.IsArray() {
			return s
		}
		ranges := actions.Get(`#(type=="TIERED_POINTS").ranges`).Array()
		for i, rng := range ranges {
			if i == previewRanges {
				s.MoreRanges = len(ranges) - previewRanges
				break
			}
			s.Ranges = append(s.Ranges, describeRange(rng))
		}
		return s
	}

	s.Reward = string(r.RewardType)
	if s.Reward == "" {
		s.Reward = "Points"
	}
	if points, ok := peekPoints(actions); ok {
		s.Reward = fmt.Sprintf("%s %d", s.Reward, points)
	}
	return s
}

func describeRange(r gjson.Result) string {
	upper := "∞"
	if max := r.Get("max"); max.Exists() && max.Float() != 0 {
		upper = "$" + max.String()
	}
	out := fmt.Sprintf("$%s - %s: +%d pts", r.Get("min").String(), upper, r.Get("points").Int())
	if m := r.Get("multiplier").Float(); m > 0 {
		out += fmt.Sprintf(" +%gx", m)
	}
	return out
}

func peekPoints(actions gjson.Result) (int64, bool) {
	if actions.IsObject() {
		p := actions.Get("points")
		return p.Int(), p.Exists()
	}
	var (
		points int64
		found  bool
	)
	if actions.IsArray() {
		actions.ForEach(func(_, a gjson.Result) bool {
			if p := a.Get("points"); p.Exists() {
				points, found = p.Int(), true
				return false
			}
			return true
		})
	}
	return points, found
}
