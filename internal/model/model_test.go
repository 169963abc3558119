package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaign_Lifecycle(t *testing.T) {
	tests := []struct {
		status     CampaignStatus
		start      bool
		stop       bool
		edit       bool
		canDelete  bool
		isTerminal bool
	}{
		{CampaignStatusDraft, true, false, true, true, false},
		{CampaignStatusScheduled, true, false, true, true, false},
		{CampaignStatusRunning, false, true, false, false, false},
		{CampaignStatusCompleted, false, false, false, true, true},
		{CampaignStatusStopped, false, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := &Campaign{Status: tt.status}
			assert.Equal(t, tt.start, c.CanStart())
			assert.Equal(t, tt.stop, c.CanStop())
			assert.Equal(t, tt.edit, c.CanEdit())
			assert.Equal(t, tt.canDelete, c.CanDelete())
			assert.Equal(t, tt.isTerminal, c.IsTerminal())
		})
	}
}

func TestCampaign_AvailableActions(t *testing.T) {
	running := &Campaign{Status: CampaignStatusRunning}
	assert.Equal(t, []CampaignAction{ActionStop, ActionSteps, ActionExecutions, ActionCustomers}, running.AvailableActions())
	assert.False(t, running.Allows(ActionStart))

	draft := &Campaign{Status: CampaignStatusDraft}
	assert.True(t, draft.Allows(ActionStart))
	assert.False(t, draft.Allows(ActionStop))
}

func TestCampaign_UnmarshalNormalizesEnums(t *testing.T) {
	var c Campaign
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"acme","channel":"email","status":"running"}`), &c))
	assert.Equal(t, ChannelEmail, c.Channel)
	assert.Equal(t, CampaignStatusRunning, c.Status)
}

func TestParseStatusAndChannel(t *testing.T) {
	st, err := ParseStatus(" scheduled ")
	require.NoError(t, err)
	assert.Equal(t, CampaignStatusScheduled, st)

	st, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, CampaignStatus(""), st)

	_, err = ParseStatus("paused")
	assert.Error(t, err)

	ch, err := ParseChannel("WhatsApp")
	require.NoError(t, err)
	assert.Equal(t, ChannelWhatsApp, ch)

	_, err = ParseChannel("fax")
	assert.Error(t, err)
}

func TestParseKVMap(t *testing.T) {
	t.Run("object keeps key order", func(t *testing.T) {
		kv, err := ParseKVMap("filter_rules", `{"zeta": 1, "alpha": {"in": [1,2]}, "mid": "x"}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, kv.Keys())

		b, err := json.Marshal(kv)
		require.NoError(t, err)
		assert.Equal(t, `{"zeta":1,"alpha":{"in":[1,2]},"mid":"x"}`, string(b))
	})

	t.Run("blank is nil", func(t *testing.T) {
		kv, err := ParseKVMap("filter_rules", "   ")
		require.NoError(t, err)
		assert.Nil(t, kv)
	})

	for _, bad := range []string{`[1,2]`, `"text"`, `42`, `null`, `{"a":1} trailing`, `{broken`} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseKVMap("content_variables", bad)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "content_variables", verr.Field)
		})
	}
}

func TestKVMap_Equal(t *testing.T) {
	a, _ := ParseKVMap("f", `{"a":1,"b":2}`)
	b, _ := ParseKVMap("f", `{ "a" : 1, "b" : 2 }`)
	c, _ := ParseKVMap("f", `{"b":2,"a":1}`)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, (*KVMap)(nil).Equal(NewKVMap()))
}

func TestCampaignPayload_JSON(t *testing.T) {
	t.Run("present nil fields are sent as null", func(t *testing.T) {
		p := CampaignPayload{
			Name:           Some("Spring"),
			CustomerIDs:    Some[[]int64](nil),
			FilterRules:    Some[*KVMap](nil),
			RunImmediately: Some(true),
			ScheduleTime:   Some[*time.Time](nil),
		}
		b, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Spring","customer_ids":[],"filter_rules":null,"run_immediately":true,"schedule_time":null}`, string(b))
	})

	t.Run("absent fields are omitted", func(t *testing.T) {
		b, err := json.Marshal(CampaignPayload{Name: Some("only")})
		require.NoError(t, err)
		assert.Equal(t, `{"name":"only"}`, string(b))
	})

	t.Run("decode tracks presence", func(t *testing.T) {
		var p CampaignPayload
		require.NoError(t, json.Unmarshal([]byte(`{"filter_rules":null,"name":"x"}`), &p))
		assert.True(t, p.FilterRules.Set)
		assert.Nil(t, p.FilterRules.Value)
		assert.True(t, p.Name.Set)
		assert.False(t, p.CustomerIDs.Set)
		assert.False(t, p.IsEmpty())
	})
}

func TestStep_ContentSource(t *testing.T) {
	tpl := int64(3)
	assert.Equal(t, ContentNone, (&Step{}).ContentSource())
	assert.Equal(t, ContentTemplate, (&Step{TemplateID: &tpl}).ContentSource())
	assert.Equal(t, ContentInline, (&Step{Body: "hi"}).ContentSource())
	assert.Equal(t, ContentExternal, (&Step{ContentSID: "HX1"}).ContentSource())
	assert.Equal(t, ContentMixed, (&Step{TemplateID: &tpl, ContentSID: "HX1"}).ContentSource())
}

func TestExecutionFilter_Matches(t *testing.T) {
	step, customer := int64(7), int64(100)
	f := ExecutionFilter{StepID: &step, CustomerID: &customer}

	assert.True(t, f.Matches(&Execution{StepID: 7, CustomerID: 100, Status: "sent"}))
	assert.False(t, f.Matches(&Execution{StepID: 7, CustomerID: 101}))
	assert.False(t, f.Matches(&Execution{StepID: 8, CustomerID: 100}))

	f.Status = "failed"
	assert.False(t, f.Matches(&Execution{StepID: 7, CustomerID: 100, Status: "sent"}))
}

func TestCustomerProgress_NextAction(t *testing.T) {
	assert.Equal(t, CustomerActionPause, (&CustomerProgress{}).NextAction())
	assert.Equal(t, CustomerActionResume, (&CustomerProgress{Paused: true}).NextAction())
}
