package main

import (
	"testing"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFormFlags_OnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "edit"}
	formFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--name", "Renamed", "--run-now"}))

	f := applyFormFlags(cmd, wizard.Form{Name: "Old", Channel: "EMAIL", CustomerIDs: "1,2"})
	assert.Equal(t, "Renamed", f.Name)
	assert.Equal(t, "EMAIL", f.Channel)
	assert.Equal(t, "1,2", f.CustomerIDs)
	assert.True(t, f.RunImmediately)
}

func TestStepPayload(t *testing.T) {
	cmd := &cobra.Command{Use: "create"}
	cmd.Flags().Int("order", 0, "")
	cmd.Flags().String("channel", "", "")
	cmd.Flags().Int("delay", 0, "")
	cmd.Flags().Int64("template", 0, "")
	for _, name := range []string{"subject", "body", "content-sid", "filters", "variables"} {
		cmd.Flags().String(name, "", "")
	}
	require.NoError(t, cmd.ParseFlags([]string{"--order", "2", "--channel", "sms", "--filters", `{"tier":"gold"}`}))

	p, err := stepPayload(cmd)
	require.NoError(t, err)
	assert.Equal(t, model.Some(2), p.OrderNo)
	assert.Equal(t, model.Some(model.ChannelSMS), p.Channel)
	assert.False(t, p.DelayDays.Set)
	assert.False(t, p.Subject.Set)
	require.True(t, p.FilterRules.Set)
	v, ok := p.FilterRules.Value.String("tier")
	assert.True(t, ok)
	assert.Equal(t, "gold", v)
}

func TestStepPayload_BadChannel(t *testing.T) {
	cmd := &cobra.Command{Use: "create"}
	cmd.Flags().String("channel", "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--channel", "fax"}))

	_, err := stepPayload(cmd)
	assert.Error(t, err)
}

func TestCampaignArg(t *testing.T) {
	id, err := campaignArg("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = campaignArg("-1")
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "campaign", verr.Field)
}
