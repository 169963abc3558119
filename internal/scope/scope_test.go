package scope

import (
	"testing"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCampaignID(t *testing.T) {
	tests := []struct {
		name       string
		explicit   int64
		field      string
		lastActive int64
		want       int64
		wantErr    error
	}{
		{name: "explicit wins", explicit: 5, field: "6", lastActive: 7, want: 5},
		{name: "field before last active", field: " 6 ", lastActive: 7, want: 6},
		{name: "last active fallback", field: "  ", lastActive: 7, want: 7},
		{name: "nothing resolves", wantErr: ErrNoCampaignScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCampaignID(tt.explicit, tt.field, tt.lastActive)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("bad field is a validation error", func(t *testing.T) {
		_, err := ResolveCampaignID(0, "abc", 7)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "campaign_id", verr.Field)
	})
}

func TestFilterCampaigns(t *testing.T) {
	// rows as returned by GET /campaigns?status=RUNNING
	running := []*model.Campaign{
		{ID: 1, Name: "ACME spring", CreatedBy: "ops", Status: model.CampaignStatusRunning},
		{ID: 2, Name: "Winter", CreatedBy: "acme-team", Status: model.CampaignStatusRunning},
		{ID: 3, Name: "Other", CreatedBy: "ops", Status: model.CampaignStatusRunning},
		{ID: 31, Name: "Else", CreatedBy: "ops", Status: model.CampaignStatusRunning},
	}

	got := FilterCampaigns(running, "acme")
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	byID := FilterCampaigns(running, "3")
	assert.Len(t, byID, 2)

	assert.Len(t, FilterCampaigns(running, ""), 4)
}

func TestParseExecutionFilter(t *testing.T) {
	f, err := ParseExecutionFilter("7", "100", " sent ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), *f.StepID)
	assert.Equal(t, int64(100), *f.CustomerID)
	assert.Equal(t, "sent", f.Status)

	f, err = ParseExecutionFilter("", "", "")
	require.NoError(t, err)
	assert.Nil(t, f.StepID)
	assert.Nil(t, f.CustomerID)

	_, err = ParseExecutionFilter("-1", "", "")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "step_id", verr.Field)
}

func TestExecutionScope(t *testing.T) {
	step := int64(7)
	assert.Equal(t, "campaign=42&step=7&status=failed", string(ExecutionScope(42, model.ExecutionFilter{StepID: &step, Status: "failed"})))
	assert.Equal(t, "campaign=42", string(ExecutionScope(42, model.ExecutionFilter{})))
	assert.Equal(t, "status=*", string(CampaignListScope("")))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	p := Paginate(items, 1, 0)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 0, p.Items[0])

	p = Paginate(items, 3, 20)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, 40, p.Items[0])

	p = Paginate(items, 99, 20)
	assert.Equal(t, 3, p.Page)

	p = Paginate(items, -1, 1000)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Len(t, p.Items, 45)

	empty := Paginate([]int{}, 2, 10)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.Pages)
	assert.Empty(t, empty.Items)
}

func TestCampaignOf(t *testing.T) {
	step := int64(7)
	id, ok := CampaignOf(ExecutionScope(42, model.ExecutionFilter{StepID: &step}))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	id, ok = CampaignOf(CampaignScope(5))
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	_, ok = CampaignOf(CampaignListScope("RUNNING"))
	assert.False(t, ok)
	_, ok = CampaignOf("")
	assert.False(t, ok)
}
