package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/render"
	"github.com/nimasrn/campaign-console/internal/services"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/spf13/cobra"
)

var campaignsCmd = &cobra.Command{
	Use:     "campaigns",
	Aliases: []string{"campaign", "c"},
	Short:   "List and manage campaigns",
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns, optionally filtered by status and keyword",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("page-size")
		p, err := console.Console.ListCampaigns(ctx, services.CampaignQuery{
			Status:   optionalString(cmd, "status"),
			Keyword:  optionalString(cmd, "q"),
			Page:     page,
			PageSize: size,
			Refresh:  true,
		})
		if err != nil && p.Error == "" {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.Campaigns(p))
		return nil
	},
}

var campaignsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a campaign the active scope and open one of its views",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := campaignArg(args[0])
		if err != nil {
			return err
		}
		view, _ := cmd.Flags().GetString("view")
		tab, ok := session.ParseTab(view)
		if !ok {
			return model.NewValidationError("view", "must be steps, executions or customers")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := console.Console.Select(ctx, id, tab); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch tab {
		case session.TabSteps:
			fmt.Fprint(out, render.Steps(id, console.Console.StepsSnapshot().Items))
		case session.TabExecutions:
			fmt.Fprint(out, render.Executions(id, console.Console.ExecutionsSnapshot().Items))
		case session.TabCustomers:
			fmt.Fprint(out, render.Progress(id, console.Console.ProgressSnapshot().Items))
		}
		return nil
	},
}

var campaignsStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start a draft or scheduled campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  lifecycleCommand((*services.ConsoleService).StartCampaign),
}

var campaignsStopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Stop a running campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  lifecycleCommand((*services.ConsoleService).StopCampaign),
}

var campaignsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a campaign that is not running",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := campaignArg(args[0])
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return flushNotices(cmd.OutOrStdout(), console.Console.DeleteCampaign(ctx, id, yes))
	},
}

var campaignsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign through the wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, 0)
	},
}

var campaignsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a draft or scheduled campaign; only changed fields are sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := campaignArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := console.Console.ReloadCampaigns(ctx); err != nil {
			return err
		}
		return runWizard(cmd, id)
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded operator actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		f := model.ActionRecordFilter{}
		f.Action, _ = cmd.Flags().GetString("action")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		if field := optionalString(cmd, "campaign"); field != nil {
			id, err := campaignArg(*field)
			if err != nil {
				return err
			}
			f.CampaignID = &id
		}
		records, _, err := console.Console.Journal(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.Journal(records))
		return nil
	},
}

func init() {
	campaignsListCmd.Flags().String("status", "", "Server-side status filter (empty for all)")
	campaignsListCmd.Flags().String("q", "", "Keyword matched against name and creator")
	campaignsListCmd.Flags().Int("page", 1, "Page number")
	campaignsListCmd.Flags().Int("page-size", 0, "Rows per page")

	campaignsSelectCmd.Flags().String("view", "steps", "View to open: steps, executions or customers")
	campaignsDeleteCmd.Flags().BoolP("yes", "y", false, "Confirm the deletion")

	for _, c := range []*cobra.Command{campaignsCreateCmd, campaignsEditCmd} {
		formFlags(c)
	}

	journalCmd.Flags().String("campaign", "", "Only actions on this campaign")
	journalCmd.Flags().String("action", "", "Only this action, e.g. start_campaign")
	journalCmd.Flags().Int("limit", 50, "Maximum rows")

	campaignsCmd.AddCommand(campaignsListCmd, campaignsSelectCmd, campaignsStartCmd, campaignsStopCmd,
		campaignsDeleteCmd, campaignsCreateCmd, campaignsEditCmd)
	rootCmd.AddCommand(journalCmd)
}

func campaignArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("campaign", "must be a positive integer")
	}
	return id, nil
}

func lifecycleCommand(fn func(*services.ConsoleService, context.Context, int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := campaignArg(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return flushNotices(cmd.OutOrStdout(), fn(console.Console, ctx, id))
	}
}

func formFlags(c *cobra.Command) {
	c.Flags().String("name", "", "Campaign name")
	c.Flags().String("channel", "", "MIXED, EMAIL, WHATSAPP or SMS")
	c.Flags().String("created-by", "", "Creator shown in the list")
	c.Flags().String("customers", "", "Comma separated customer ids")
	c.Flags().String("filters", "", "Filter rules as a JSON object")
	c.Flags().Bool("run-now", false, "Start the campaign immediately")
	c.Flags().String("schedule", "", "Schedule time, RFC3339 or 2006-01-02T15:04")
}

// applyFormFlags overwrites only the fields whose flags were given.
func applyFormFlags(cmd *cobra.Command, f wizard.Form) wizard.Form {
	set := func(flag string, dst *string) {
		if v := optionalString(cmd, flag); v != nil {
			*dst = *v
		}
	}
	set("name", &f.Name)
	set("channel", &f.Channel)
	set("created-by", &f.CreatedBy)
	set("customers", &f.CustomerIDs)
	set("filters", &f.FilterRules)
	set("schedule", &f.ScheduleTime)
	if cmd.Flags().Changed("run-now") {
		f.RunImmediately, _ = cmd.Flags().GetBool("run-now")
	}
	return f
}

// runWizard fills the wizard from flags, walks it to the review screen and
// submits. campaignID zero creates a campaign.
func runWizard(cmd *cobra.Command, campaignID int64) error {
	svc := console.Console
	st, err := svc.OpenWizard(campaignID)
	if err != nil {
		return err
	}
	defer svc.CloseWizard()

	if st, err = svc.UpdateWizardForm(applyFormFlags(cmd, st.Form)); err != nil {
		return err
	}
	for !st.IsFinal {
		if st, err = svc.WizardNext(); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, render.Wizard(st))

	ctx, cancel := commandContext(cmd)
	defer cancel()
	c, err := svc.SubmitWizard(ctx)
	if errors.Is(err, wizard.ErrNoChanges) {
		return flushNotices(out, nil)
	}
	if err != nil {
		return flushNotices(out, err)
	}
	fmt.Fprintln(out, render.Campaign(c))
	return flushNotices(out, nil)
}
