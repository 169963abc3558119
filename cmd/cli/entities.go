package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/render"
	"github.com/nimasrn/campaign-console/internal/services"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List and manage the steps of a campaign",
}

var stepsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the steps of the selected campaign",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := console.Console.ListSteps(ctx, optionalString(cmd, "campaign"))
		if err != nil {
			return err
		}
		if snap.Err != nil {
			return snap.Err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.Steps(console.Console.Session().ActiveCampaignID, snap.Items))
		return nil
	},
}

var stepsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a step to the selected campaign",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := stepPayload(cmd)
		if err != nil {
			return err
		}
		var campaignID int64
		if field := optionalString(cmd, "campaign"); field != nil {
			if campaignID, err = campaignArg(*field); err != nil {
				return err
			}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		if _, err = console.Console.CreateStep(ctx, campaignID, p); err != nil {
			return flushNotices(cmd.OutOrStdout(), err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, render.Steps(console.Console.Session().ActiveCampaignID, console.Console.StepsSnapshot().Items))
		return flushNotices(out, nil)
	},
}

var stepsDeleteCmd = &cobra.Command{
	Use:   "delete <step-id>",
	Short: "Delete a step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := positiveArg("step", args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return flushNotices(cmd.OutOrStdout(), console.Console.DeleteStep(ctx, id))
	},
}

var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "Inspect message executions of a campaign",
}

var executionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List executions; step, customer and status filters are combined",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := console.Console.ListExecutions(ctx, services.ExecutionQuery{
			CampaignField: optionalString(cmd, "campaign"),
			StepField:     optionalString(cmd, "step"),
			CustomerField: optionalString(cmd, "customer"),
			StatusField:   optionalString(cmd, "status"),
		})
		if err != nil {
			return err
		}
		if snap.Err != nil {
			return snap.Err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.Executions(console.Console.Session().ActiveCampaignID, snap.Items))
		return nil
	},
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Show customer progress and pause or resume customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customer progress of the selected campaign",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := console.Console.ListProgress(ctx, optionalString(cmd, "campaign"))
		if err != nil {
			return err
		}
		if snap.Err != nil {
			return snap.Err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.Progress(console.Console.Session().ActiveCampaignID, snap.Items))
		return nil
	},
}

var customersPauseCmd = &cobra.Command{
	Use:   "pause <customer-id>",
	Short: "Pause a customer in the selected campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  customerCommand((*services.ConsoleService).PauseCustomer),
}

var customersResumeCmd = &cobra.Command{
	Use:   "resume <customer-id>",
	Short: "Resume a paused customer in the selected campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  customerCommand((*services.ConsoleService).ResumeCustomer),
}

func init() {
	for _, c := range []*cobra.Command{stepsListCmd, stepsCreateCmd, executionsListCmd, customersListCmd, customersPauseCmd, customersResumeCmd} {
		c.Flags().String("campaign", "", "Campaign id (default: the selected campaign)")
	}

	stepsCreateCmd.Flags().Int("order", 0, "Position of the step, unique within the campaign")
	stepsCreateCmd.Flags().String("channel", "", "MIXED, EMAIL, WHATSAPP or SMS (default MIXED)")
	stepsCreateCmd.Flags().Int("delay", 0, "Days to wait after the previous step")
	stepsCreateCmd.Flags().Int64("template", 0, "Template id")
	stepsCreateCmd.Flags().String("subject", "", "Inline subject")
	stepsCreateCmd.Flags().String("body", "", "Inline body")
	stepsCreateCmd.Flags().String("content-sid", "", "External content id")
	stepsCreateCmd.Flags().String("filters", "", "Filter rules as a JSON object")
	stepsCreateCmd.Flags().String("variables", "", "Content variables as a JSON object")

	executionsListCmd.Flags().String("step", "", "Only this step id")
	executionsListCmd.Flags().String("customer", "", "Only this customer id")
	executionsListCmd.Flags().String("status", "", "Only this execution status")

	stepsCmd.AddCommand(stepsListCmd, stepsCreateCmd, stepsDeleteCmd)
	executionsCmd.AddCommand(executionsListCmd)
	customersCmd.AddCommand(customersListCmd, customersPauseCmd, customersResumeCmd)
}

func positiveArg(field, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(field, "must be a positive integer")
	}
	return id, nil
}

// stepPayload builds a create payload from the flags that were given.
func stepPayload(cmd *cobra.Command) (model.StepPayload, error) {
	var p model.StepPayload
	flags := cmd.Flags()
	if flags.Changed("order") {
		v, _ := flags.GetInt("order")
		p.OrderNo = model.Some(v)
	}
	if flags.Changed("channel") {
		v, _ := flags.GetString("channel")
		ch, err := model.ParseChannel(v)
		if err != nil {
			return p, err
		}
		p.Channel = model.Some(ch)
	}
	if flags.Changed("delay") {
		v, _ := flags.GetInt("delay")
		p.DelayDays = model.Some(v)
	}
	if flags.Changed("template") {
		v, _ := flags.GetInt64("template")
		p.TemplateID = model.Some(&v)
	}
	if v := optionalString(cmd, "subject"); v != nil {
		p.Subject = model.Some(*v)
	}
	if v := optionalString(cmd, "body"); v != nil {
		p.Body = model.Some(*v)
	}
	if v := optionalString(cmd, "content-sid"); v != nil {
		p.ContentSID = model.Some(*v)
	}
	if v := optionalString(cmd, "filters"); v != nil {
		m, err := model.ParseKVMap("filter_rules", *v)
		if err != nil {
			return p, err
		}
		p.FilterRules = model.Some(m)
	}
	if v := optionalString(cmd, "variables"); v != nil {
		m, err := model.ParseKVMap("content_variables", *v)
		if err != nil {
			return p, err
		}
		p.ContentVariables = model.Some(m)
	}
	return p, nil
}

func customerCommand(fn func(*services.ConsoleService, context.Context, int64, int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		customerID, err := positiveArg("customer", args[0])
		if err != nil {
			return err
		}
		var campaignID int64
		if field := optionalString(cmd, "campaign"); field != nil {
			if campaignID, err = campaignArg(*field); err != nil {
				return err
			}
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return flushNotices(cmd.OutOrStdout(), fn(console.Console, ctx, campaignID, customerID))
	}
}
