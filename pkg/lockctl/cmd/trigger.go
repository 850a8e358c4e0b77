package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type triggerOptions struct {
	reason         string
	users          []uint
	notifyUser     bool
	notifyAdmins   bool
	notifySecurity bool
}

// notifyOverrides maps only the flags the operator actually set, so
// untouched flags keep the tenant defaults on the server side.
func (o *triggerOptions) notifyOverrides(cmd *cobra.Command) map[string]interface{} {
	body := map[string]interface{}{"reason": o.reason}
	if cmd.Flags().Changed("notify-user") {
		body["notify_user"] = o.notifyUser
	}
	if cmd.Flags().Changed("notify-admins") {
		body["notify_admins"] = o.notifyAdmins
	}
	if cmd.Flags().Changed("notify-security") {
		body["notify_security"] = o.notifySecurity
	}
	return body
}

func NewTriggerCommand() *cobra.Command {
	opts := &triggerOptions{}

	trigger := &cobra.Command{
		Use:   "trigger <user-id>",
		Short: "Lock down a single account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFromCommand(cmd)
			cl, err := newClient(rt)
			if err != nil {
				return err
			}

			userID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			body := opts.notifyOverrides(cmd)
			path := fmt.Sprintf("/api/v3/users/%d/panic-button", userID)
			if err := cl.post(cmd.Context(), path, body); err != nil {
				return err
			}
			fmt.Fprintf(rt.writer, "Account %d locked down\n", userID)
			return nil
		},
	}
	addTriggerFlags(trigger, opts)

	bulk := &cobra.Command{
		Use:   "bulk",
		Short: "Lock down several accounts at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtimeFromCommand(cmd)
			cl, err := newClient(rt)
			if err != nil {
				return err
			}
			if len(opts.users) == 0 {
				return fmt.Errorf("no target users, use --users")
			}

			body := opts.notifyOverrides(cmd)
			body["users"] = opts.users
			if err := cl.post(cmd.Context(), "/api/v3/users/panic-button-bulk", body); err != nil {
				return err
			}
			fmt.Fprintf(rt.writer, "Lockdown submitted for %d account(s)\n", len(opts.users))
			return nil
		},
	}
	addTriggerFlags(bulk, opts)
	bulk.Flags().UintSliceVar(&opts.users, "users", nil, "Target user ids")

	trigger.AddCommand(bulk)
	return trigger
}

func addTriggerFlags(cmd *cobra.Command, opts *triggerOptions) {
	cmd.Flags().StringVar(&opts.reason, "reason", "", "Reason for the lockdown (required)")
	cmd.Flags().BoolVar(&opts.notifyUser, "notify-user", false, "Notify the affected user")
	cmd.Flags().BoolVar(&opts.notifyAdmins, "notify-admins", false, "Notify the administrator group")
	cmd.Flags().BoolVar(&opts.notifySecurity, "notify-security", false, "Notify the security contact")
	_ = cmd.MarkFlagRequired("reason")
}
