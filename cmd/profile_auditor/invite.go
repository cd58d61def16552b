package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

var invite types.InviteRequest

var inviteCmd = &cobra.Command{
	Use:   "invite <resume-id>",
	Short: "Email an interview invitation to the candidate",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvite,
}

func init() {
	inviteCmd.Flags().StringVar(&invite.Message, "message", "", "Personal message included in the email")
	inviteCmd.Flags().StringVar(&invite.InterviewDate, "date", "", "Interview date")
	inviteCmd.Flags().StringVar(&invite.InterviewLocation, "location", "", "Interview location")
	rootCmd.AddCommand(inviteCmd)
}

func runInvite(cmd *cobra.Command, args []string) error {
	if err := invite.Validate(); err != nil {
		return fmt.Errorf("invalid invitation: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := newClient(cfg).SendInvitation(cmd.Context(), args[0], invite)
	if err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}

	newPrinter(cmd).PrintInvite(result)
	return nil
}
