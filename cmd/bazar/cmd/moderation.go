package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// operatorID marks changes made from the command line.
const operatorID = "cli"

func BanCmd() *cobra.Command {
	var (
		reason   string
		days     int
		provider string
	)

	cmd := &cobra.Command{
		Use:   "ban <email>",
		Short: "Ban an account, permanently unless --days is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := findUser(cmd.Context(), a, args[0], provider)
			if err != nil {
				return err
			}

			var expiresAt *time.Time
			if days > 0 {
				t := time.Now().UTC().AddDate(0, 0, days)
				expiresAt = &t
			}

			if err := a.BanService.Ban(cmd.Context(), user.ID, reason, expiresAt, operatorID); err != nil {
				return err
			}

			if expiresAt == nil {
				fmt.Printf("banned %s (%s) permanently\n", user.Email, user.Provider)
			} else {
				fmt.Printf("banned %s (%s) until %s\n", user.Email, user.Provider, expiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the user (required)")
	cmd.Flags().IntVar(&days, "days", 0, "Ban length in days, 0 for permanent")
	cmd.Flags().StringVar(&provider, "provider", "", "password or google, when both exist")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func UnbanCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "unban <email>",
		Short: "Lift a ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := findUser(cmd.Context(), a, args[0], provider)
			if err != nil {
				return err
			}

			if err := a.BanService.Unban(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Printf("unbanned %s (%s)\n", user.Email, user.Provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "password or google, when both exist")
	return cmd
}

func AdminCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant or revoke admin access",
	}
	cmd.PersistentFlags().StringVar(&provider, "provider", "", "password or google, when both exist")

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <email>",
		Short: "Make an account an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := findUser(cmd.Context(), a, args[0], provider)
			if err != nil {
				return err
			}
			if err := a.AdminService.Grant(cmd.Context(), user.ID, operatorID); err != nil {
				return err
			}
			fmt.Printf("granted admin to %s (%s)\n", user.Email, user.Provider)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <email>",
		Short: "Remove admin access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := findUser(cmd.Context(), a, args[0], provider)
			if err != nil {
				return err
			}
			if err := a.AdminService.Revoke(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Printf("revoked admin from %s (%s)\n", user.Email, user.Provider)
			return nil
		},
	})

	return cmd
}
