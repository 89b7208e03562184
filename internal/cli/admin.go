package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users, prompts and the document tester",
		Long: `Administrative commands. Log in first with consultctl admin login.

Examples:
  consultctl admin login --username admin
  consultctl admin users --limit 20
  consultctl admin user 9876543210
  consultctl admin prompt-set maya_system --file maya.txt
  consultctl admin rag upload notes.pdf`,
	}

	cmd.AddCommand(
		newAdminLoginCmd(a),
		&cobra.Command{
			Use:   "logout",
			Short: "End the admin session",
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.session.AdminToken() != "" {
					if err := a.api.AdminLogout(cmd.Context()); err != nil {
						a.printf("Server logout failed: %s\n", errorText(err))
					}
				}
				return a.session.EndAdmin()
			},
		},
		newAdminUsersCmd(a),
		newAdminUserCmd(a),
		newAdminPromptsCmd(a),
		newAdminPromptSetCmd(a),
		newAdminRAGCmd(a),
	)
	return cmd
}

func newAdminLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start an admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := a.prompt("Password: ")
				if err != nil {
					return err
				}
				password = p
			}

			resp, err := a.api.AdminLogin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.session.BeginAdmin(resp.Token); err != nil {
				return err
			}
			a.printf("Admin session valid until %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when empty)")
	return cmd
}

func newAdminUsersCmd(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			page, err := a.api.AdminUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			a.printf("Users (%d of %d):\n\n", len(page.Items), page.Total)
			for _, u := range page.Items {
				a.printf("%s  %-20s %-10s %10.2f  %d sessions\n", u.Mobile, u.Name, u.Status, u.Balance, u.SessionCount)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	return cmd
}

func newAdminUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "user <mobile>",
		Short: "Show a user's profile, sessions and feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			d, err := a.api.AdminUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a.printf("%s  %s  (%s)\n", d.User.Mobile, d.User.Name, d.User.Status)
			a.printf("Balance: %.2f\n", d.Balance)
			if p := d.Profile; p != nil {
				a.printf("Born %s %s at %s (%s, %s), %s chart\n",
					p.DateOfBirth, p.TimeOfBirth, p.PlaceOfBirth, p.Latitude, p.Longitude, p.ChartStyle)
			}
			a.printf("\nSessions (%d):\n", len(d.Sessions))
			for _, s := range d.Sessions {
				a.printf("  %s  %s  %d messages  %s\n", s.Timestamp.Format("2006-01-02 15:04"), s.SessionID, len(s.Messages), s.Summary)
			}
			if len(d.Feedback) > 0 {
				a.printf("\nFeedback:\n")
				for _, f := range d.Feedback {
					a.printf("  %s  %d/5  %s\n", f.SessionID, f.Rating, f.Feedback)
				}
			}
			return nil
		},
	}
}

func newAdminPromptsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List persona prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			prompts, err := a.api.AdminPrompts(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range prompts {
				a.printf("== %s (updated %s)\n%s\n\n", p.Name, p.UpdatedAt.Format("2006-01-02"), p.Content)
			}
			return nil
		},
	}
}

func newAdminPromptSetCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "prompt-set <name>",
		Short: "Replace a persona prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read prompt: %w", err)
			}

			p, err := a.api.AdminUpdatePrompt(cmd.Context(), args[0], string(content))
			if err != nil {
				return err
			}
			a.printf("Updated %s\n", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the new prompt text")
	return cmd
}

func newAdminRAGCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rag",
		Short: "Try retrieval against an uploaded document",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "upload <file>",
			Short: "Upload a PDF or text document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireAdmin(); err != nil {
					return err
				}
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				doc, err := a.api.RAGUpload(cmd.Context(), filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				a.printf("Uploaded %s as %s (%d characters)\n", doc.Filename, doc.ID, doc.Characters)
				return nil
			},
		},
		&cobra.Command{
			Use:   "process <id>",
			Short: "Chunk and embed an uploaded document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireAdmin(); err != nil {
					return err
				}
				doc, err := a.api.RAGProcess(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printf("%s is %s with %d chunks\n", doc.ID, doc.Status, doc.Chunks)
				return nil
			},
		},
		&cobra.Command{
			Use:   "chat <id> <question>",
			Short: "Ask a question answered from the document",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireAdmin(); err != nil {
					return err
				}
				resp, err := a.api.RAGChat(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				a.printf("%s\n\nSources:\n", resp.Answer)
				for _, c := range resp.Chunks {
					a.printf("  #%d (%.2f) %s\n", c.Index, c.Similarity, truncate(c.Content, 80))
				}
				return nil
			},
		},
	)
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
