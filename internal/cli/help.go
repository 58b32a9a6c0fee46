package cli

import (
	"context"
	"strings"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"

	"github.com/spf13/cobra"
)

func newContactCmd(app *App) *cobra.Command {
	var f form.ContactForm
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the administrators",
		Args:  cobra.NoArgs,
		Example: strings.TrimSpace(`
  taskdesk contact --subject "Export" --message "Can I export my tasks?"
  taskdesk contact --name Bob --email bob@example.com --subject Hi --stdin < message.txt
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				m, err := readAll(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				f.Message = m
			}
			return app.run(cmd, guard.RouteHelp, func(ctx context.Context, b *backend) error {
				// Signed-in users do not have to repeat who they are.
				if u := b.session.User(); u != nil {
					if strings.TrimSpace(f.Name) == "" {
						f.Name = u.Username
					}
					if strings.TrimSpace(f.Email) == "" {
						f.Email = u.Email
					}
				}
				if err := check(ctx, f); err != nil {
					return err
				}
				if err := b.client.SubmitContact(ctx, f.Payload()); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"sent": true, "subject": f.Payload().Subject}})
			})
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "Your name (default: username when signed in)")
	cmd.Flags().StringVar(&f.Email, "email", "", "Reply address (default: account email when signed in)")
	cmd.Flags().StringVar(&f.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&f.Message, "message", "", "Message")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the message from stdin")
	return cmd
}

func newFAQCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "faq [query]",
		Short: "Search the frequently asked questions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			out := filter.FAQ(filter.DefaultFAQ, q)
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"count": len(out), "total": len(filter.DefaultFAQ)},
			})
		},
	}
}
