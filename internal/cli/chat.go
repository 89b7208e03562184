package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/config"
	"github.com/astroconsult/consult-server-go/internal/consult"
)

func newChatCmd(a *app) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start or resume a consultation",
		Long: `Chat with Maya and Guruji. Type a question and press enter.

Commands inside the chat:
  /end      end the session, read the summary and leave feedback
  /balance  show the wallet balance
  /quit     leave without ending the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			return a.runChat(cmd.Context(), !fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "new", false, "start a new session instead of resuming the latest")
	return cmd
}

func (a *app) runChat(ctx context.Context, resume bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wallet := consult.NewWallet()
	poller := consult.NewReadinessPoller(a.api, a.session, wallet, config.ReadinessPollInterval)
	poller.OnChange(func(s client.Status) {
		switch s {
		case client.StatusProcessing:
			a.printf("Preparing your chart...\n")
		case client.StatusFailed:
			a.printf("Chart preparation failed; answers may be less personal.\n")
		}
	})

	chat := consult.NewChatSession(a.api, a.session, wallet, poller, config.ChatInactivityTimeout, func() {
		a.printf("\nStill there? Type /end to finish this session.\n")
	})
	if err := chat.Start(); err != nil {
		return err
	}
	defer chat.Close()

	poller.Start(ctx)
	defer poller.Stop()

	if resume {
		if ok, err := chat.Resume(ctx); err != nil {
			a.printf("Could not load earlier sessions: %s\n", client.UserMessage(err))
		} else if ok {
			a.printf("Resumed session %s\n", chat.SessionID())
		}
	}
	for _, m := range chat.Messages() {
		a.printMessage(m)
	}

	for {
		line, err := a.prompt("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/balance":
			if balance, ok := wallet.Balance(); ok {
				a.printf("Balance: %.2f\n", balance)
			} else {
				a.printf("Balance not known yet.\n")
			}
			continue
		case "/end":
			return a.endChat(ctx, chat)
		}

		if !poller.Ready() {
			a.waitReady(ctx, poller)
		}

		reply, err := chat.Send(ctx, line)
		if reply != nil {
			a.printMessage(*reply)
		} else if err != nil {
			a.printf("%s\n", errorText(err))
		}
		if balance, ok := wallet.Balance(); ok && reply != nil && reply.Premium() {
			a.printf("Balance: %.2f\n", balance)
		}
	}
}

func (a *app) waitReady(ctx context.Context, poller *consult.ReadinessPoller) {
	done := poller.Done()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (a *app) endChat(ctx context.Context, chat *consult.ChatSession) error {
	summary, err := chat.End(ctx)
	if err != nil {
		a.printf("Could not end the session: %s\n", client.UserMessage(err))
		return nil
	}
	a.printf("\nSummary:\n%s\n\n", summary)

	for {
		line, err := a.prompt("Rate this consultation (1-5): ")
		if err != nil {
			return nil
		}
		rating, _ := strconv.Atoi(line)
		if err := client.ValidateRating(rating); err != nil {
			a.printf("%s\n", client.UserMessage(err))
			continue
		}

		comment, _ := a.prompt("Comments (optional): ")
		if err := chat.SubmitFeedback(ctx, rating, comment); err != nil {
			a.printf("%s\n", client.UserMessage(err))
			continue
		}
		a.printf("Thank you for your feedback.\n")
		return nil
	}
}

func (a *app) printMessage(m consult.Message) {
	who := "You"
	if m.Role == client.RoleAssistant {
		who = "Maya"
		if m.Assistant != "" {
			who = strings.ToUpper(string(m.Assistant[:1])) + string(m.Assistant[1:])
		}
	}
	badge := ""
	if m.Premium() {
		badge = " [premium " + strconv.FormatFloat(*m.Amount, 'f', -1, 64) + "]"
	}
	a.printf("%s%s: %s\n", who, badge, m.Content.Text())
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past consultations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			sessions, err := a.api.History(cmd.Context(), a.session.Mobile())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				a.printf("No consultations yet.\n")
				return nil
			}
			for _, s := range sessions {
				a.printf("%s  %s  %-10s %d messages  %s\n",
					s.Timestamp.Format("2006-01-02 15:04"), s.SessionID, s.Status, len(s.Messages), s.Topic)
				if s.Summary != "" {
					a.printf("    %s\n", s.Summary)
				}
			}
			return nil
		},
	}
}
