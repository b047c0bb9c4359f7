package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hackhub/internal/chat"
)

const inboxHelp = `commands:
  /list            show conversations
  /open <id>       switch conversation
  /filter <text>   list conversations by participant name
  /read <id>       mark a conversation read
  /show            print the active conversation
  /quit            leave
anything else is sent to the active conversation`

func inboxCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Chat with mentors, companies and colleges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := e.requireUser()
			if err != nil {
				return err
			}
			store := chat.NewStore(chat.StaticSeed{},
				chat.WithNotifier(e.sink),
				chat.WithLogger(e.logger),
				chat.WithReplyDelay(e.replyDelay),
			)
			defer store.Close()
			if err := store.Initialize(cmd.Context(), u.ID); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, inboxHelp)
			printList(out, store.Conversations(), activeID(store))

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if quit := runInboxLine(cmd, store, out, line); quit {
					return nil
				}
			}
			return sc.Err()
		},
	}
}

func runInboxLine(cmd *cobra.Command, store *chat.Store, out io.Writer, line string) bool {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "":
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(out, inboxHelp)
	case "/list":
		printList(out, store.Conversations(), activeID(store))
	case "/filter":
		printList(out, store.Filter(arg), activeID(store))
	case "/open":
		if err := store.Select(arg); err != nil {
			fmt.Fprintln(out, err)
			break
		}
		printActive(out, store)
	case "/read":
		if err := store.MarkRead(arg); err != nil {
			fmt.Fprintln(out, err)
		}
	case "/show":
		printActive(out, store)
	default:
		if !store.Send(cmd.Context(), line) {
			fmt.Fprintln(out, "no conversation open")
		}
	}
	return false
}

func activeID(store *chat.Store) string {
	if c, ok := store.Active(); ok {
		return c.ID
	}
	return ""
}

func printList(out io.Writer, convs []chat.Conversation, active string) {
	for _, c := range convs {
		marker := " "
		if c.ID == active {
			marker = "*"
		}
		last := ""
		if c.LastMessage != nil {
			last = c.LastMessage.Content
		}
		fmt.Fprintf(out, "%s %-24s %-18s (%s) unread:%d  %s\n", marker, c.ID, c.ParticipantName, c.ParticipantRole, c.UnreadCount, last)
	}
}

func printActive(out io.Writer, store *chat.Store) {
	c, ok := store.Active()
	if !ok {
		fmt.Fprintln(out, "no conversation open")
		return
	}
	fmt.Fprintf(out, "== %s (%s)\n", c.ParticipantName, c.ParticipantRole)
	for _, m := range c.Messages {
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), m.SenderName, m.Content)
	}
}
