package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	chatLimit  int
	chatOffset int
)

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the AI assistant",
	Long: `Manage AI chat conversations: list them, start a new one, send
messages and read history. The local list keeps the 20 most recently
updated conversations.`,
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		if err := env.chat.Load(cmd.Context()); err != nil {
			if internal.IsNetworkError(err) {
				cached, refreshed, cacheErr := env.cache.LoadConversations()
				if cacheErr == nil && len(cached) > 0 {
					internal.LogWarn("Backend unreachable, showing cached conversations")
					displayConversations(cached)
					fmt.Println(idStyle.Render(fmt.Sprintf("(cached data from %s, backend unreachable)", refreshed.Local().Format("2006-01-02 15:04"))))
					return nil
				}
			}
			return err
		}

		conversations := env.chat.Conversations()
		if err := env.cache.SaveConversations(conversations); err != nil {
			internal.LogWarn("Failed to refresh conversation cache: %v", err)
		}

		displayConversations(conversations)
		return nil
	},
}

var chatNewCmd = &cobra.Command{
	Use:   "new <message...>",
	Short: "Start a conversation with an initial message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		message := strings.Join(args, " ")
		conv, err := env.chat.Create(cmd.Context(), message)
		if err != nil {
			return err
		}

		fmt.Printf("Started conversation %s\n", conv.ID)

		reply, err := env.chat.Send(cmd.Context(), conv.ID, message)
		if err != nil {
			return err
		}
		printMessage(*reply)
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <conversation-id> <message...>",
	Short: "Send a message to a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		reply, err := env.chat.Send(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printMessage(*reply)
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Show the messages in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		messages, err := env.chat.Messages(cmd.Context(), args[0], chatLimit, chatOffset)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println(headerStyle.Render("No messages"))
			return nil
		}
		for _, msg := range messages {
			printMessage(msg)
		}
		return nil
	},
}

var chatRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		if err := env.chat.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted conversation %s\n", args[0])
		return nil
	},
}

func displayConversations(conversations []internal.Conversation) {
	if len(conversations) == 0 {
		fmt.Println(headerStyle.Render("No conversations found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d conversation(s)", len(conversations))))
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, conv := range conversations {
		title := conv.Title
		if title == "" {
			title = "Untitled"
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		updated := "—"
		if t := conv.UpdatedTime(); !t.IsZero() {
			if time.Since(t) < 24*time.Hour {
				updated = t.Local().Format("Today 15:04")
			} else {
				updated = t.Local().Format("2006-01-02 15:04")
			}
		}

		shortID := conv.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(shortID), title, dateStyle.Render(updated))
	}

	_ = w.Flush()
	fmt.Println()
}

func printMessage(msg internal.ChatMessage) {
	label := userStyle.Render("you")
	if msg.Role == "assistant" {
		label = assistantStyle.Render("assistant")
	} else if msg.Role == "system" {
		label = dateStyle.Render("system")
	}
	fmt.Printf("%s  %s\n\n", label, msg.Content)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatRmCmd)

	chatHistoryCmd.Flags().IntVar(&chatLimit, "limit", 50, "Maximum number of messages")
	chatHistoryCmd.Flags().IntVar(&chatOffset, "offset", 0, "Number of messages to skip")
}
