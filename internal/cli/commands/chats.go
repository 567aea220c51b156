package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/models"
)

// NewChatsCmd creates the chats command group
func NewChatsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage chats served by your bots",
	}
	cmd.AddCommand(
		newChatsListCmd(opts),
		newChatsCreateCmd(opts),
		newChatsUpdateCmd(opts),
		newChatsDeleteCmd(opts),
	)
	return cmd
}

// chatView is a chat with its lookup ids resolved to names
type chatView struct {
	models.Chat
	BotLabel   string `json:"bot"`
	TypeName   string `json:"type_name"`
	StatusName string `json:"status_name"`
}

func chatViews(page *client.ChatsPage) []chatView {
	views := make([]chatView, len(page.Chats))
	for i, c := range page.Chats {
		bot := page.Bots.Name(c.BotID)
		if c.BotName != nil && *c.BotName != "" {
			bot = *c.BotName
		}
		views[i] = chatView{
			Chat:       c,
			BotLabel:   bot,
			TypeName:   page.Types.Name(c.TypeID),
			StatusName: page.Statuses.Name(c.StatusID),
		}
	}
	return views
}

func newChatsListCmd(opts []Option) *cobra.Command {
	var serverAlias, output string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List chats",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(opts)
			if err := checkFormat(output); err != nil {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				page, err := api.LoadChatsPage(cmd.Context())
				if err != nil {
					return err
				}
				return printChats(d, chatViews(page), output)
			})
		},
	}
	addServerFlag(cmd, &serverAlias)
	addOutputFlag(cmd, &output)
	return cmd
}

func printChats(d *deps, chats []chatView, output string) error {
	if output != formatTable {
		return writeStructured(d.out, output, chats)
	}
	if len(chats) == 0 {
		fmt.Fprintln(d.out, "No chats found")
		return nil
	}

	t := newTable(d.out, "ID", "TITLE", "BOT", "TELEGRAM ID", "TYPE", "STATUS", "MEMBERS", "UNKNOWN", "UPDATED")
	for i := range chats {
		c := &chats[i]
		t.row(c.ID, c.DisplayTitle(), c.BotLabel, c.TelegramChatID, c.TypeName, c.StatusName, c.UserNum, c.UnknownUser, c.UpdatedAt)
	}
	return t.flush()
}

func newChatsCreateCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var chat models.ChatCreate
	var telegramID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chat.TelegramChatID = models.TelegramID(telegramID)
			chat.Title = optString(cmd, "title")
			d := newDeps(opts)
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				created, err := api.CreateChat(cmd.Context(), chat)
				if err != nil {
					return err
				}
				printSuccess(d.out, "Created chat %s (id %d)", created.DisplayTitle(), created.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&chat.BotID, "bot", 0, "Bot id serving the chat")
	cmd.Flags().Int64Var(&telegramID, "telegram-id", 0, "Messenger chat id")
	cmd.Flags().String("title", "", "Chat title")
	cmd.Flags().IntVar(&chat.TypeID, "type", 0, "Chat type id (see 'botadmin chat-types')")
	cmd.Flags().IntVar(&chat.StatusID, "status", 0, "Chat status id (see 'botadmin chat-statuses')")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func newChatsUpdateCmd(opts []Option) *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "update <chat-id>",
		Short: "Change a chat (only the flags you pass are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("chat", args[0])
			if err != nil {
				return err
			}
			update := models.ChatUpdate{
				BotID:    optInt(cmd, "bot"),
				Title:    optString(cmd, "title"),
				TypeID:   optInt(cmd, "type"),
				StatusID: optInt(cmd, "status"),
			}
			return runChatsUpdate(cmd.Context(), newDeps(opts), serverAlias, id, update)
		},
	}
	cmd.Flags().Int("bot", 0, "Bot id serving the chat")
	cmd.Flags().String("title", "", "Chat title")
	cmd.Flags().Int("type", 0, "Chat type id")
	cmd.Flags().Int("status", 0, "Chat status id")
	addServerFlag(cmd, &serverAlias)
	return cmd
}

func runChatsUpdate(ctx context.Context, d *deps, serverAlias string, id int, update models.ChatUpdate) error {
	return d.withAPI(ctx, serverAlias, func(api *client.Client) error {
		if err := api.UpdateChat(ctx, id, update); err != nil {
			return err
		}
		page, err := api.LoadChatsPage(ctx)
		if err != nil {
			return err
		}
		printSuccess(d.out, "Chat %d updated", id)
		views := chatViews(page)
		for i := range views {
			if views[i].ID == id {
				return printChats(d, views[i:i+1], formatTable)
			}
		}
		return nil
	})
}

func newChatsDeleteCmd(opts []Option) *cobra.Command {
	var serverAlias string
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <chat-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a chat",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("chat", args[0])
			if err != nil {
				return err
			}
			d := newDeps(opts)
			ok, err := d.confirmDelete(fmt.Sprintf("chat %d", id), yes)
			if err != nil || !ok {
				return err
			}
			return d.withAPI(cmd.Context(), serverAlias, func(api *client.Client) error {
				if err := api.DeleteChat(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess(d.out, "Deleted chat %d", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	addServerFlag(cmd, &serverAlias)
	return cmd
}
