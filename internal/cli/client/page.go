package client

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/koinsera/botadmin/internal/models"
)

// pageConcurrency bounds parallel requests per page load
const pageConcurrency = 4

// ChatsPage is everything the chats view renders
type ChatsPage struct {
	Chats    []models.Chat
	Types    models.Lookup
	Statuses models.Lookup
	Bots     models.Lookup
}

// LoadChatsPage fetches chats and their lookup tables concurrently. Chats
// whose type or status is unknown are dropped.
func (c *Client) LoadChatsPage(ctx context.Context) (*ChatsPage, error) {
	var (
		chats    []models.Chat
		types    []models.ChatType
		statuses []models.ChatStatus
		bots     []models.Bot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageConcurrency)

	g.Go(func() error {
		var err error
		chats, err = c.ListChats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = c.ListChatTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = c.ListChatStatuses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bots, err = c.ListBots(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &ChatsPage{
		Types:    models.ChatTypeLookup(types),
		Statuses: models.ChatStatusLookup(statuses),
		Bots:     models.BotLookup(bots),
	}
	page.Chats = models.FilterChats(chats, page.Types, page.Statuses)
	return page, nil
}
