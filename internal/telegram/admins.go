package telegram

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
)

// AdminChecker asks Telegram whether a user administers a chat and remembers
// the answer for a while. Lookup failures deny.
type AdminChecker struct {
	api   botAPI
	cache *cache.Cache
}

func NewAdminChecker(api botAPI, ttl time.Duration) *AdminChecker {
	return &AdminChecker{api: api, cache: cache.New(ttl, 2*ttl)}
}

func (a *AdminChecker) IsAdmin(_ context.Context, chatID, userID int64) bool {
	key := fmt.Sprintf("%d:%d", chatID, userID)
	if v, ok := a.cache.Get(key); ok {
		return v.(bool)
	}

	member, err := a.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		log.Printf("failed to get chat member %d of chat %d: %v", userID, chatID, err)
		return false
	}
	admin := member.IsCreator() || member.IsAdministrator()
	a.cache.SetDefault(key, admin)
	return admin
}
