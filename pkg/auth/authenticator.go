package auth

import (
	"log/slog"
	"slices"
)

// authenticator admits the listed Telegram users. An empty list admits everyone.
type authenticator struct {
	authorizedUserIDs []int64
}

func NewAuthenticator(authorizedUserIDs []int64) *authenticator {
	if len(authorizedUserIDs) == 0 {
		slog.Warn("No telegram allow-list configured, the bot is open to every user")
	} else {
		slog.Info("Telegram authorized user IDs", "user_ids", authorizedUserIDs)
	}

	return &authenticator{
		authorizedUserIDs: authorizedUserIDs,
	}
}

func (a *authenticator) IsAuthorized(userID int64) bool {
	if len(a.authorizedUserIDs) == 0 {
		return true
	}
	return slices.Contains(a.authorizedUserIDs, userID)
}
