package telegram

import (
	"fmt"

	"github.com/blockedby/chatexport/internal/config"
	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
)

// NewProtoClient creates the underlying MTProto client. A session
// string from the environment takes priority; otherwise the session
// lives in a local sqlite database.
func NewProtoClient(cfg *config.Config) (*gotgproto.Client, error) {
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		return nil, fmt.Errorf("TG_API_ID and TG_API_HASH must be set")
	}

	opts := &gotgproto.ClientOpts{DisableCopyright: true}
	if cfg.TGSessionStr != "" {
		opts.Session = sessionMaker.StringSession(cfg.TGSessionStr)
	} else {
		// persist the session locally so repeated runs stay logged in
		opts.Session = sessionMaker.SqlSession(sqlite.Open(cfg.SessionDB))
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	return client, nil
}
