package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"nest_sales_monitor/internal/notifications"
	"nest_sales_monitor/internal/sheets"
	"nest_sales_monitor/internal/snapshots"
)

// Clients bundles the external service handles used by a run.
type Clients struct {
	Sheets    *sheets.Client
	Snapshots *snapshots.Uploader
	Notifier  *notifications.Client
}

// InitializeClients builds the service clients described by cfg. The returned
// cleanup function releases every handle that was opened and must run on all
// exit paths.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, func(), error) {
	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	clients := &Clients{Sheets: sheetsClient}

	if cfg.StorageBucket == "" {
		log.Warn().Msg("STORAGE_BUCKET not set, page snapshots disabled")
	} else {
		uploader, err := snapshots.NewUploader(ctx, cfg.StorageBucket, cfg.StoragePrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		clients.Snapshots = uploader
	}

	clients.Notifier = notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled, cfg.NtfyPriority)
	if cfg.NtfyEnabled {
		log.Info().
			Str("url", cfg.NtfyURL).
			Str("topic", cfg.NtfyTopic).
			Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	cleanup := func() {
		if clients.Snapshots != nil {
			if err := clients.Snapshots.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close storage client")
			}
		}
	}

	return clients, cleanup, nil
}
