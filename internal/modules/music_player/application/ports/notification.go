package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// NowPlayingUI defines the interface for the progress message and other
// channel notifications.
type NowPlayingUI interface {
	// Render posts a new now-playing message to the channel.
	Render(ctx context.Context, channelID snowflake.ID, view NowPlayingView) (*MessageHandle, error)

	// Update redraws an existing now-playing message. Errors are marked
	// domain.ErrUIGone, domain.ErrUIPermissionDenied or domain.ErrUITransient.
	Update(ctx context.Context, handle MessageHandle, view NowPlayingView) error

	// ReportError posts a visible failure to the channel.
	ReportError(ctx context.Context, channelID snowflake.ID, message string) error

	// Announce posts a neutral informational message to the channel.
	Announce(ctx context.Context, channelID snowflake.ID, message string) error
}
