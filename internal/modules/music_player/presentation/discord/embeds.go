package discord

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
	"github.com/sglre6355/mtube/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorNowPlaying = 0x9B59B6
	colorAdded      = 0x00FF99
	colorQueue      = 0x7D3C98
	colorError      = 0xFF4D6D
	colorNeutral    = 0x2C2F33
	colorAI         = 0xB799FF
)

const (
	footerText        = "▐ m.tube"
	progressBarLength = 18
	ruleLength        = 40
)

// Custom IDs of the message components and modals.
const (
	ButtonPauseResume = "btn_pause_resume"
	ButtonSkip        = "btn_skip"
	ButtonAddQueue    = "btn_add_queue"
	ButtonShowQueue   = "btn_show_queue"
	ButtonQuit        = "btn_quit"
	ButtonAIPick      = "btn_ai_pick"
	ButtonVibe        = "btn_vibe"

	ModalAddQueue = "modal_add_queue"
	ModalAIPick   = "modal_ai_pick"
	ModalVibe     = "modal_vibe"

	inputQuery       = "modal_query"
	inputAIPrompt    = "modal_ai_prompt"
	inputVibePrompt  = "modal_vibe_prompt"
	inputVibeCount   = "modal_vibe_count"
	promptInputLabel = "Describe a mood, vibe, or activity"
)

// ProgressBar renders elapsed/total as a fixed-width block bar. An unknown
// total renders an empty bar.
func ProgressBar(elapsed, total time.Duration) string {
	progress := 0.0
	if total > 0 {
		progress = min(elapsed.Seconds()/total.Seconds(), 1)
	}
	filled := int(math.Round(progress * progressBarLength))
	return strings.Repeat("▓", filled) + strings.Repeat("░", progressBarLength-filled)
}

// NowPlayingEmbed builds the progress message for view.
func NowPlayingEmbed(view ports.NowPlayingView) *discordgo.MessageEmbed {
	track := view.Track
	total := track.Duration
	elapsed := domain.FormatDuration(view.Elapsed)
	if pad := len(total) - len(elapsed); pad > 0 {
		elapsed = strings.Repeat(" ", pad) + elapsed
	}

	state := "▶️ Playing"
	if view.Paused {
		state = "⏸️ **Paused**"
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: fmt.Sprintf("### [%s](%s)\n`%s`", track.Title, track.URL, strings.Repeat("─", ruleLength)),
		Color:       colorNowPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "⏱ Progress",
				Value: fmt.Sprintf("`%s` `%s` `%s`\n%s",
					elapsed, ProgressBar(view.Elapsed, track.TotalDuration()), total, state),
			},
			{Name: "👤 Requested by", Value: track.Requester, Inline: true},
			{Name: "⏳ Duration", Value: "`" + track.Duration + "`", Inline: true},
			{Name: "🔗 Link", Value: fmt.Sprintf("[Open in YouTube](%s)", track.URL), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: nowPlayingFooter(view)},
		Timestamp: timestamp(),
	}
	if thumbnail := track.ThumbnailURL(); thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return embed
}

func nowPlayingFooter(view ports.NowPlayingView) string {
	parts := []string{footerText, fmt.Sprintf("🔊 %d%%", int(math.Round(view.Volume*100)))}
	if view.Upcoming > 0 {
		parts = append(parts, fmt.Sprintf("%d up next", view.Upcoming))
	}
	return strings.Join(parts, " · ")
}

// Controls builds the player buttons shown under the progress message.
func Controls(paused bool) []discordgo.MessageComponent {
	pauseResume := discordgo.Button{
		Label:    "⏸️ Pause",
		Style:    discordgo.PrimaryButton,
		CustomID: ButtonPauseResume,
	}
	if paused {
		pauseResume.Label = "▶️ Resume"
		pauseResume.Style = discordgo.SuccessButton
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				pauseResume,
				discordgo.Button{Label: "⏭️ Skip", Style: discordgo.SecondaryButton, CustomID: ButtonSkip},
				discordgo.Button{Label: "➕ Add", Style: discordgo.SecondaryButton, CustomID: ButtonAddQueue},
				discordgo.Button{Label: "📋 Queue", Style: discordgo.SecondaryButton, CustomID: ButtonShowQueue},
				discordgo.Button{Label: "🚪 Quit", Style: discordgo.DangerButton, CustomID: ButtonQuit},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "🤖 AI Pick", Style: discordgo.PrimaryButton, CustomID: ButtonAIPick},
				discordgo.Button{Label: "🎶 Vibe Queue", Style: discordgo.PrimaryButton, CustomID: ButtonVibe},
			},
		},
	}
}

// QueueEmbed lists the queue with the current track first.
func QueueEmbed(tracks []domain.Track) *discordgo.MessageEmbed {
	var sb strings.Builder
	var total time.Duration
	for i, track := range tracks {
		if i > 0 {
			sb.WriteString("\n")
		}
		if i == 0 {
			sb.WriteString("🔊 **Now**")
		} else {
			fmt.Fprintf(&sb, "`%d.`", i)
		}
		fmt.Fprintf(&sb, " [%s](%s) `[%s]` — %s", track.Title, track.URL, track.Duration, track.Requester)
		total += track.TotalDuration()
	}

	description := sb.String()
	if description == "" {
		description = "Empty"
	}

	songs := "songs"
	if len(tracks) == 1 {
		songs = "song"
	}

	return &discordgo.MessageEmbed{
		Title:       "📋 Queue",
		Description: description,
		Color:       colorQueue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "\u200b",
				Value: fmt.Sprintf("**%d** %s · Total: `%s`", len(tracks), songs, domain.FormatDuration(total)),
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: timestamp(),
	}
}

// AddedEmbed confirms that track was queued.
func AddedEmbed(track domain.Track) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("✅ **[%s](%s)** `%s` — %s", track.Title, track.URL, track.Duration, track.Requester),
		Color:       colorAdded,
	}
}

// ErrorEmbed reports a failure.
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "❌ " + message,
		Color:       colorError,
	}
}

// NeutralEmbed carries an informational message.
func NeutralEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: message,
		Color:       colorNeutral,
	}
}

// AIPickEmbed shows what the suggestion backend picked for prompt.
func AIPickEmbed(prompt, query string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 AI Pick",
		Description: fmt.Sprintf("**Prompt:** *%s*\n\n🎵 **%s**", prompt, query),
		Color:       colorAI,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

// VibeEmbed lists what was queued for prompt. failed holds the queries that
// could not be resolved.
func VibeEmbed(prompt string, queued []domain.Track, failed []string) *discordgo.MessageEmbed {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Prompt:** *%s*\n", prompt)
	for i, track := range queued {
		fmt.Fprintf(&sb, "\n`%d.` [%s](%s) `[%s]`", i+1, track.Title, track.URL, track.Duration)
	}
	for _, query := range failed {
		fmt.Fprintf(&sb, "\n⚠️ ~~%s~~", query)
	}

	return &discordgo.MessageEmbed{
		Title:       "🎶 Vibe Queue",
		Description: sb.String(),
		Color:       colorAI,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s · %d queued", footerText, len(queued))},
	}
}

// AddQueueModal asks for a song name or URL.
func AddQueueModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ModalAddQueue,
		Title:    "➕ Add to Queue",
		Components: []discordgo.MessageComponent{
			textInputRow(discordgo.TextInput{
				CustomID:    inputQuery,
				Label:       "Song name or YouTube URL",
				Style:       discordgo.TextInputShort,
				Placeholder: "e.g. Daft Punk - Get Lucky",
				Required:    true,
			}),
		},
	}
}

// AIPickModal asks for a prompt for a single suggestion.
func AIPickModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ModalAIPick,
		Title:    "🤖 AI Pick",
		Components: []discordgo.MessageComponent{
			textInputRow(discordgo.TextInput{
				CustomID:    inputAIPrompt,
				Label:       promptInputLabel,
				Style:       discordgo.TextInputShort,
				Placeholder: "e.g. chill late night coding",
				Required:    true,
			}),
		},
	}
}

// VibeModal asks for a prompt and a song count.
func VibeModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ModalVibe,
		Title:    "🎶 Vibe Queue",
		Components: []discordgo.MessageComponent{
			textInputRow(discordgo.TextInput{
				CustomID:    inputVibePrompt,
				Label:       promptInputLabel,
				Style:       discordgo.TextInputShort,
				Placeholder: "e.g. hype workout songs",
				Required:    true,
			}),
			textInputRow(discordgo.TextInput{
				CustomID:    inputVibeCount,
				Label:       "How many songs? (1–10, default 5)",
				Style:       discordgo.TextInputShort,
				Placeholder: "5",
				MaxLength:   2,
			}),
		},
	}
}

func textInputRow(input discordgo.TextInput) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
