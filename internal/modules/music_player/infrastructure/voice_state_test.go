package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuildLookup struct {
	guilds map[string]*discordgo.Guild
}

func (f fakeGuildLookup) Guild(guildID string) (*discordgo.Guild, error) {
	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	return guild, nil
}

func TestVoiceStateProvider_GetUserVoiceChannel(t *testing.T) {
	provider := &VoiceStateProvider{state: fakeGuildLookup{guilds: map[string]*discordgo.Guild{
		"1": {
			ID: "1",
			VoiceStates: []*discordgo.VoiceState{
				{UserID: "10", ChannelID: "100"},
				{UserID: "11", ChannelID: ""},
				{UserID: "12", ChannelID: "garbage"},
			},
		},
	}}}

	tests := []struct {
		name    string
		guildID snowflake.ID
		userID  snowflake.ID
		want    snowflake.ID
		wantErr bool
	}{
		{name: "in voice", guildID: 1, userID: 10, want: 100},
		{name: "left voice", guildID: 1, userID: 11, want: 0},
		{name: "never joined", guildID: 1, userID: 13, want: 0},
		{name: "bad channel ID", guildID: 1, userID: 12, wantErr: true},
		{name: "unknown guild", guildID: 2, userID: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.GetUserVoiceChannel(tt.guildID, tt.userID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
