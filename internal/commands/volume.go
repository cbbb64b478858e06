package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/types"
)

// VolumeGet reports the stored guild volume and, if a call is active, the
// live effective volume currently applied to playback.
func VolumeGet(d Deps, guildID string) (*PlayResult, error) {
	g := d.Settings.GetOrCreate(guildID, "", "")
	desc := fmt.Sprintf("Guild volume is **%.0f%%**.", g.Volume*100)
	if call, ok := d.Voice.Get(guildID); ok {
		desc += fmt.Sprintf(" Currently playing at **%.0f%%**.", call.EffectiveVolume()*100)
	}
	return &PlayResult{Embed: &discordgo.MessageEmbed{
		Title:       "🔊 Volume",
		Description: desc,
		Color:       colorInfo,
	}}, nil
}

// VolumeSet stores the new guild volume and, if a call is active, applies
// it to whatever is currently playing (spec §4.6 "set stores new value and
// applies to the current track if any").
func VolumeSet(ctx context.Context, d Deps, guildID string, volume float64) (*PlayResult, error) {
	if volume < 0 || volume > 2 {
		return nil, types.NewNotInRange("volume", volume, 0, 2)
	}
	before := d.Settings.GetOrCreate(guildID, "", "").Volume
	after := d.Settings.SetVolume(guildID, volume)

	if call, ok := d.Voice.Get(guildID); ok {
		call.ApplyVolumeNow(ctx, types.ClampVolume(volume))
	}

	return &PlayResult{Embed: &discordgo.MessageEmbed{
		Title:       "🔊 Volume changed",
		Description: fmt.Sprintf("Changed from **%.0f%%** to **%.0f%%**.", before*100, after.Volume*100),
		Color:       colorSuccess,
	}}, nil
}
