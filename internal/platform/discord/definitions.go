package discord

import (
	"github.com/bwmarrin/discordgo"

	"hathordice/internal/odds"
)

// SlashCommands mirrors the text commands. Multiplier choices come from the
// odds table so users can only pick accepted ones.
func SlashCommands(table *odds.Table) []*discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(table.All()))
	for _, o := range table.All() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  o.Label() + " (" + o.PercentProb() + "%)",
			Value: o.Label(),
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "Show all commands",
		},
		{
			Name:        "odds",
			Description: "List the accepted multipliers, their odds and bet limits",
		},
		{
			Name:        "deposit",
			Description: "[DM only] Show your deposit address",
		},
		{
			Name:        "balance",
			Description: "[DM only] Show your balance",
		},
		{
			Name:        "withdraw",
			Description: "[DM only] Move your funds to an address",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Amount to withdraw, up to 2 decimal places",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "address",
					Description: "Destination address",
					Required:    true,
				},
			},
		},
		{
			Name:        "bet",
			Description: "[public channel only] Roll the dice",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "multiplier",
					Description: "Reward multiplier",
					Required:    true,
					Choices:     choices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Amount to bet, up to 2 decimal places",
					Required:    true,
				},
			},
		},
	}
}
