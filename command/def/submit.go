package def

import (
	"showdown/model"
	"showdown/workflow"

	"github.com/bwmarrin/discordgo"
)

// SubmitCommand builds the slash command for a submission kind from its
// field list.
func SubmitCommand(kind model.Kind) *discordgo.ApplicationCommand {
	fields := workflow.Fields(kind)
	options := make([]*discordgo.ApplicationCommandOption, 0, len(fields))
	for _, f := range fields {
		options = append(options, option(f))
	}
	return &discordgo.ApplicationCommand{
		Name:        kind.Command(),
		Description: workflow.Description(kind),
		Options:     options,
	}
}

// SubmitCommands returns one command per kind in registration order.
func SubmitCommands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(model.AllKinds))
	for _, kind := range model.AllKinds {
		cmds = append(cmds, SubmitCommand(kind))
	}
	return cmds
}

func option(f workflow.Field) *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Name:        f.Name,
		Description: f.Description,
		Required:    f.Required,
	}
	switch f.Type {
	case workflow.FieldAttachment:
		opt.Type = discordgo.ApplicationCommandOptionAttachment
	case workflow.FieldInteger:
		opt.Type = discordgo.ApplicationCommandOptionInteger
		zero := 0.0
		opt.MinValue = &zero
	case workflow.FieldString:
		opt.Type = discordgo.ApplicationCommandOptionString
		// 有候选列表的字段走自动补全
		opt.Autocomplete = f.Choices != workflow.ChoicesNone
	}
	return opt
}
