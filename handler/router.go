package handler

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc handles one interaction.
type HandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

var (
	commandHandlers      = make(map[string]HandlerFunc)
	componentHandlers    = make(map[string]HandlerFunc)
	autocompleteHandlers = make(map[string]HandlerFunc)
)

// AddCommandHandler registers a handler for a slash command.
func AddCommandHandler(name string, handler HandlerFunc) {
	commandHandlers[name] = handler
}

// AddComponentHandler registers a handler for a message component.
func AddComponentHandler(customID string, handler HandlerFunc) {
	componentHandlers[customID] = handler
}

// AddAutocompleteHandler registers an autocomplete handler for a slash command.
func AddAutocompleteHandler(name string, handler HandlerFunc) {
	autocompleteHandlers[name] = handler
}

// Lookup returns the handler that would serve i.
func Lookup(i *discordgo.InteractionCreate) (HandlerFunc, bool) {
	var (
		handler HandlerFunc
		ok      bool
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		handler, ok = commandHandlers[i.ApplicationCommandData().Name]
	case discordgo.InteractionApplicationCommandAutocomplete:
		handler, ok = autocompleteHandlers[i.ApplicationCommandData().Name]
	case discordgo.InteractionMessageComponent:
		// custom id 形如 "name:arg"，按前缀分发
		handlerKey := strings.SplitN(i.MessageComponentData().CustomID, ":", 2)[0]
		handler, ok = componentHandlers[handlerKey]
	}
	return handler, ok
}

// OnInteractionCreate is the main interaction router.
// It should be registered as the primary interaction handler.
func OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if handler, ok := Lookup(i); ok {
		handler(s, i)
	}
}
