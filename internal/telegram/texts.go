package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Prefix is how commands are written on Telegram.
const Prefix = "/"

// menuCommands is the command list shown in the Telegram client.
func menuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "rem", Description: "Create a reminder: /rem 08:30 minum air"},
		{Command: "list", Description: "Show reminders of this chat"},
		{Command: "edit", Description: "Change a reminder: /edit <id> <time> <message>"},
		{Command: "hapus", Description: "Delete a reminder: /hapus <id>"},
		{Command: "help", Description: "How to write times and dates"},
	}
}
