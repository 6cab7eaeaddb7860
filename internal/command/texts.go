package command

// Chat replies.
const (
	textUnrecognized  = "❌ Could not recognize a time. Example: %srem 18 Oktober 20:00 meeting"
	textCreateUsage   = "❌ Usage: %srem <TIME/DATE> <MESSAGE>"
	textEditUsage     = "❌ Usage: %sedit <ID> <TIME/DATE> <MESSAGE>"
	textDeleteUsage   = "❌ Usage: %shapus <ID>"
	textNotFound      = "❌ Reminder %d not found in this server."
	textStoreFailure  = "⚠️ Something went wrong while saving. Please try again later."
	textNoReminders   = "📭 No active reminders."
	textListHeader    = "🗒️ Reminders:"
	textCreatedOnce   = "✅ One-time reminder %d set for %s — %s"
	textCreatedWeekly = "🔁 Weekly reminder %d set %s — %s"
	textUpdated       = "✏️ Reminder %d updated to %s — %s"
	textDeleted       = "🗑️ Reminder %d deleted."

	// TextServerOnly is sent when a command arrives outside a server.
	TextServerOnly = "❌ Use this command in a server, not in direct messages."
)
