package router

// Outbound reply texts, kept in one place so handlers stay readable.
const (
	textNotAuthorized     = "You are not authorized to use this command."
	textAlreadySubscribed = "You are already subscribed to broadcast messages."
	textUnsubscribed      = "You have unsubscribed from the broadcast messages."
	textProfileError      = "Something went wrong. Please try again later."

	textBroadcastUsage = "Please provide a message to broadcast. Usage: /broadcast Your message here."
	textBroadcastSent  = "Broadcast message sent to all subscribers."

	textScheduleUsage = "Invalid format. Usage for text: /schedule dd/MM/yyyy HH:mm message\n" +
		"Usage for media: /schedule media dd/MM/yyyy HH:mm Optional Caption (reply to a media message)."
	textScheduleBadDate   = "Invalid date or time format. Ensure the format is dd/MM/yyyy HH:mm."
	textSchedulePast      = "Cannot schedule a message in the past. Please select a future date and time."
	textScheduleEmptyText = "Text message content cannot be empty."
	textScheduleNeedReply = "Please reply to a media message (photo, video, or document) to schedule it."
	textScheduleBadMedia  = "The replied message must contain valid media (photo, video, or document)."

	textNoSchedules      = "No messages are currently scheduled."
	textCancelUsage      = "Invalid format. Usage: /cancel_schedule schedule_id."
	textWelcomeFallback  = "User"
	textSchedulesHeading = "Scheduled Messages:"
)
