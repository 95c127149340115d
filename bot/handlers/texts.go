package handlers

const (
	cmdStart     = "/start"
	cmdHelp      = "/help"
	cmdStartChat = "/start_chat"
	cmdEndChat   = "/end_chat"
)

const helpText = `🏢 Building Damage Evaluation Bot - Help Guide 🏢

Available Commands:
• /start - Initialize the bot and see the welcome message
• /start_chat - Begin a new building evaluation session
• /end_chat - End your current evaluation session
• /help - Display this help message

How to Use This Bot:
1. Start by typing /start_chat to begin a new building evaluation session
2. Share photos of the damaged building or describe the damage in detail
3. Ask specific questions about the damage assessment
4. Our bot will help evaluate the severity and provide recommendations
5. When you have all the information you need, use /end_chat to end the session

Example Questions You Can Ask:
• "How severe is this structural damage?"
• "What should I do about this crack in the wall?"
• "Is this building safe to occupy?"
• "How should I document this damage for insurance?"

Need more assistance? Simply type /help at any time.

Thank you for using our Building Damage Evaluation Bot!`

const greetingText = "👋 Welcome to the Building Damage Evaluation Bot!\n\n" +
	"This bot helps you evaluate and report damaged buildings. You can provide photos and descriptions, " +
	"and we'll help assess the damage level.\n\n" +
	"Would you like to begin?\n\n\n" + helpText

const (
	chatStartedText  = "Chat started, feel free to ask :)"
	chatFinishedText = "Chat finished, thank you for using our bot!"

	startFailedText  = "Sorry, the evaluation service is not available right now. Please try /start_chat again in a moment."
	answerFailedText = "Sorry, I could not get an answer this time. Please send your message again, or use /end_chat to finish."
	mediaOnlyText    = "Only text descriptions are forwarded to the evaluator for now. Please describe what you see in words."
)
