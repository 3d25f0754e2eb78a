package store

// ConversationTurn is a single user/bot exchange. Immutable once created.
type ConversationTurn struct {
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
}

// Session holds the ordered transcript for one chat session id.
type Session struct {
	ID         string             `json:"id"`
	Transcript []ConversationTurn `json:"transcript"`
}
