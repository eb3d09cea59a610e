package core

import "strings"

// BotUsername is the author name of automated replies.
const BotUsername = "Bot"

// ResponderRule maps a keyword to a canned reply.
type ResponderRule struct {
	Keyword string
	Reply   string
}

// ResponderRules is an ordered rule set; earlier rules take priority when
// several keywords match.
type ResponderRules []ResponderRule

// DefaultResponderRules returns the built-in demo bot rules.
func DefaultResponderRules() ResponderRules {
	return ResponderRules{
		{"hello", "Hi there! 👋 Welcome to the WebSocket demo!"},
		{"hi", "Hello! Thanks for visiting 👋"},
		{"how are you", "I'm just a simple bot, but I'm working great! 🤖"},
		{"thanks", "You're welcome! 😊"},
		{"thank you", "Happy to help! 😊"},
		{"help", "I'm a demo bot that responds to basic greetings. Try saying 'hello', 'how are you', or 'what is websocket'!"},
		{"what is websocket", "WebSockets provide full-duplex communication channels over a single TCP connection. They enable real-time, bidirectional communication between clients and servers! 🚀"},
		{"websocket", "WebSockets are awesome for real-time applications! This chat is powered by them."},
		{"bye", "Goodbye! Thanks for trying the demo! 👋"},
		{"good bye", "Goodbye! Thanks for trying the demo! 👋"},
	}
}

// Reply returns the canned reply for the first rule whose keyword appears
// in the text (case-insensitive substring match), or false if none match.
func (r ResponderRules) Reply(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range r {
		if strings.Contains(lowered, rule.Keyword) {
			return rule.Reply, true
		}
	}
	return "", false
}
