package domain

// Conversation is a derived view of the chat between the requesting user and
// one partner. LastMessage is nil until the pair has exchanged a message.
type Conversation struct {
	Partner     User
	LastMessage *Message
}
