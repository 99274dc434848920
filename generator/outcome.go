package generator

import "encoding/json"

// OutcomeType discriminates the two response shapes.
type OutcomeType int

const (
	OutcomeConversation OutcomeType = iota
	OutcomeCreativeSet
)

// ClarifyMessage is returned when the model produced neither creatives nor text.
const ClarifyMessage = "I couldn't generate creatives from that. Could you tell me more about the product, audience or the kind of ads you want?"

// Outcome is the only value the pipeline returns: either a conversational reply or
// a non-empty creative set. Build it with Conversation or CreativeSet.
type Outcome struct {
	Type           OutcomeType
	Message        string
	Images         []string
	SuggestedTitle string
	Creatives      []Creative
}

// Conversation builds a conversational outcome.
func Conversation(message string, images []string) Outcome {
	if message == "" && len(images) == 0 {
		message = ClarifyMessage
	}
	return Outcome{Type: OutcomeConversation, Message: message, Images: images}
}

// CreativeSet builds a creative-list outcome. An empty list degrades to a
// conversational outcome carrying the clarifying message.
func CreativeSet(message string, creatives []Creative) Outcome {
	if len(creatives) == 0 {
		return Conversation(ClarifyMessage, nil)
	}
	if message == "" {
		message = "Here are your ad creatives."
	}
	return Outcome{Type: OutcomeCreativeSet, Message: message, Creatives: creatives}
}

type conversationJSON struct {
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	Images         []string   `json:"images,omitempty"`
	Creatives      []Creative `json:"creatives"`
	SuggestedTitle string     `json:"suggestedTitle,omitempty"`
}

type creativeSetJSON struct {
	Message   string     `json:"message"`
	Creatives []Creative `json:"creatives"`
}

// MarshalJSON writes the wire shape for the outcome type. Creative sets carry no
// type discriminator; they are recognized by their non-empty creatives array.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Type == OutcomeCreativeSet && len(o.Creatives) > 0 {
		return json.Marshal(creativeSetJSON{Message: o.Message, Creatives: o.Creatives})
	}
	return json.Marshal(conversationJSON{
		Type:           "conversation",
		Message:        o.Message,
		Images:         o.Images,
		Creatives:      []Creative{},
		SuggestedTitle: o.SuggestedTitle,
	})
}
