package radar

// MessageType discriminates the messages pushed over a result stream.
type MessageType string

const (
	MessageStatus         MessageType = "status"
	MessageToolCall       MessageType = "tool_call"
	MessageToolResult     MessageType = "tool_result"
	MessageKeywords       MessageType = "keywords"
	MessageEvents         MessageType = "events"
	MessageErrorNoCity    MessageType = "error_no_city"
	MessageErrorRateLimit MessageType = "error_rate_limit"
	MessageError          MessageType = "error"
	MessageDone           MessageType = "done"
)

// Message is one frame of the result stream. Frames are delivered as soon as
// they are produced; every stream terminates with exactly one done frame,
// whatever path the run took.
type Message struct {
	Type       MessageType    `json:"type"`
	Message    string         `json:"message,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	City       string         `json:"city,omitempty"`
	Events     []Event        `json:"events,omitempty"`
	Summary    map[string]int `json:"summary,omitempty"`
	DateFrom   string         `json:"dateFrom,omitempty"`
	DateTo     string         `json:"dateTo,omitempty"`
	TargetDate string         `json:"targetDate,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Raw        string         `json:"raw,omitempty"`
}

func statusMessage(text string) Message {
	return Message{Type: MessageStatus, Message: text}
}

func toolCallMessage(text string) Message {
	return Message{Type: MessageToolCall, Message: text}
}

func toolResultMessage(text string) Message {
	return Message{Type: MessageToolResult, Message: text}
}

func keywordsMessage(keywords []string, city string) Message {
	return Message{Type: MessageKeywords, Keywords: keywords, City: city}
}

func eventsMessage(events []Event, summary map[string]int, from, to, target string) Message {
	return Message{
		Type:       MessageEvents,
		Events:     events,
		Summary:    summary,
		DateFrom:   from,
		DateTo:     to,
		TargetDate: target,
	}
}

func noCityMessage() Message {
	return Message{Type: MessageErrorNoCity}
}

func rateLimitMessage(limit int) Message {
	return Message{Type: MessageErrorRateLimit, Limit: limit}
}

func errorMessage(text, raw string) Message {
	return Message{Type: MessageError, Message: text, Raw: raw}
}

func doneMessage() Message {
	return Message{Type: MessageDone}
}
