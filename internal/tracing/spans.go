package tracing

// Span names.
const (
	SpanUpload = "agent.upload"
	SpanChat   = "agent.chat"
	SpanHealth = "agent.health"
)

// Span attribute keys.
const (
	AttrVideoID      = "video.id"
	AttrVideoSize    = "video.size_bytes"
	AttrThreadID     = "chat.thread_id"
	AttrMessageLen   = "chat.message_length"
	AttrReplyLen     = "chat.reply_length"
	AttrHTTPStatus   = "http.status_code"
	AttrServerURL    = "server.url"
	AttrErrorKind    = "error.kind"
	AttrErrorMessage = "error.message"
)

// Span events.
const (
	EventRequestSent      = "request.sent"
	EventResponseReceived = "response.received"
)
