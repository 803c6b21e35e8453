package chatlog

// Status classifies how a request finished.
type Status int

const (
	StatusOK Status = iota
	StatusCanceled
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusCanceled:
		return "canceled"
	case StatusError:
		return "error"
	default:
		return "ok"
	}
}

// PartKind discriminates the recognized response part shapes. Shape
// matching happens once, at decode time; renderers only switch on Kind.
type PartKind int

const (
	PartUnrecognized PartKind = iota
	PartText
	PartToolInvocation
	PartProgressTask
	PartPrepareTool
	PartTextEditGroup
	PartInlineReference
)

// ResponsePart is one decoded fragment of an assistant response.
// Text carries the displayable string for text-like variants and the
// human-readable message for tool/progress variants.
type ResponsePart struct {
	Kind PartKind
	Text string
	Tool *ToolInvocation
	Edit *TextEditGroup
}

// ToolInvocation holds the payload of a toolInvocationSerialized part.
// Result carries the actual content of the matched tool call from
// result.metadata.toolCallResults; Input/Output are the resultDetails
// fallback used when no call could be matched.
type ToolInvocation struct {
	Message   string // cleaned invocation message for display
	PastTense string
	Input     string // raw resultDetails.input (usually JSON)
	Output    string // first resultDetails.output value
	Result    string // consolidated content of the matched tool call
}

// TextEditGroup is a group of edits the assistant applied to one file.
type TextEditGroup struct {
	FileName string
	Edits    []TextEdit
}

type TextEdit struct {
	StartLine int
	EndLine   int
	Text      string
}

// RefKind classifies a request reference for glyph selection.
type RefKind int

const (
	RefFile RefKind = iota
	RefSetting
	RefPrompt
)

type Reference struct {
	Kind    RefKind
	Display string
}

// Request is one user/assistant exchange. RoundResponses carries the
// per-round model text from result.metadata.toolCallRounds; it stands
// in for the incremental response parts when those hold no tool blocks.
type Request struct {
	UserText       string
	Response       []ResponsePart
	RoundResponses []string
	Status         Status
	ErrorMsg       string
	ElapsedMs      float64
	HasElapsed     bool
	TimestampMs    int64 // 0 when the export carries no timestamp
	Model          string
	Details        string // request details field, e.g. the model display name
	References     []Reference
}

// ChatLog is one exported chat session. Identity when combining is the
// source file path. Immutable once decoded.
type ChatLog struct {
	Requester string
	Responder string
	Requests  []Request
	FilePath  string
}

// FirstTimestamp returns the timestamp of the first request carrying
// one, in milliseconds, or 0 when no request has a timestamp.
func (c *ChatLog) FirstTimestamp() int64 {
	for _, r := range c.Requests {
		if r.TimestampMs != 0 {
			return r.TimestampMs
		}
	}
	return 0
}
