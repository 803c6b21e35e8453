package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

// Load reads and decodes one exported chat JSON file.
func Load(filePath string) (*ChatLog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	log, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	log.FilePath = filePath
	return log, nil
}

type rawChat struct {
	RequesterUsername string          `json:"requesterUsername"`
	ResponderUsername string          `json:"responderUsername"`
	Requests          json.RawMessage `json:"requests"`
}

type rawRequest struct {
	Message      json.RawMessage   `json:"message"`
	Response     []json.RawMessage `json:"response"`
	Result       json.RawMessage   `json:"result"`
	Timestamp    int64             `json:"timestamp"`
	ModelID      string            `json:"modelId"`
	Details      string            `json:"details"`
	VariableData json.RawMessage   `json:"variableData"`
}

type rawResult struct {
	ErrorDetails struct {
		Message string `json:"message"`
	} `json:"errorDetails"`
	Timings struct {
		TotalElapsed *float64 `json:"totalElapsed"`
	} `json:"timings"`
	Metadata struct {
		ToolCallRounds  []toolCallRound            `json:"toolCallRounds"`
		ToolCallResults map[string]json.RawMessage `json:"toolCallResults"`
	} `json:"metadata"`
}

type toolCallRound struct {
	Response  string `json:"response"`
	ToolCalls []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"toolCalls"`
}

// Decode parses an exported chat log. The only fatal shape errors are
// a missing or non-array requests field; everything below that level
// degrades per part.
func Decode(data []byte) (*ChatLog, error) {
	var rc rawChat
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, err
	}
	if len(rc.Requests) == 0 {
		return nil, fmt.Errorf("missing requests field")
	}

	var rawRequests []json.RawMessage
	if err := json.Unmarshal(rc.Requests, &rawRequests); err != nil {
		return nil, fmt.Errorf("requests is not an array: %w", err)
	}

	log := &ChatLog{
		Requester: rc.RequesterUsername,
		Responder: rc.ResponderUsername,
	}
	if log.Requester == "" {
		log.Requester = "User"
	}
	if log.Responder == "" {
		log.Responder = "GitHub Copilot"
	}

	for _, rr := range rawRequests {
		var req rawRequest
		if err := json.Unmarshal(rr, &req); err != nil {
			// not an object; keep ordering with an empty request
			log.Requests = append(log.Requests, Request{})
			continue
		}
		log.Requests = append(log.Requests, decodeRequest(req))
	}
	return log, nil
}

func decodeRequest(req rawRequest) Request {
	r := Request{
		UserText:    decodeUserMessage(req.Message),
		TimestampMs: req.Timestamp,
		Model:       strings.TrimPrefix(req.ModelID, "copilot/"),
		Details:     req.Details,
		References:  decodeReferences(req.VariableData),
	}

	var rounds []toolCallRound
	var callResults map[string]json.RawMessage
	if len(req.Result) > 0 {
		var res rawResult
		if json.Unmarshal(req.Result, &res) == nil {
			if msg := res.ErrorDetails.Message; msg != "" {
				r.ErrorMsg = msg
				if strings.Contains(strings.ToLower(msg), "canceled") {
					r.Status = StatusCanceled
				} else {
					r.Status = StatusError
				}
			}
			if res.Timings.TotalElapsed != nil {
				r.ElapsedMs = *res.Timings.TotalElapsed
				r.HasElapsed = true
			}
			rounds = res.Metadata.ToolCallRounds
			callResults = res.Metadata.ToolCallResults
		}
	}

	for _, round := range rounds {
		if s := strings.TrimSpace(round.Response); s != "" {
			r.RoundResponses = append(r.RoundResponses, s)
		}
	}

	for _, rp := range req.Response {
		p := decodePart(rp)
		if p.Kind == PartToolInvocation {
			resolveToolResult(p.Tool, rounds, callResults)
		}
		r.Response = append(r.Response, p)
	}
	return r
}

// resolveToolResult matches a tool invocation against the request's
// tool call rounds. File reads are matched by the filePath argument
// appearing in the raw invocation message; a hit attaches the actual
// call result content so the renderer can show the file instead of
// the resultDetails fallback.
func resolveToolResult(tool *ToolInvocation, rounds []toolCallRound, results map[string]json.RawMessage) {
	if tool == nil || len(rounds) == 0 || len(results) == 0 {
		return
	}
	msg := tool.Message
	if msg == "" {
		msg = tool.PastTense
	}
	if !strings.Contains(msg, "Read") {
		return
	}

	for _, round := range rounds {
		for _, call := range round.ToolCalls {
			if call.Name != "read_file" {
				continue
			}
			var args struct {
				FilePath string `json:"filePath"`
			}
			if json.Unmarshal([]byte(call.Arguments), &args) != nil {
				continue
			}
			if args.FilePath == "" || !strings.Contains(msg, args.FilePath) {
				continue
			}
			if raw, ok := results[call.ID]; ok {
				if content := toolResultText(raw); content != "" {
					tool.Result = content
					return
				}
			}
		}
	}
}

// toolResultText flattens the nested node structure of a tool call
// result into plain text, then strips a fence that wraps the whole
// content.
func toolResultText(raw json.RawMessage) string {
	var res struct {
		Content []json.RawMessage `json:"content"`
	}
	if json.Unmarshal(raw, &res) != nil || len(res.Content) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range res.Content {
		collectNodeText(c, &b)
	}
	return stripWrappingFence(strings.TrimSpace(b.String()))
}

func collectNodeText(raw json.RawMessage, b *strings.Builder) {
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		for _, item := range list {
			collectNodeText(item, b)
		}
		return
	}

	var node map[string]json.RawMessage
	if json.Unmarshal(raw, &node) != nil {
		return
	}
	if t, ok := node["text"]; ok {
		var s string
		if json.Unmarshal(t, &s) == nil && strings.TrimSpace(s) != "" {
			b.WriteString(s)
		}
	}
	if c, ok := node["children"]; ok {
		collectNodeText(c, b)
	}
	if v, ok := node["value"]; ok {
		collectNodeText(v, b)
	}
	if n, ok := node["node"]; ok {
		collectNodeText(n, b)
	}
}

func stripWrappingFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return s
}

// decodeUserMessage extracts the user prompt: a .text field when
// present, otherwise the concatenation of parts[].text.
func decodeUserMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var msg struct {
		Text  *string `json:"text"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}
	if msg.Text != nil {
		return *msg.Text
	}
	var b strings.Builder
	for _, p := range msg.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func decodeReferences(raw json.RawMessage) []Reference {
	if len(raw) == 0 {
		return nil
	}
	var vd struct {
		Variables []struct {
			Name        string `json:"name"`
			Kind        string `json:"kind"`
			OriginLabel string `json:"originLabel"`
		} `json:"variables"`
	}
	if json.Unmarshal(raw, &vd) != nil {
		return nil
	}
	var refs []Reference
	for _, v := range vd.Variables {
		name := v.Name
		if name == "" {
			name = "Unknown"
		}
		if after, ok := strings.CutPrefix(name, "prompt:"); ok {
			refs = append(refs, Reference{Kind: RefPrompt, Display: after})
		} else {
			refs = append(refs, Reference{Kind: RefFile, Display: name})
		}
		// prompt-file variables carry the controlling setting as a
		// separate reference
		if v.Kind == "promptFile" && v.OriginLabel != "" {
			if idx := strings.Index(v.OriginLabel, "github.copilot.chat."); idx >= 0 {
				setting := v.OriginLabel[idx:]
				if sp := strings.IndexByte(setting, ' '); sp >= 0 {
					setting = setting[:sp]
				}
				refs = append(refs, Reference{Kind: RefSetting, Display: setting})
			}
		}
	}
	return refs
}

// decodePart applies the shape-matching rules in strict priority
// order: kind dispatch, string value, content.value, string content,
// plain string, then unrecognized. Exported records are not uniformly
// shaped across tool versions, so every miss degrades to an empty
// contribution instead of failing.
func decodePart(raw json.RawMessage) ResponsePart {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if strings.Contains(s, "{") && (strings.Contains(s, "$mid") || strings.Contains(s, "kind")) {
			return ResponsePart{}
		}
		return ResponsePart{Kind: PartText, Text: s}
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return ResponsePart{}
	}

	if kindRaw, ok := obj["kind"]; ok {
		var kind string
		json.Unmarshal(kindRaw, &kind)
		switch kind {
		case "toolInvocationSerialized":
			return decodeToolInvocation(obj)
		case "progressTaskSerialized":
			return ResponsePart{Kind: PartProgressTask, Text: firstMessageValue(obj)}
		case "prepareToolInvocation":
			return ResponsePart{Kind: PartPrepareTool, Text: firstMessageValue(obj)}
		case "textEditGroup":
			return decodeTextEditGroup(obj)
		case "inlineReference":
			return decodeInlineReference(obj)
		case "undoStop", "codeblockUri":
			return ResponsePart{}
		}
		if v := firstMessageValue(obj); v != "" {
			return ResponsePart{Kind: PartText, Text: v}
		}
	}

	if _, ok := obj["$mid"]; ok {
		return ResponsePart{}
	}

	if v, ok := obj["value"]; ok {
		var sv string
		if json.Unmarshal(v, &sv) == nil {
			if strings.Contains(sv, "{") && strings.Contains(sv, "$mid") {
				return ResponsePart{}
			}
			if strings.TrimSpace(sv) == "```" {
				// empty code block artifact from tool invocations
				return ResponsePart{}
			}
			return ResponsePart{Kind: PartText, Text: sv}
		}
	}

	if c, ok := obj["content"]; ok {
		if v := objectValue(c); v != "" {
			return ResponsePart{Kind: PartText, Text: v}
		}
		var sc string
		if json.Unmarshal(c, &sc) == nil {
			return ResponsePart{Kind: PartText, Text: sc}
		}
	}

	return ResponsePart{}
}

type rawResultDetails struct {
	Input  json.RawMessage `json:"input"`
	Output []struct {
		Value string `json:"value"`
	} `json:"output"`
}

func decodeToolInvocation(obj map[string]json.RawMessage) ResponsePart {
	tool := &ToolInvocation{
		Message:   messageValue(obj["invocationMessage"]),
		PastTense: messageValue(obj["pastTenseMessage"]),
	}
	if rd, ok := obj["resultDetails"]; ok {
		var details rawResultDetails
		if json.Unmarshal(rd, &details) == nil {
			var in string
			if json.Unmarshal(details.Input, &in) == nil {
				tool.Input = in
			} else if len(details.Input) > 0 {
				tool.Input = string(details.Input)
			}
			if len(details.Output) > 0 {
				tool.Output = details.Output[0].Value
			}
		}
	}
	return ResponsePart{
		Kind: PartToolInvocation,
		Text: firstMessageValue(obj),
		Tool: tool,
	}
}

func decodeTextEditGroup(obj map[string]json.RawMessage) ResponsePart {
	var uri struct {
		FsPath string `json:"fsPath"`
		Path   string `json:"path"`
	}
	json.Unmarshal(obj["uri"], &uri)
	filePath := uri.FsPath
	if filePath == "" {
		filePath = uri.Path
	}
	fileName := "Unknown file"
	if filePath != "" {
		fileName = path.Base(filePath)
	}

	var groups [][]struct {
		Text  string `json:"text"`
		Range struct {
			StartLineNumber int `json:"startLineNumber"`
			EndLineNumber   int `json:"endLineNumber"`
		} `json:"range"`
	}
	json.Unmarshal(obj["edits"], &groups)

	edit := &TextEditGroup{FileName: fileName}
	for _, group := range groups {
		for _, e := range group {
			if strings.TrimSpace(e.Text) == "" {
				continue
			}
			edit.Edits = append(edit.Edits, TextEdit{
				StartLine: e.Range.StartLineNumber,
				EndLine:   e.Range.EndLineNumber,
				Text:      e.Text,
			})
		}
	}
	return ResponsePart{Kind: PartTextEditGroup, Edit: edit}
}

func decodeInlineReference(obj map[string]json.RawMessage) ResponsePart {
	var ref struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if json.Unmarshal(obj["inlineReference"], &ref) != nil {
		return ResponsePart{}
	}
	switch {
	case ref.Name != "":
		return ResponsePart{Kind: PartInlineReference, Text: "`" + ref.Name + "`"}
	case ref.Path != "":
		return ResponsePart{Kind: PartInlineReference, Text: "`" + path.Base(ref.Path) + "`"}
	}
	return ResponsePart{}
}

// firstMessageValue returns the first non-empty of content.value,
// invocationMessage.value, pastTenseMessage.value.
func firstMessageValue(obj map[string]json.RawMessage) string {
	for _, field := range []string{"content", "invocationMessage", "pastTenseMessage"} {
		if v := messageValue(obj[field]); v != "" {
			return v
		}
	}
	return ""
}

// messageValue extracts the display string from a field that is either
// a {value: ...} object or a plain string.
func messageValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if v := objectValue(raw); v != "" {
		return v
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func objectValue(raw json.RawMessage) string {
	var obj struct {
		Value string `json:"value"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Value
	}
	return ""
}
