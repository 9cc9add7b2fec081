package ws

import "github.com/hotpush/backend/internal/graph"

type MessageType string

const (
	MsgUpdateStart MessageType = "update-start"
	MsgUpdate      MessageType = "update"
	MsgError       MessageType = "error"
	MsgUpdateDone  MessageType = "update-done"
)

// Message is one outbound protocol frame. Body is present only for
// MsgUpdate and MsgError.
type Message struct {
	Type MessageType `json:"type"`
	Body any         `json:"body,omitempty"`
}

// UpdateBody carries the ordered module patch set for one hot update,
// together with the current inverse-dependency map so the client can
// recompute dependents without a round trip.
type UpdateBody struct {
	Modules             []ModulePayload     `json:"modules"`
	InverseDependencies map[string][]string `json:"inverseDependencies"`
	SourceURLs          []string            `json:"sourceURLs"`
	SourceMappingURLs   []string            `json:"sourceMappingURLs"`
}

type ModulePayload struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ErrorBody is the typed error frame payload.
type ErrorBody struct {
	Type        graph.ErrorKind `json:"type"`
	Description string          `json:"description"`
	Filename    string          `json:"filename,omitempty"`
	LineNumber  int             `json:"lineNumber,omitempty"`
}

func UpdateStart() Message { return Message{Type: MsgUpdateStart} }
func UpdateDone() Message  { return Message{Type: MsgUpdateDone} }

// EncodeUpdate packages a rendered bundle and inverse-dependency map into
// an update frame. It returns ok == false for an empty bundle: there is no
// changed module code to ship, so no frame should be sent.
func EncodeUpdate(bundle *graph.Bundle, inverse map[string][]string) (Message, bool) {
	if bundle.Empty() {
		return Message{}, false
	}

	mods := make([]ModulePayload, len(bundle.Modules))
	for i, m := range bundle.Modules {
		mods[i] = ModulePayload{ID: m.ID, Code: m.Code}
	}

	return Message{
		Type: MsgUpdate,
		Body: UpdateBody{
			Modules:             mods,
			InverseDependencies: inverse,
			SourceURLs:          bundle.SourceURLs,
			SourceMappingURLs:   bundle.SourceMappingURLs,
		},
	}, true
}

// EncodeError packages a service error into a typed error frame.
func EncodeError(kind graph.ErrorKind, description, filename string, line int) Message {
	return Message{
		Type: MsgError,
		Body: ErrorBody{
			Type:        kind,
			Description: description,
			Filename:    filename,
			LineNumber:  line,
		},
	}
}
