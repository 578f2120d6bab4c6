package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/hay-kot/ccdash/internal/core/terminal"
)

// Message types sent to the presentation surface.
const (
	TypeUpdateTerminals = "updateTerminals"
	TypeUpdateModels    = "updateModels"
	TypeError           = "error"
)

// Request types received from the presentation surface.
const (
	TypeNewTerminal    = "newTerminal"
	TypeCloseTerminal  = "closeTerminal"
	TypeFocusTerminal  = "focusTerminal"
	TypeRenameTerminal = "renameTerminal"
	TypeRequestRefresh = "requestRefresh"
)

// Message is an outbound message.
type Message interface {
	MessageType() string
}

// Card is the presentation view of one terminal.
type Card struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	CustomName      string `json:"customName,omitempty"`
	IsClaudeManaged bool   `json:"isClaudeManaged"`
	Model           string `json:"model,omitempty"`
	Status          string `json:"status"`
	CreatedAt       int64  `json:"createdAt"` // unix milliseconds
}

// DisplayName returns the custom name when set, else the label.
func (c Card) DisplayName() string {
	if c.CustomName != "" {
		return c.CustomName
	}
	return c.Label
}

// UpdateTerminals carries every tracked terminal in display order.
type UpdateTerminals struct {
	Type      string `json:"type"`
	Terminals []Card `json:"terminals"`
}

func (UpdateTerminals) MessageType() string { return TypeUpdateTerminals }

// ModelOption is one entry of the model picker.
type ModelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UpdateModels lists the selectable models and the configured default.
type UpdateModels struct {
	Type         string        `json:"type"`
	Models       []ModelOption `json:"models"`
	DefaultModel string        `json:"defaultModel"`
}

func (UpdateModels) MessageType() string { return TypeUpdateModels }

// Error reports a request that could not be carried out.
type Error struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

func (Error) MessageType() string { return TypeError }

// NewUpdateTerminals builds the terminals message, sorted for display.
func NewUpdateTerminals(terms []terminal.Terminal) UpdateTerminals {
	sorted := terminal.SortForDisplay(terms)
	cards := make([]Card, 0, len(sorted))
	for _, t := range sorted {
		cards = append(cards, Card{
			ID:              t.ID,
			Label:           t.Label,
			CustomName:      t.CustomName,
			IsClaudeManaged: t.Managed,
			Model:           string(t.Model),
			Status:          string(t.Status),
			CreatedAt:       t.CreatedAt.UnixMilli(),
		})
	}
	return UpdateTerminals{Type: TypeUpdateTerminals, Terminals: cards}
}

// NewUpdateModels builds the models message.
func NewUpdateModels(defaultModel terminal.Model) UpdateModels {
	models := terminal.Models()
	opts := make([]ModelOption, 0, len(models))
	for _, m := range models {
		opts = append(opts, ModelOption{Value: string(m), Label: m.DisplayName()})
	}
	return UpdateModels{Type: TypeUpdateModels, Models: opts, DefaultModel: string(defaultModel)}
}

// NewError builds an error message for the request type req.
func NewError(req string, err error) Error {
	return Error{Type: TypeError, Request: req, Message: err.Error()}
}

// Request is an inbound request.
type Request interface {
	RequestType() string
}

// NewTerminal asks for a managed terminal. An empty Model means the default.
type NewTerminal struct {
	Model string `json:"model"`
}

// CloseTerminal asks for a terminal to be closed.
type CloseTerminal struct {
	TerminalID string `json:"terminalId"`
}

// FocusTerminal asks for a terminal to be brought to the foreground.
type FocusTerminal struct {
	TerminalID string `json:"terminalId"`
}

// RenameTerminal sets or, with an empty Name, clears a custom name.
type RenameTerminal struct {
	TerminalID string `json:"terminalId"`
	Name       string `json:"name"`
}

// RequestRefresh asks for both models and terminals to be resent.
type RequestRefresh struct{}

func (NewTerminal) RequestType() string    { return TypeNewTerminal }
func (CloseTerminal) RequestType() string  { return TypeCloseTerminal }
func (FocusTerminal) RequestType() string  { return TypeFocusTerminal }
func (RenameTerminal) RequestType() string { return TypeRenameTerminal }
func (RequestRefresh) RequestType() string { return TypeRequestRefresh }

// DecodeRequest parses one JSON request.
func DecodeRequest(data []byte) (Request, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	var req Request
	switch head.Type {
	case TypeNewTerminal:
		req = &NewTerminal{}
	case TypeCloseTerminal:
		req = &CloseTerminal{}
	case TypeFocusTerminal:
		req = &FocusTerminal{}
	case TypeRenameTerminal:
		req = &RenameTerminal{}
	case TypeRequestRefresh:
		return RequestRefresh{}, nil
	case "":
		return nil, fmt.Errorf("decode request: missing type")
	default:
		return nil, fmt.Errorf("decode request: unknown type %q", head.Type)
	}

	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}

	switch r := req.(type) {
	case *NewTerminal:
		return *r, nil
	case *CloseTerminal:
		return *r, nil
	case *FocusTerminal:
		return *r, nil
	case *RenameTerminal:
		return *r, nil
	}
	return req, nil
}

// EncodeMessage renders m as a single JSON line without the trailing newline.
func EncodeMessage(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return data, nil
}
