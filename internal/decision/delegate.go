// Package decision implements LLM-backed move selection: an opponent move
// delegate and a natural-language command interpreter for the player.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
)

// ErrMalformedResponse is returned when the model reply holds no usable JSON decision.
var ErrMalformedResponse = errors.New("malformed model response")

// MessageCreator is the subset of the Anthropic messages API used here.
type MessageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// NewMessageCreator returns the messages service of a client authenticated with apiKey.
func NewMessageCreator(apiKey string) MessageCreator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

// Delegate asks a language model to pick the mover's next move.
type Delegate struct {
	client    MessageCreator
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// NewDelegate creates a Delegate.
//
// Precondition: client and logger must be non-nil; maxTokens > 0.
func NewDelegate(client MessageCreator, model string, maxTokens int64, logger *zap.Logger) *Delegate {
	return &Delegate{client: client, model: anthropic.Model(model), maxTokens: maxTokens, logger: logger}
}

type promptMove struct {
	Name        string  `json:"name"`
	Power       float64 `json:"power,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Prompt renders the decision as the instruction sent to the model.
//
// Postcondition: Returns an error when a move cannot be encoded as JSON,
// e.g. a NaN power.
func Prompt(d battle.Decision) (string, error) {
	moves := make([]promptMove, len(d.Moves))
	for i, m := range d.Moves {
		moves[i] = promptMove{Name: m.Name, Power: m.Power, Description: m.Description}
	}
	moveset, err := json.Marshal(moves)
	if err != nil {
		return "", fmt.Errorf("encoding moveset: %w", err)
	}
	return fmt.Sprintf("You are an AI controlling a monster in a battle. "+
		"Your monster (%s) has %s HP left. The opponent (%s) has %s HP left. "+
		"Choose a move from your moveset: %s. "+
		"Return your decision as a JSON object with 'move' and 'reason' properties.",
		d.Self.Name, formatHP(d.SelfHealth), d.Opponent.Name, formatHP(d.OpponentHealth), moveset), nil
}

// ChooseMove sends the decision prompt and parses {"move", "reason"} from the reply.
// The returned name is not validated against the mover's set; the session does that.
func (d *Delegate) ChooseMove(ctx context.Context, dec battle.Decision) (battle.Choice, error) {
	prompt, err := Prompt(dec)
	if err != nil {
		return battle.Choice{}, err
	}
	text, err := d.complete(ctx, prompt)
	if err != nil {
		return battle.Choice{}, err
	}
	obj, err := extractObject(text)
	if err != nil {
		return battle.Choice{}, err
	}
	name := strings.TrimSpace(gjson.Get(obj, "move").String())
	if name == "" {
		return battle.Choice{}, fmt.Errorf("%w: no move in %q", ErrMalformedResponse, obj)
	}
	choice := battle.Choice{Move: name, Reason: strings.TrimSpace(gjson.Get(obj, "reason").String())}
	d.logger.Debug("delegate chose move",
		zap.String("mover", dec.Self.Name),
		zap.String("move", choice.Move),
		zap.String("reason", choice.Reason),
	)
	return choice, nil
}

func (d *Delegate) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := d.client.New(ctx, anthropic.MessageNewParams{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: "Respond with a single JSON object and nothing else."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting model completion: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// extractObject returns the outermost {...} span of text when it is valid JSON.
func extractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, text)
	}
	obj := text[start : end+1]
	if !gjson.Valid(obj) {
		return "", fmt.Errorf("%w: invalid JSON %q", ErrMalformedResponse, obj)
	}
	return obj, nil
}

func formatHP(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
