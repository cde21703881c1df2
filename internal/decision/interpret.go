package decision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// InvalidMove is the sentinel move name the model returns for unmatched commands.
const InvalidMove = "Invalid Move"

// ErrUnrecognisedCommand is returned when a command maps to no known move.
var ErrUnrecognisedCommand = errors.New("command does not match any move")

// Interpreter maps a player's natural-language command onto one of their moves.
type Interpreter struct {
	delegate *Delegate
}

// NewInterpreter creates an Interpreter sharing the delegate's client and model.
func NewInterpreter(d *Delegate) *Interpreter {
	return &Interpreter{delegate: d}
}

// CommandPrompt renders the instruction that maps query onto one of moves.
// Moves are listed in name order so the prompt is stable.
func CommandPrompt(query string, moves map[string]string) string {
	names := make([]string, 0, len(moves))
	for n := range moves {
		names = append(names, n)
	}
	sort.Strings(names)
	entries := make([]string, len(names))
	for i, n := range names {
		entries[i] = n + ": " + moves[n]
	}
	return "You are an AI agent helping determine the correct move in a game based on natural language commands.\n" +
		"The game has the following moves:\n\n" + strings.Join(entries, ", ") + "\n\n" +
		"Given a user's input query, determine the move they want to execute.\n" +
		"Respond strictly in JSON format as:\n{\"move\":<move name>}\n" +
		"If the query doesn't match any move, respond with:\n{\"move\":\"" + InvalidMove + "\"}\n\n" +
		"User Query: " + query
}

// Interpret returns the move name the command refers to.
//
// Postcondition: the result is a key of moves, or ErrUnrecognisedCommand (wrapped).
func (i *Interpreter) Interpret(ctx context.Context, query string, moves map[string]string) (string, error) {
	text, err := i.delegate.complete(ctx, CommandPrompt(query, moves))
	if err != nil {
		return "", err
	}
	obj, err := extractObject(text)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(gjson.Get(obj, "move").String())
	if _, ok := moves[name]; !ok || name == InvalidMove {
		i.delegate.logger.Debug("command not recognised", zap.String("query", query), zap.String("move", name))
		return "", fmt.Errorf("%w: %q", ErrUnrecognisedCommand, query)
	}
	return name, nil
}
