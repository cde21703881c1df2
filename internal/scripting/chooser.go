package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

// ChooseHook is the global Lua function a policy script must define:
//
//	function choose_move(self, opponent, moves) return name, reason end
const ChooseHook = "choose_move"

// ErrNoHook is returned when the loaded scripts do not define ChooseHook.
var ErrNoHook = errors.New("scripting: choose_move is not defined")

// Chooser is a battle.Chooser backed by a Lua policy script.
//
// Chooser is safe for concurrent use; calls into the VM are serialised.
type Chooser struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger
}

// NewChooser loads path (a .lua file, or a directory whose *.lua files are run
// in lexicographic order) into a fresh sandbox.
//
// Precondition: src and logger must be non-nil; instLimit <= 0 selects
// DefaultInstructionLimit.
// Postcondition: Returns ErrNoHook (wrapped) when choose_move is missing.
func NewChooser(path string, instLimit int, src dice.Source, logger *zap.Logger) (*Chooser, error) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	files, err := luaFiles(path)
	if err != nil {
		return nil, err
	}

	L := NewSandboxedState()
	RegisterModules(L, src, logger)
	for _, f := range files {
		err := withInstructionLimit(context.Background(), L, instLimit, func() error { return L.DoFile(f) })
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", f, err)
		}
	}
	if L.GetGlobal(ChooseHook).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%w in %q", ErrNoHook, path)
	}
	logger.Info("scripted chooser loaded", zap.String("path", path), zap.Int("files", len(files)))
	return &Chooser{L: L, limit: instLimit, logger: logger}, nil
}

func luaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ChooseMove calls choose_move(self, opponent, moves) and returns its first
// result as the move name and its optional second result as the reason.
//
// Postcondition: Lua runtime errors, instruction-limit exhaustion and
// non-string results are returned as errors; the name is not validated here.
func (c *Chooser) ChooseMove(ctx context.Context, d battle.Decision) (battle.Choice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	L := c.L
	self := combatantTable(L, d.Self, d.SelfHealth)
	opp := combatantTable(L, d.Opponent, d.OpponentHealth)
	moves := L.NewTable()
	for _, m := range d.Moves {
		t := L.NewTable()
		L.SetField(t, "name", lua.LString(m.Name))
		L.SetField(t, "power", lua.LNumber(m.Power))
		L.SetField(t, "pool", lua.LString(string(m.Pool)))
		L.SetField(t, "effect", lua.LString(string(m.Effect)))
		L.SetField(t, "description", lua.LString(m.Description))
		moves.Append(t)
	}

	var choice battle.Choice
	err := withInstructionLimit(ctx, L, c.limit, func() error {
		if err := L.CallByParam(lua.P{
			Fn:      L.GetGlobal(ChooseHook),
			NRet:    2,
			Protect: true,
		}, self, opp, moves); err != nil {
			return err
		}
		name, reason := L.Get(-2), L.Get(-1)
		L.Pop(2)
		s, ok := name.(lua.LString)
		if !ok {
			return fmt.Errorf("choose_move returned %s, want string", name.Type())
		}
		choice.Move = string(s)
		if r, ok := reason.(lua.LString); ok {
			choice.Reason = string(r)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("scripting: choose_move failed", zap.String("mover", d.Self.Name), zap.Error(err))
		return battle.Choice{}, fmt.Errorf("scripting: %w", err)
	}
	return choice, nil
}

// Close releases the Lua VM.
func (c *Chooser) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.L.Close()
}

func combatantTable(L *lua.LState, c monster.Combatant, health float64) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "rarity", lua.LString(c.Rarity.String()))
	L.SetField(t, "health", lua.LNumber(health))
	L.SetField(t, "max_health", lua.LNumber(c.Stats.Health))
	L.SetField(t, "attack", lua.LNumber(c.Stats.Attack))
	L.SetField(t, "defense", lua.LNumber(c.Stats.Defense))
	return t
}
