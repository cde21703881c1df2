package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
)

// RegisterModules installs the engine table into L:
//
//	engine.random(n)  -> integer in [1, n] drawn from src
//	engine.log(msg)   -> writes msg to the logger at debug level
//
// Precondition: L must be from NewSandboxedState; src and logger must be non-nil.
func RegisterModules(L *lua.LState, src dice.Source, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetField(engine, "random", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "n must be > 0")
			return 0
		}
		L.Push(lua.LNumber(src.Intn(n) + 1))
		return 1
	}))
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Debug("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("engine", engine)
}
