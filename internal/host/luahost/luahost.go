// Package luahost exposes registered native modules to a Lua state.
//
// Every module in the registry becomes loadable with require(id). Export
// tables are converted to Lua tables; Externals become userdata with the
// "external" metatable. The global typetag table lets scripts verify an
// External before passing it anywhere that trusts its pointer.
package luahost

import (
	"fmt"

	"grammarbridge/internal/binding/typetag"
	"grammarbridge/internal/host"

	"github.com/Shopify/go-lua"
)

const externalTypeName = "external"

// Open installs the registry's modules into l's package.preload table and
// registers the typetag helpers. Modules load into env.
func Open(l *lua.State, reg *host.Registry, env *host.Env) {
	registerExternalType(l)
	registerTypeTagLib(l)

	l.Global("package")
	l.Field(-1, "preload")
	for _, id := range reg.Modules() {
		l.PushGoFunction(moduleLoader(reg, env, id))
		l.SetField(-2, id)
	}
	l.Pop(2)
}

func moduleLoader(reg *host.Registry, env *host.Env, id string) lua.Function {
	return func(l *lua.State) int {
		exports, err := reg.Load(env, id)
		if err != nil {
			lua.Errorf(l, "%s", err.Error())
			return 0
		}
		pushExports(l, exports)
		return 1
	}
}

func pushExports(l *lua.State, exports *host.Exports) {
	l.NewTable()
	for _, key := range exports.Keys() {
		value, _ := exports.Get(key)
		pushValue(l, value)
		l.SetField(-2, key)
	}
}

func pushValue(l *lua.State, value any) {
	switch v := value.(type) {
	case string:
		l.PushString(v)
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int64:
		l.PushInteger(int(v))
	case float64:
		l.PushNumber(v)
	case *host.External:
		l.PushUserData(v)
		lua.SetMetaTableNamed(l, externalTypeName)
	default:
		lua.Errorf(l, "cannot expose export of type %T to lua", value)
	}
}

func registerExternalType(l *lua.State) {
	lua.NewMetaTable(l, externalTypeName)
	l.PushGoFunction(externalToString)
	l.SetField(-2, "__tostring")
	l.PushString("locked")
	l.SetField(-2, "__metatable")
	l.Pop(1)
}

func externalToString(l *lua.State) int {
	ext := checkExternal(l, 1)
	if tag, ok := ext.Tag(); ok {
		l.PushString(fmt.Sprintf("external: %s (%s)", ext.ID(), tag))
	} else {
		l.PushString(fmt.Sprintf("external: %s (untagged)", ext.ID()))
	}
	return 1
}

func checkExternal(l *lua.State, index int) *host.External {
	ext, ok := lua.CheckUserData(l, index, externalTypeName).(*host.External)
	if !ok {
		lua.ArgumentError(l, index, "external expected")
	}
	return ext
}

// toExternal returns the External at index, or nil for any other value.
func toExternal(l *lua.State, index int) *host.External {
	ext, _ := lua.TestUserData(l, index, externalTypeName).(*host.External)
	return ext
}

var typeTagFunctions = []lua.RegistryFunction{
	{Name: "check", Function: typeTagCheck},
	{Name: "of", Function: typeTagOf},
}

func registerTypeTagLib(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, typeTagFunctions, 0)
	l.PushString(typetag.LanguageTypeTag.String())
	l.SetField(-2, "LANGUAGE")
	l.SetGlobal("typetag")
}

// typetag.check(value, tag) -> boolean
func typeTagCheck(l *lua.State) int {
	tag, err := typetag.Parse(lua.CheckString(l, 2))
	if err != nil {
		lua.ArgumentError(l, 2, err.Error())
		return 0
	}
	ext := toExternal(l, 1)
	l.PushBoolean(ext != nil && ext.CheckTypeTag(tag))
	return 1
}

// typetag.of(value) -> tag string or nil
func typeTagOf(l *lua.State) int {
	ext := toExternal(l, 1)
	if ext == nil {
		l.PushNil()
		return 1
	}
	tag, ok := ext.Tag()
	if !ok {
		l.PushNil()
		return 1
	}
	l.PushString(tag.String())
	return 1
}
