// Package script runs Lua programs against a PCD8544 display.
//
// The following functions are available to scripts:
//
//	pixel(x, y, on)           set or clear one pixel
//	get_pixel(x, y)           true when the pixel is on
//	text(x, page, s [, large]) draw text, returns the number of glyphs drawn
//	fill(v)                   set every display byte to v
//	contrast(v)               set the operating voltage (0-127)
//	invert(on)                inverse video
//	sleep(ms)                 pause, cut short when the context is cancelled
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"periph.io/x/devices/v3/pcd8544"
)

// Display is the part of pcd8544.Dev scripts can reach.
type Display interface {
	SetPixel(x, y int, on bool) error
	Pixel(x, y int) bool
	DrawText(x, page int, s string, large bool) (int, error)
	Fill(v byte) error
	SetContrast(v byte) error
	Invert(invert bool) error
}

var _ Display = (*pcd8544.Dev)(nil)

// Run executes src. Errors raised by the script, including display errors,
// are returned; cancelling ctx stops the script.
func Run(ctx context.Context, d Display, src string) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	b := &binding{d: d}
	for name, fn := range b.functions() {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	if err := L.DoString(src); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A display error that ended the script stays inspectable with
		// errors.Is. Errors caught by pcall never get here.
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) {
			if ud, ok := apiErr.Object.(*lua.LUserData); ok {
				if derr, ok := ud.Value.(error); ok {
					return fmt.Errorf("script: %w", derr)
				}
			}
		}
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// binding exposes a Display to a Lua state.
type binding struct {
	d Display
}

func (b *binding) functions() map[string]lua.LGFunction {
	d, check := b.d, b.check
	return map[string]lua.LGFunction{
		"pixel": func(L *lua.LState) int {
			check(L, d.SetPixel(L.CheckInt(1), L.CheckInt(2), L.CheckBool(3)))
			return 0
		},
		"get_pixel": func(L *lua.LState) int {
			L.Push(lua.LBool(d.Pixel(L.CheckInt(1), L.CheckInt(2))))
			return 1
		},
		"text": func(L *lua.LState) int {
			n, err := d.DrawText(L.CheckInt(1), L.CheckInt(2), L.CheckString(3), L.OptBool(4, false))
			check(L, err)
			L.Push(lua.LNumber(n))
			return 1
		},
		"fill": func(L *lua.LState) int {
			check(L, d.Fill(checkByte(L, 1)))
			return 0
		},
		"contrast": func(L *lua.LState) int {
			check(L, d.SetContrast(checkByte(L, 1)))
			return 0
		},
		"invert": func(L *lua.LState) int {
			check(L, d.Invert(L.CheckBool(1)))
			return 0
		},
		"sleep": func(L *lua.LState) int {
			t := time.NewTimer(time.Duration(L.CheckInt(1)) * time.Millisecond)
			defer t.Stop()
			select {
			case <-t.C:
			case <-L.Context().Done():
				L.RaiseError("%v", L.Context().Err())
			}
			return 0
		},
	}
}

// check raises err into the script as a userdata carrying the Go error, so
// Run can tell it apart from errors raised by the script itself.
func (b *binding) check(L *lua.LState, err error) {
	if err == nil {
		return
	}
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, errorMeta(L))
	L.Error(ud, 1)
}

// errorMeta makes raised display errors print as their message.
func errorMeta(L *lua.LState) *lua.LTable {
	mt := L.NewTypeMetatable("pcd8544.error")
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		if err, ok := ud.Value.(error); ok {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LString("display error"))
		return 1
	}))
	return mt
}

func checkByte(L *lua.LState, n int) byte {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFF {
		L.ArgError(n, "value out of byte range")
	}
	return byte(v)
}
