package core

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// UnknownTag is used when no call-site location is available.
const UnknownTag = "??"

// Event is a single log event. It is never mutated after the dispatcher
// has built it.
type Event struct {
	Time     time.Time
	Priority Priority
	DeviceID string
	Tag      string
	Text     string
}

// CallerInfo contains information about the caller
type CallerInfo struct {
	File      string
	ShortFile string
	Line      int
	Function  string
	Defined   bool
}

// GetCaller retrieves caller information. A skip of 0 describes the
// function that called GetCaller.
func GetCaller(skip int) CallerInfo {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallerInfo{}
	}
	fn := runtime.FuncForPC(pc)
	var funcName string
	if fn != nil {
		funcName = fn.Name()
	}
	return CallerInfo{
		File:      file,
		ShortFile: filepath.Base(file),
		Line:      line,
		Function:  funcName,
		Defined:   true,
	}
}

// Tag renders the caller as "file.go:42". When the file is unknown the
// short function name is used instead, and UnknownTag when nothing is
// known at all.
func (c CallerInfo) Tag() string {
	if !c.Defined {
		return UnknownTag
	}
	name := c.ShortFile
	if name == "" || name == "." {
		name = shortFunction(c.Function)
	}
	if name == "" {
		return UnknownTag
	}
	if c.Line > 0 {
		return name + ":" + strconv.Itoa(c.Line)
	}
	return name
}

// shortFunction strips the import path from a fully qualified function name,
// e.g. "github.com/x/y/pkg.(*T).Method" becomes "pkg.(*T).Method".
func shortFunction(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	return fn
}
