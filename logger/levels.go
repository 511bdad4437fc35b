package logger

import (
	"errors"

	"github.com/philipp01105/fanlog/core"
)

// Emergencyf logs at Emergency priority
func (d *Dispatcher) Emergencyf(msg string, args ...any) {
	d.log(core.Emergency, msg, args)
}

// Alertf logs at Alert priority
func (d *Dispatcher) Alertf(msg string, args ...any) {
	d.log(core.Alert, msg, args)
}

// Criticalf logs at Critical priority
func (d *Dispatcher) Criticalf(msg string, args ...any) {
	d.log(core.Critical, msg, args)
}

// Errorf logs at Error priority
func (d *Dispatcher) Errorf(msg string, args ...any) {
	d.log(core.Error, msg, args)
}

// Warningf logs at Warning priority
func (d *Dispatcher) Warningf(msg string, args ...any) {
	d.log(core.Warning, msg, args)
}

// Noticef logs at Notice priority
func (d *Dispatcher) Noticef(msg string, args ...any) {
	d.log(core.Notice, msg, args)
}

// Infof logs at Info priority
func (d *Dispatcher) Infof(msg string, args ...any) {
	d.log(core.Info, msg, args)
}

// Debugf logs at Debug priority
func (d *Dispatcher) Debugf(msg string, args ...any) {
	d.log(core.Debug, msg, args)
}

// Debug logs only when the threshold is Debug
func (d *Dispatcher) Debug(msg string, args ...any) {
	d.log(core.Debug, msg, args)
}

// Func returns a function that logs each string at Info priority, for
// libraries that accept a plain print callback.
func (d *Dispatcher) Func() func(string) {
	return func(msg string) {
		d.log(core.Info, msg, nil)
	}
}

// LogError logs err at Error priority as "Exception: <err>", followed by
// "Caused by:" and each wrapped cause in turn.
func (d *Dispatcher) LogError(err error) {
	if err == nil {
		return
	}
	d.startup()
	if !d.Level().Admits(core.Error) {
		return
	}
	d.logError(core.GetCaller(1).Tag(), err)
}

func (d *Dispatcher) logError(tag string, err error) {
	d.dispatch(core.Error, tag, "Exception: "+err.Error(), false)

	var causes []error
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		causes = x.Unwrap()
	default:
		if cause := errors.Unwrap(err); cause != nil {
			causes = []error{cause}
		}
	}
	for _, cause := range causes {
		if cause == nil {
			continue
		}
		d.dispatch(core.Error, tag, "Caused by:", false)
		d.logError(tag, cause)
	}
}
