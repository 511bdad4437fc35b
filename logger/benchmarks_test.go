package logger

import (
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/destination/consoledest"
)

func newBenchDispatcher(level core.Priority, dests ...destination.Destination) *Dispatcher {
	d := NewBuilder().WithLevel(level).WithDestinations(dests...).Build()
	d.Infof("warm up")
	return d
}

// BenchmarkEmitDistinct emits non-repeating messages to a synchronous
// console destination writing to io.Discard.
func BenchmarkEmitDistinct(b *testing.B) {
	d := newBenchDispatcher(core.Info, consoledest.New(consoledest.ConsoleConfig{Writer: io.Discard}))
	defer d.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Infof("request %d served", i)
	}
}

// BenchmarkEmitDuplicate measures the collapsed path
func BenchmarkEmitDuplicate(b *testing.B) {
	d := newBenchDispatcher(core.Info, consoledest.New(consoledest.ConsoleConfig{Writer: io.Discard}))
	defer d.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Infof("same message")
	}
}

// BenchmarkEmitFiltered measures a message below the threshold
func BenchmarkEmitFiltered(b *testing.B) {
	d := newBenchDispatcher(core.Info, consoledest.New(consoledest.ConsoleConfig{Writer: io.Discard}))
	defer d.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Debug("debug message")
	}
}

// BenchmarkEmitAsyncFanOut fans out to four queued destinations
func BenchmarkEmitAsyncFanOut(b *testing.B) {
	var dests []destination.Destination
	for i := 0; i < 4; i++ {
		dests = append(dests, consoledest.New(consoledest.ConsoleConfig{Writer: io.Discard, Async: true}))
	}
	d := newBenchDispatcher(core.Info, dests...)
	defer d.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Infof("request %d served", i)
	}
}

// BenchmarkZapSugarBaseline is the same workload on a zap console logger
func BenchmarkZapSugarBaseline(b *testing.B) {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	log := zap.New(zapcore.NewCore(enc, zapcore.AddSync(io.Discard), zapcore.InfoLevel), zap.AddCaller()).Sugar()
	defer log.Sync()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		log.Infof("request %d served", i)
	}
}
