// Package logger is the public API of fanlog. Most users only need to
// import this package and one or more destination packages.
//
// A Dispatcher is constructed by the host application through the
// Builder and passed to whatever needs to log; there is no package-level
// default instance:
//
//	log := logger.NewBuilder().
//	    WithDeviceID("pump-7").
//	    WithVersion("2.4", "311").
//	    WithLevel(core.Info).
//	    Build()
//	defer log.Close()
//
//	fd, err := filedest.New(filedest.FileConfig{Path: "/var/log/app.log", Reporter: log})
//	...
//	log.Add(fd)
//	log.Infof("listening on %s", addr)
//
// The first call ever emits a startup banner and the UTC offset, both at
// Notice priority, regardless of the threshold. Events less severe than
// the threshold are discarded before any formatting. A run of identical
// messages is delivered once, followed by "[Last message repeated N
// times]" when the run ends or the dispatcher is closed.
//
// Emit never blocks on I/O and never fails: each destination queues the
// event and delivers it from its own goroutine. Destinations can be
// added and removed while other goroutines are emitting.
package logger
