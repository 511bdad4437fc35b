// Package watchdog reports a goroutine that stops servicing its task
// loop.
//
// The monitored goroutine is represented by a Scheduler; a LoopScheduler
// is provided for programs that own their loop:
//
//	loop := watchdog.NewLoopScheduler(0)
//	wd := watchdog.New(loop, 5*time.Second, dispatcher, nil)
//	wd.Start()
//	defer wd.Stop()
//	loop.Run()
//
// A timeout is reported at Critical priority as "Watchdog timeout:"
// followed by the goroutine's stack, or "Watchdog thread did not
// initialise" when the loop never ran a heartbeat. Timeouts are not fatal.
package watchdog
