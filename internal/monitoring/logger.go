package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tools and tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf is the verbose trace stream. It is a no-op until EnableDebug is
// called; projection hot paths never log through it.
var Debugf func(format string, v ...interface{}) = noop

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = noop
		return
	}
	Logf = f
}

// EnableDebug routes Debugf through the current Logf. EnableDebug(false)
// mutes the stream again.
func EnableDebug(on bool) {
	if !on {
		Debugf = noop
		return
	}
	Debugf = func(format string, v ...interface{}) {
		Logf("debug: "+format, v...)
	}
}

func noop(string, ...interface{}) {}
