package vnc

import "github.com/golang/glog"

// Logger is the structured log sink the Session reports desync,
// unsupported-feature, and codec warnings through (see spec.md §7). The
// teacher's ClientConfig carried a *log.Logger field the same way; this
// generalizes it to an interface so a host can plug in its own sink,
// defaulting to glog when SessionConfig.Logger is nil.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// glogLogger is the default Logger, backed by glog the way the
// teacher's go.mod already depends on it.
type glogLogger struct{}

func (glogLogger) Infof(format string, args ...interface{})    { glog.V(1).Infof(format, args...) }
func (glogLogger) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }
func (glogLogger) Errorf(format string, args ...interface{})   { glog.Errorf(format, args...) }

// discardLogger drops everything; useful in tests that assert on
// behavior rather than log output.
type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})    {}
func (discardLogger) Warningf(string, ...interface{}) {}
func (discardLogger) Errorf(string, ...interface{})   {}
