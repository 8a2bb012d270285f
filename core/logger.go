package core

// Logger is implemented by the app's logging services.
//
// args may carry anything worth reporting along with the message:
// the causing error, a context map, the acting user.User, etc.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
