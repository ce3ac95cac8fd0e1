package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	errMu sync.Mutex
	errW  io.WriteCloser
}

// New logs to stdout and additionally copies errors into errorsPath, which is
// truncated on startup. An empty path disables the errors file.
func New(errorsPath string) (*Logger, error) {
	if errorsPath == "" {
		return NewWriter(os.Stdout), nil
	}

	if err := os.Truncate(errorsPath, 0); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	f, err := os.OpenFile(errorsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l := newLogger(os.Stdout, io.MultiWriter(os.Stdout, f))
	l.errW = f
	return l, nil
}

// NewWriter sends every level to w.
func NewWriter(w io.Writer) *Logger {
	return newLogger(w, w)
}

func newLogger(out, errOut io.Writer) *Logger {
	return &Logger{
		info: log.New(out, "INFO ", log.LstdFlags|log.Lmicroseconds),
		warn: log.New(out, "WARN ", log.LstdFlags|log.Lmicroseconds),
		err:  log.New(errOut, "ERROR ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	}
}

func (l *Logger) Close() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.errW != nil {
		err := l.errW.Close()
		l.errW = nil
		return err
	}
	return nil
}

func (l *Logger) Infof(format string, args ...any) {
	l.info.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.warn.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.err.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.err.Output(2, err.Error())
}
