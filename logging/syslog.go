package logging

import (
	"bytes"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RackSec/srslog"
	"github.com/leeforge/logfactory/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap/zapcore"
)

// KindSyslogLogstash ships records to a Logstash syslog input over UDP.
const KindSyslogLogstash = "syslog-logstash"

// maxDatagram is the largest payload the handler sends in one UDP packet.
const maxDatagram = 65023

const syslogTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// SyslogLogstashOptions configures a syslog-logstash handler.
type SyslogLogstashOptions struct {
	SourceProgram  string `mapstructure:"source_program" validate:"required"`
	SourceHost     string `mapstructure:"source_host" validate:"required"`
	SyslogHost     string `mapstructure:"syslog_host" validate:"required"`
	SyslogPort     int    `mapstructure:"syslog_port" validate:"required,min=1,max=65535"`
	SyslogFacility string `mapstructure:"syslog_facility" validate:"required"`
	Level          string `mapstructure:"level" validate:"required"`
}

var syslogFacilities = map[string]srslog.Priority{
	"kern":     srslog.LOG_KERN,
	"user":     srslog.LOG_USER,
	"mail":     srslog.LOG_MAIL,
	"daemon":   srslog.LOG_DAEMON,
	"auth":     srslog.LOG_AUTH,
	"syslog":   srslog.LOG_SYSLOG,
	"lpr":      srslog.LOG_LPR,
	"news":     srslog.LOG_NEWS,
	"uucp":     srslog.LOG_UUCP,
	"cron":     srslog.LOG_CRON,
	"authpriv": srslog.LOG_AUTHPRIV,
	"ftp":      srslog.LOG_FTP,
	"local0":   srslog.LOG_LOCAL0,
	"local1":   srslog.LOG_LOCAL1,
	"local2":   srslog.LOG_LOCAL2,
	"local3":   srslog.LOG_LOCAL3,
	"local4":   srslog.LOG_LOCAL4,
	"local5":   srslog.LOG_LOCAL5,
	"local6":   srslog.LOG_LOCAL6,
	"local7":   srslog.LOG_LOCAL7,
}

// ParseFacility accepts a facility name (user, local0, LOG_LOCAL0) or a
// number. A multiple of 8 up to 184 is a LOG_* constant value (LOG_USER is
// 8, LOG_LOCAL0 is 128); any other number from 1 to 23 is the bare facility
// code.
func ParseFacility(v any) (srslog.Priority, error) {
	s := strings.ToLower(strings.TrimSpace(cast.ToString(v)))
	s = strings.TrimPrefix(s, "log_")
	if f, ok := syslogFacilities[s]; ok {
		return f, nil
	}
	n, err := cast.ToIntE(s)
	if err != nil {
		return 0, errors.NewInvalid("syslog_facility", v, "unknown facility")
	}
	switch {
	case n >= 0 && n <= int(srslog.LOG_LOCAL7) && n%8 == 0:
		return srslog.Priority(n), nil
	case n > 0 && n <= 23:
		return srslog.Priority(n << 3), nil
	}
	return 0, errors.NewInvalid("syslog_facility", v, "unknown facility")
}

// SyslogLogstashHandler sends each formatted record as RFC 5424 datagrams.
// Each line of a multi-line record goes out as its own datagram.
type SyslogLogstashHandler struct {
	baseHandler
	opts     SyslogLogstashOptions
	facility srslog.Priority
	pid      string

	wmu    sync.Mutex
	writer *srslog.Writer
	stamp  time.Time
}

// NewSyslogLogstashHandlerFromOptions is the HandlerConstructor for
// KindSyslogLogstash.
func NewSyslogLogstashHandlerFromOptions(options map[string]any) (Handler, error) {
	var opts SyslogLogstashOptions
	if err := decodeOptions(KindSyslogLogstash, options, &opts); err != nil {
		return nil, err
	}
	h, err := NewSyslogLogstashHandler(opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func NewSyslogLogstashHandler(opts SyslogLogstashOptions) (*SyslogLogstashHandler, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, errors.Wrap(err, KindSyslogLogstash).WithDetail("handler", KindSyslogLogstash)
	}
	facility, err := ParseFacility(opts.SyslogFacility)
	if err != nil {
		return nil, errors.Wrap(err, KindSyslogLogstash).WithDetail("handler", KindSyslogLogstash)
	}
	return &SyslogLogstashHandler{
		baseHandler: baseHandler{kind: KindSyslogLogstash, level: level},
		opts:        opts,
		facility:    facility,
		pid:         strconv.Itoa(os.Getpid()),
	}, nil
}

// Addr is the host:port datagrams are sent to.
func (h *SyslogLogstashHandler) Addr() string {
	return net.JoinHostPort(h.opts.SyslogHost, strconv.Itoa(h.opts.SyslogPort))
}

func (h *SyslogLogstashHandler) Core() zapcore.Core {
	return newHandlerCore(h.level, h.Formatter().Encoder(), h)
}

// frame is the srslog formatter: "<PRI>1 TIMESTAMP HOST PROGRAM PID - - MSG",
// cut to maxDatagram. srslog's own hostname is replaced by source_host, and
// the timestamp is the record's, set by emit under wmu.
func (h *SyslogLogstashHandler) frame(p srslog.Priority, _, tag, content string) string {
	content = strings.TrimSuffix(content, "\n")

	b := make([]byte, 0, 96+len(content))
	b = append(b, '<')
	b = strconv.AppendInt(b, int64(p), 10)
	b = append(b, ">1 "...)
	b = h.stamp.AppendFormat(b, syslogTimeLayout)
	b = append(b, ' ')
	b = append(b, h.opts.SourceHost...)
	b = append(b, ' ')
	b = append(b, tag...)
	b = append(b, ' ')
	b = append(b, h.pid...)
	b = append(b, " - - "...)
	b = append(b, content...)
	if len(b) > maxDatagram {
		b = b[:maxDatagram]
	}
	return string(b)
}

func (h *SyslogLogstashHandler) dial() error {
	w, err := srslog.Dial("udp", h.Addr(), h.facility|srslog.LOG_INFO, h.opts.SourceProgram)
	if err != nil {
		return errors.NewExternal(KindSyslogLogstash, err).WithDetail("addr", h.Addr())
	}
	w.SetFormatter(h.frame)
	w.SetFramer(srslog.DefaultFramer)
	h.writer = w
	return nil
}

func (h *SyslogLogstashHandler) emit(ent zapcore.Entry, line []byte) error {
	h.wmu.Lock()
	defer h.wmu.Unlock()

	if h.writer == nil {
		if err := h.dial(); err != nil {
			return err
		}
	}

	h.stamp = ent.Time
	priority := h.facility | srslog.Priority(syslogSeverity(ent.Level))
	for _, part := range bytes.Split(bytes.TrimRight(line, "\r\n"), []byte("\n")) {
		part = bytes.TrimRight(part, "\r")
		if len(part) == 0 {
			continue
		}
		if _, err := h.writer.WriteWithPriority(priority, part); err != nil {
			return errors.NewExternal(KindSyslogLogstash, err).WithDetail("addr", h.Addr())
		}
	}
	return nil
}

func (h *SyslogLogstashHandler) Sync() error { return nil }

func (h *SyslogLogstashHandler) Close() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if h.writer == nil {
		return nil
	}
	err := h.writer.Close()
	h.writer = nil
	return err
}
