package formatter

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/philipp01105/fanlog/core"
)

// FacilityLocal0 is the syslog facility used unless configured otherwise.
const FacilityLocal0 = 16

// Facility returns a pointer to code for SyslogConfig.Facility
func Facility(code int) *int {
	return &code
}

// RFC3164Timestamp is the BSD syslog timestamp layout.
const RFC3164Timestamp = "Jan 02 15:04:05"

// SyslogConfig configures a SyslogFormatter
type SyslogConfig struct {
	// Hostname placed in the header (default: os.Hostname)
	Hostname string
	// Facility code 0-23 (default: FacilityLocal0). Nil selects the
	// default so that 0 (kern) stays expressible.
	Facility *int
	// Location for the timestamp (default: time.Local)
	Location *time.Location
}

// SyslogFormatter renders RFC 3164 messages:
//
//	<PRI>MMM dd HH:mm:ss HOSTNAME TAG: MESSAGE
//
// Colons in the tag are replaced with dots so the tag delimiter stays
// unambiguous.
type SyslogFormatter struct {
	hostname string
	facility int
	location *time.Location
}

// NewSyslogFormatter creates a new RFC 3164 formatter
func NewSyslogFormatter(cfg SyslogConfig) *SyslogFormatter {
	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			cfg.Hostname = h
		} else {
			cfg.Hostname = "localhost"
		}
	}
	facility := FacilityLocal0
	if cfg.Facility != nil && *cfg.Facility >= 0 && *cfg.Facility <= 23 {
		facility = *cfg.Facility
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SyslogFormatter{
		hostname: cfg.Hostname,
		facility: facility,
		location: cfg.Location,
	}
}

// Hostname returns the hostname written into each header
func (f *SyslogFormatter) Hostname() string {
	return f.hostname
}

// PRI computes the RFC 3164 priority value for p
func (f *SyslogFormatter) PRI(p core.Priority) int {
	return f.facility*8 + int(p)
}

// Format formats an event as a single syslog datagram body
func (f *SyslogFormatter) Format(ev *core.Event) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	f.FormatEvent(ev, buf)
	return detach(buf), nil
}

// FormatEvent writes the syslog body into the given buffer
func (f *SyslogFormatter) FormatEvent(ev *core.Event, buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.Write(strconv.AppendInt(buf.AvailableBuffer(), int64(f.PRI(ev.Priority)), 10))
	buf.WriteByte('>')
	buf.Write(ev.Time.In(f.location).AppendFormat(buf.AvailableBuffer(), RFC3164Timestamp))
	buf.WriteByte(' ')
	buf.WriteString(f.hostname)
	buf.WriteByte(' ')

	tag := ev.Tag
	if tag == "" {
		tag = core.UnknownTag
	}
	buf.WriteString(strings.ReplaceAll(tag, ":", "."))
	buf.WriteString(": ")
	buf.WriteString(strings.TrimRight(ev.Text, "\r\n"))
}
