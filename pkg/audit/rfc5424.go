package audit

import (
	"fmt"
	"strings"
	"time"
)

// Facility represents RFC 5424 syslog facility codes.
type Facility int

const (
	FacUser   Facility = 1
	FacLocal0 Facility = 16
)

// sdID is the structured data element ID used for every audit message.
const sdID = "puretodo@32473"

// SDParam is a single key-value parameter within a structured data element.
type SDParam struct {
	Name  string
	Value string
}

// SDElement is a structured data element with an ID and parameters.
type SDElement struct {
	ID     string
	Params []SDParam
}

// Message is an RFC 5424 syslog message.
type Message struct {
	Facility  Facility
	Severity  Severity
	Timestamp time.Time
	Hostname  string
	AppName   string
	ProcessID string // "" renders as NILVALUE
	MessageID string
	SD        []SDElement
	Text      string
}

// timestampFormat renders RFC 5424 timestamps with fixed millisecond precision.
const timestampFormat = "2006-01-02T15:04:05.000Z"

// Header field length limits from RFC 5424 section 6.
const (
	maxHostname  = 255
	maxAppName   = 48
	maxProcessID = 128
	maxMessageID = 32
)

// FormatMessage serializes m to RFC 5424 wire format without a trailing
// newline.
func FormatMessage(m Message) []byte {
	var b strings.Builder
	b.Grow(256)

	fmt.Fprintf(&b, "<%d>1 ", int(m.Facility)*8+int(m.Severity))
	if m.Timestamp.IsZero() {
		b.WriteByte('-')
	} else {
		b.WriteString(m.Timestamp.UTC().Format(timestampFormat))
	}

	for _, f := range []struct {
		val string
		max int
	}{
		{m.Hostname, maxHostname},
		{m.AppName, maxAppName},
		{m.ProcessID, maxProcessID},
		{m.MessageID, maxMessageID},
	} {
		b.WriteByte(' ')
		b.WriteString(headerField(f.val, f.max))
	}

	b.WriteByte(' ')
	writeStructuredData(&b, m.SD)

	if m.Text != "" {
		b.WriteByte(' ')
		b.WriteString(m.Text)
	}
	return []byte(b.String())
}

// headerField returns val truncated to maxLen with non-printable bytes
// removed, or "-" when nothing remains.
func headerField(val string, maxLen int) string {
	val = strings.Map(func(r rune) rune {
		if r < 33 || r > 126 {
			return -1
		}
		return r
	}, val)
	if len(val) > maxLen {
		val = val[:maxLen]
	}
	if val == "" {
		return "-"
	}
	return val
}

func writeStructuredData(b *strings.Builder, sd []SDElement) {
	if len(sd) == 0 {
		b.WriteByte('-')
		return
	}
	for _, elem := range sd {
		b.WriteByte('[')
		b.WriteString(elem.ID)
		for _, p := range elem.Params {
			fmt.Fprintf(b, ` %s="`, p.Name)
			// RFC 5424 section 6.3.3: escape '"', '\' and ']'.
			for i := 0; i < len(p.Value); i++ {
				switch p.Value[i] {
				case '"', '\\', ']':
					b.WriteByte('\\')
				}
				b.WriteByte(p.Value[i])
			}
			b.WriteByte('"')
		}
		b.WriteByte(']')
	}
}
