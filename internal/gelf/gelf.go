package gelf

import (
	"encoding/json"
	"net"
	"os"

	"github.com/sirupsen/logrus"
)

// Hook sends every log entry as a GELF 1.1 message over UDP.
type Hook struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP hook connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Hook, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Hook{conn: conn, hostname: hostname, service: service}, nil
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire never fails the log call; delivery is fire-and-forget.
func (h *Hook) Fire(e *logrus.Entry) error {
	payload, err := json.Marshal(h.message(e))
	if err != nil {
		return nil
	}
	h.conn.Write(payload)
	return nil
}

func (h *Hook) Close() error {
	return h.conn.Close()
}

func (h *Hook) message(e *logrus.Entry) map[string]any {
	msg := map[string]any{
		"version":       "1.1",
		"host":          h.hostname,
		"short_message": e.Message,
		"timestamp":     float64(e.Time.UnixNano()) / 1e9,
		"level":         syslogLevel(e.Level),
		"_service":      h.service,
	}
	for k, v := range e.Data {
		if k == "id" {
			k = "field_id"
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		msg["_"+k] = v
	}
	return msg
}

func syslogLevel(l logrus.Level) int {
	switch l {
	case logrus.PanicLevel:
		return 0
	case logrus.FatalLevel:
		return 2
	case logrus.ErrorLevel:
		return 3
	case logrus.WarnLevel:
		return 4
	case logrus.InfoLevel:
		return 6
	}
	return 7
}
