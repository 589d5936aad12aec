package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseYAML parses the specific two-level mapping used by config.yaml
func parseYAML(r io.Reader, cfg *Config) error {
	type section int
	const (
		none section = iota
		db
		rm
		sv
		jw
		lm
	)

	scanner := bufio.NewScanner(r)
	var cur section

	lineNo := 0
	seenTop := map[section]bool{}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}

		line := strings.TrimRight(raw, " \t\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section? (no leading spaces)
		if line[0] != ' ' && line[0] != '\t' {
			var next section
			switch strings.TrimSpace(line) {
			case "database:":
				next = db
			case "rabbitmq:":
				next = rm
			case "services:":
				next = sv
			case "jwt:":
				next = jw
			case "limits:":
				next = lm
			default:
				return fmt.Errorf("line %d: unknown section %q", lineNo, strings.TrimSpace(line))
			}
			if seenTop[next] {
				return fmt.Errorf("line %d: duplicate section %q", lineNo, strings.TrimSuffix(strings.TrimSpace(line), ":"))
			}
			seenTop[next] = true
			cur = next
			continue
		}

		if cur == none {
			return fmt.Errorf("line %d: key outside of any section", lineNo)
		}

		key, val, ok := splitKV(line)
		if !ok {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		val = trimQuotes(val)

		switch cur {
		case db:
			switch key {
			case "host":
				cfg.Database.Host = val
			case "port":
				p, err := strconv.Atoi(val)
				if err != nil {
					return fmt.Errorf("line %d: database.port must be an integer: %w", lineNo, err)
				}
				cfg.Database.Port = p
			case "user":
				cfg.Database.User = val
			case "password":
				cfg.Database.Password = val
			case "database":
				cfg.Database.Name = val
			default:
				return fmt.Errorf("line %d: unknown field for [database]: %q", lineNo, key)
			}

		case rm:
			switch key {
			case "host":
				cfg.RabbitMQ.Host = val
			case "port":
				p, err := strconv.Atoi(val)
				if err != nil {
					return fmt.Errorf("line %d: rabbitmq.port must be an integer: %w", lineNo, err)
				}
				cfg.RabbitMQ.Port = p
			case "user":
				cfg.RabbitMQ.User = val
			case "password":
				cfg.RabbitMQ.Password = val
			default:
				return fmt.Errorf("line %d: unknown field for [rabbitmq]: %q", lineNo, key)
			}

		case sv:
			p, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("line %d: services.%s must be an integer: %w", lineNo, key, err)
			}
			switch key {
			case "tracking_service_port":
				cfg.Services.TrackingServicePort = p
			case "admin_service_port":
				cfg.Services.AdminServicePort = p
			default:
				return fmt.Errorf("line %d: unknown field for [services]: %q", lineNo, key)
			}

		case jw:
			switch key {
			case "secret_key":
				cfg.JWT.SecretKey = val
			default:
				return fmt.Errorf("line %d: unknown field for [jwt]: %q", lineNo, key)
			}

		case lm:
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("line %d: limits.%s must be an integer: %w", lineNo, key, err)
			}
			switch key {
			case "location_updates_per_minute":
				cfg.Limits.LocationUpdatesPerMinute = n
			case "track_requests_per_minute":
				cfg.Limits.TrackRequestsPerMinute = n
			case "http_requests_per_second":
				cfg.Limits.HTTPRequestsPerSecond = n
			default:
				return fmt.Errorf("line %d: unknown field for [limits]: %q", lineNo, key)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan config: %w", err)
	}

	return nil
}

func splitKV(line string) (key, val string, ok bool) {
	i := strings.IndexRune(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	val = strings.TrimSpace(line[i+1:])
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
