package logdata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultPattern matches Spring Boot style lines:
//
//	2024-05-02 10:11:12.123000 INFO 4242 --- [task] --- [main] com.acme.Login (Login.java:42) - [alice] : message
const DefaultPattern = `(?P<timestamp>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}000) (?P<level>[A-Z]+) (?P<pid>\d+) \s*---\s* (?:\[(?P<task>[^\]]+)\])? \s*---\s* \[(?P<thread>[^\]]+)\] (?P<logger_name>[^ ]+) \((?P<file>[^:]+):(?P<line_number>\d+)\) \s*-\s* (?:\[(?P<user>[^\]]+)\])? \s*:\s* (?P<message>.*)`

// ErrNoMessageGroup is returned when an ingestion pattern lacks a
// "message" capture group.
var ErrNoMessageGroup = errors.New("logdata: pattern has no (?P<message>...) group")

// Record is one parsed raw log line keyed by the pattern's named groups,
// plus "service".
type Record map[string]string

// Source is one raw log stream belonging to a service.
type Source struct {
	Service string
	Reader  io.Reader
}

// Emitter summarizes every record sharing a logger name, service, file and
// line number. Emitters become the statements of an ingested dataset.
type Emitter struct {
	ID         int    `json:"emitter_id"`
	LoggerName string `json:"logger_name"`
	Service    string `json:"service"`
	File       string `json:"file"`
	LineNumber string `json:"line_number"`
	Count      int    `json:"count"`
}

// ParseRaw splits r into lines and matches each against pattern. Lines
// that do not match are continuation lines: they are trimmed and appended
// to the previous record's message. Continuation lines before the first
// match are dropped.
func ParseRaw(r io.Reader, pattern *regexp.Regexp, service string) ([]Record, error) {
	if pattern.SubexpIndex("message") < 0 {
		return nil, ErrNoMessageGroup
	}
	names := pattern.SubexpNames()

	var records []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		m := pattern.FindStringSubmatch(line)
		if m == nil || !strings.HasPrefix(line, m[0]) {
			if n := len(records); n > 0 {
				records[n-1]["message"] += strings.TrimSpace(line)
			}
			continue
		}
		rec := Record{"service": service}
		for i, name := range names {
			if name != "" {
				rec[name] = m[i]
			}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s logs: %w", service, err)
	}
	return records, nil
}

// ParseAll parses every source concurrently and concatenates the records in
// source order.
func ParseAll(ctx context.Context, sources []Source, pattern *regexp.Regexp) ([]Record, error) {
	results := make([][]Record, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := ParseRaw(src.Reader, pattern, src.Service)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	return all, nil
}

// FilterRecords keeps records whose field equals value. An empty field
// keeps everything.
func FilterRecords(records []Record, field, value string) []Record {
	if field == "" {
		return records
	}
	var out []Record
	for _, r := range records {
		if r[field] == value {
			out = append(out, r)
		}
	}
	return out
}

type emitterKey struct {
	logger, service, file, line string
}

// AssignEmitters groups records by (logger_name, service, file,
// line_number), numbers the groups from 1 in order of first appearance and
// builds a dataset with one statement per emitter and one entry per record.
func AssignEmitters(records []Record) (*Dataset, []Emitter) {
	ids := make(map[emitterKey]int)
	var emitters []Emitter
	ds := &Dataset{}

	for _, r := range records {
		key := emitterKey{r["logger_name"], r["service"], r["file"], r["line_number"]}
		id, ok := ids[key]
		if !ok {
			id = len(emitters) + 1
			ids[key] = id
			emitters = append(emitters, Emitter{
				ID:         id,
				LoggerName: key.logger,
				Service:    key.service,
				File:       key.file,
				LineNumber: key.line,
			})
			line, _ := strconv.Atoi(key.line)
			ds.Statements = append(ds.Statements, Statement{
				ID:         StatementID(strconv.Itoa(id)),
				Level:      strings.ToUpper(r["level"]),
				File:       key.file,
				Line:       line,
				Class:      key.logger,
				Method:     r["method"],
				Service:    key.service,
				Subprocess: r["subprocess"],
				User:       r["user"],
			})
		}
		emitters[id-1].Count++

		sid := StatementID(strconv.Itoa(id))
		ds.Logs = append(ds.Logs, Entry{
			StatementID: sid,
			Timestamp:   r["timestamp"],
			PID:         r["pid"],
			Thread:      r["thread"],
			Message:     r["message"],
			EmitterID:   string(sid),
		})
	}
	return ds, emitters
}
