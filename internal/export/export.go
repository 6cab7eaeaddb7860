// Package export writes reminders as a YAML document for operators.
package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// Document is the exported file.
type Document struct {
	ExportedAt string  `yaml:"exported_at"`
	Timezone   string  `yaml:"timezone"`
	Reminders  []Entry `yaml:"reminders"`
}

// Entry is one reminder in human-readable form.
type Entry struct {
	ID      int64    `yaml:"id"`
	Server  string   `yaml:"server"`
	Channel string   `yaml:"channel"`
	Author  string   `yaml:"author"`
	Text    string   `yaml:"text"`
	Kind    string   `yaml:"kind"`
	At      string   `yaml:"at,omitempty"`
	Time    string   `yaml:"time,omitempty"`
	Days    []string `yaml:"days,omitempty"`
	Created string   `yaml:"created"`
}

// Build converts reminders into a Document with times shown in loc.
func Build(rems []domain.Reminder, loc *time.Location, now time.Time) Document {
	doc := Document{
		ExportedAt: now.In(loc).Format(time.RFC3339),
		Timezone:   loc.String(),
		Reminders:  make([]Entry, 0, len(rems)),
	}
	for _, r := range rems {
		e := Entry{
			ID:      r.ID,
			Server:  r.ServerID,
			Channel: r.ChannelID,
			Author:  r.AuthorID,
			Text:    r.Text,
			Kind:    r.Schedule.Kind.String(),
			Created: r.CreatedAt.In(loc).Format(time.RFC3339),
		}
		switch r.Schedule.Kind {
		case domain.KindOnce:
			e.At = domain.FormatInstant(r.Schedule.At, loc)
		case domain.KindWeekly:
			e.Time = domain.FormatClock(r.Schedule.Hour, r.Schedule.Minute)
			for _, d := range r.Schedule.Days {
				e.Days = append(e.Days, d.String())
			}
		}
		doc.Reminders = append(doc.Reminders, e)
	}
	return doc
}

// Write encodes doc as YAML.
func Write(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}
