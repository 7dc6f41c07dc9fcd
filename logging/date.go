package logging

import (
	"strconv"
	"strings"
	"time"
)

// dateLayout renders a timestamp from a compiled date pattern. Patterns that
// contain "2006" are Go layouts; everything else is read as a PHP date()
// pattern, where a backslash escapes the next character and letters with no
// meaning are copied through.
type dateLayout []func(b *strings.Builder, t time.Time)

// phpDate maps PHP date() letters to a Go layout fragment.
var phpDate = map[rune]string{
	'd': "02",
	'D': "Mon",
	'j': "2",
	'l': "Monday",
	'm': "01",
	'M': "Jan",
	'n': "1",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'a': "pm",
	'A': "PM",
	'g': "3",
	'h': "03",
	'H': "15",
	'i': "04",
	's': "05",
	'e': "MST",
	'T': "MST",
	'P': "-07:00",
	'p': "Z07:00",
	'O': "-0700",
}

func compileDateLayout(pattern string) dateLayout {
	if strings.Contains(pattern, "2006") {
		return dateLayout{func(b *strings.Builder, t time.Time) {
			b.WriteString(t.Format(pattern))
		}}
	}

	var (
		out     dateLayout
		literal strings.Builder
		escaped bool
	)
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		text := literal.String()
		literal.Reset()
		out = append(out, func(b *strings.Builder, _ time.Time) { b.WriteString(text) })
	}

	for _, r := range pattern {
		if escaped {
			literal.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}

		part := phpDatePart(r)
		if part == nil {
			literal.WriteRune(r)
			continue
		}
		flush()
		out = append(out, part)
	}
	flush()
	return out
}

func phpDatePart(r rune) func(b *strings.Builder, t time.Time) {
	if layout, ok := phpDate[r]; ok {
		return func(b *strings.Builder, t time.Time) { b.WriteString(t.Format(layout)) }
	}

	switch r {
	case 'G':
		return func(b *strings.Builder, t time.Time) { b.WriteString(strconv.Itoa(t.Hour())) }
	case 'N':
		return func(b *strings.Builder, t time.Time) {
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			b.WriteString(strconv.Itoa(wd))
		}
	case 'u':
		return func(b *strings.Builder, t time.Time) { b.WriteString(t.Format(".000000")[1:]) }
	case 'v':
		return func(b *strings.Builder, t time.Time) { b.WriteString(t.Format(".000")[1:]) }
	case 'U':
		return func(b *strings.Builder, t time.Time) { b.WriteString(strconv.FormatInt(t.Unix(), 10)) }
	case 'c':
		return func(b *strings.Builder, t time.Time) { b.WriteString(t.Format("2006-01-02T15:04:05-07:00")) }
	}
	return nil
}

func (d dateLayout) format(t time.Time) string {
	var b strings.Builder
	for _, part := range d {
		part(&b, t)
	}
	return b.String()
}
