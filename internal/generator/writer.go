package generator

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const readableDateLayout = "2 Jan 2006 3:04:05 PM"

// WriteXML renders messages as an SMS backup document.
func WriteXML(w io.Writer, messages []Message) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>\n")
	fmt.Fprintf(bw, "<!--File Created By SMS Backup & Restore-->\n")
	fmt.Fprintf(bw, "<smses count=\"%d\">\n", len(messages))
	for _, msg := range messages {
		if err := writeElement(bw, msg); err != nil {
			return err
		}
	}
	fmt.Fprintf(bw, "</smses>\n")
	return bw.Flush()
}

// WriteFile writes the document to path, creating parent directories.
func WriteFile(path string, messages []Message) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteXML(file, messages); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	return nil
}

func writeElement(w io.Writer, msg Message) error {
	var body bytes.Buffer
	if err := xml.EscapeText(&body, []byte(msg.Body)); err != nil {
		return fmt.Errorf("escape body: %w", err)
	}

	date, readable := "null", ""
	if msg.DateMillis != nil {
		date = strconv.FormatInt(*msg.DateMillis, 10)
		readable = time.UnixMilli(*msg.DateMillis).UTC().Format(readableDateLayout)
	}

	if msg.Broken {
		// an unterminated start tag, as produced by a truncated export
		_, err := fmt.Fprintf(w, "  <sms <body=\"%s\" date=\"%s\"\n", body.String(), date)
		return err
	}

	var err error
	if msg.DateMillis != nil {
		_, err = fmt.Fprintf(w, "  <sms protocol=\"0\" address=\"M-Money\" date=\"%s\" type=\"1\" subject=\"null\" body=\"%s\" toa=\"null\" sc_toa=\"null\" service_center=\"+250788110381\" read=\"1\" status=\"-1\" locked=\"0\" date_sent=\"%s\" sub_id=\"6\" readable_date=\"%s\" contact_name=\"(Unknown)\" />\n",
			date, body.String(), date, readable)
	} else {
		_, err = fmt.Fprintf(w, "  <sms protocol=\"0\" address=\"M-Money\" type=\"1\" subject=\"null\" body=\"%s\" toa=\"null\" sc_toa=\"null\" read=\"1\" status=\"-1\" locked=\"0\" sub_id=\"6\" contact_name=\"(Unknown)\" />\n",
			body.String())
	}
	return err
}
