package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wellFormed = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<!-- File Created By SMS Backup & Restore -->
<smses count="2">
  <sms protocol="0" address="M-Money" date="1715351458724" type="1" body="You have received 2000 RWF from Jane Smith (*********013) on your mobile money account at 2024-05-10 16:30:51." readable_date="10 May 2024 4:30:58 PM" />
  <sms protocol="0" address="M-Money" date="1715351506754" type="1" body="TxId: 73214484437. Your payment of 1,000 RWF to Jane Smith 12845 has been completed." />
</smses>`

func TestParse_WellFormed(t *testing.T) {
	doc := Parse([]byte(wellFormed))

	if doc.ElementsSeen != 2 {
		t.Fatalf("expected 2 elements seen, got %d", doc.ElementsSeen)
	}
	if len(doc.Messages) != 2 || len(doc.Skipped) != 0 {
		t.Fatalf("expected 2 messages and no skips, got %d/%d", len(doc.Messages), len(doc.Skipped))
	}

	first := doc.Messages[0]
	if first.Element != 0 {
		t.Errorf("expected element index 0, got %d", first.Element)
	}
	if !strings.HasPrefix(first.Body, "You have received 2000 RWF") {
		t.Errorf("unexpected body %q", first.Body)
	}
	if first.TimestampMillis == nil || *first.TimestampMillis != 1715351458724 {
		t.Errorf("unexpected timestamp %v", first.TimestampMillis)
	}
}

func TestParse_RecoversFromBrokenElement(t *testing.T) {
	input := `<smses>
<sms date="1695859200000" body="You have received 10 RWF" />
<sms <body="broken"/>
</smses>`

	doc := Parse([]byte(input))

	if doc.ElementsSeen != 2 {
		t.Fatalf("expected 2 elements seen, got %d", doc.ElementsSeen)
	}
	if len(doc.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(doc.Messages))
	}
	if len(doc.Skipped) != 1 || doc.Skipped[0].Element != 1 {
		t.Fatalf("expected element 1 to be skipped, got %+v", doc.Skipped)
	}
	if doc.Skipped[0].Reason == "" {
		t.Fatalf("expected a skip reason")
	}
}

func TestParse_TruncatedTail(t *testing.T) {
	input := `<smses><sms body="first" date="1" /><sms body="cut off in the mid`

	doc := Parse([]byte(input))

	if len(doc.Messages) != 1 || doc.Messages[0].Body != "first" {
		t.Fatalf("expected only the first message, got %+v", doc.Messages)
	}
	if len(doc.Skipped) != 1 {
		t.Fatalf("expected one skipped element, got %+v", doc.Skipped)
	}
}

func TestParse_AttributeHandling(t *testing.T) {
	input := `<smses>
<sms date="not-a-number" body="Payment of 5 RWF" />
<sms body="Fee &amp; charges of 10 RWF" />
<sms date="42" />
</smses>`

	doc := Parse([]byte(input))
	if len(doc.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d (%+v)", len(doc.Messages), doc.Skipped)
	}
	if doc.Messages[0].TimestampMillis != nil {
		t.Errorf("expected non-integer date to be absent")
	}
	if doc.Messages[1].Body != "Fee & charges of 10 RWF" {
		t.Errorf("expected entities to be decoded, got %q", doc.Messages[1].Body)
	}
	if doc.Messages[2].Body != "" || doc.Messages[2].TimestampMillis == nil {
		t.Errorf("expected empty body with timestamp, got %+v", doc.Messages[2])
	}
}

func TestParse_IgnoresCommentedElements(t *testing.T) {
	input := `<smses><!-- <sms body="hidden" /> --><sms body="visible" /></smses>`

	doc := Parse([]byte(input))
	if doc.ElementsSeen != 1 || len(doc.Messages) != 1 || doc.Messages[0].Body != "visible" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	input := []byte("<smses><sms body=\"caf\xff 10 RWF\" /></smses>")

	doc := Parse(input)
	if len(doc.Messages) != 1 {
		t.Fatalf("expected 1 message, got %+v", doc)
	}
	if doc.Messages[0].Body != "caf� 10 RWF" {
		t.Fatalf("unexpected body %q", doc.Messages[0].Body)
	}
}

func TestParse_Empty(t *testing.T) {
	doc := Parse([]byte(`<smses count="0"></smses>`))
	if doc.ElementsSeen != 0 || len(doc.Messages) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
	if doc.Messages == nil {
		t.Fatalf("expected empty, non-nil message slice")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sms.xml")
	if err := os.WriteFile(path, []byte(wellFormed), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(doc.Messages))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xml"))
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestRead(t *testing.T) {
	doc, err := Read(strings.NewReader(wellFormed))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(doc.Messages))
	}
}
