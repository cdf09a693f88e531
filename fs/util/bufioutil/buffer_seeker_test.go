package bufioutil

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBufferedSeekerLesen(t *testing.T) {
	bs := NewBufferedSeeker(strings.NewReader("hello world"), 4)

	buf := make([]byte, 5)
	if _, err := io.ReadFull(bs, buf); err != nil {
		t.Fatalf("Read fehlgeschlagen: %v", err)
	}
	if !bytes.Equal(buf, []byte("hello")) {
		t.Errorf("gelesen %q, erwartet %q", buf, "hello")
	}
}

func TestBufferedSeekerPositionNachSeekCurrent(t *testing.T) {
	bs := NewBufferedSeeker(strings.NewReader("0123456789"), 32)

	buf := make([]byte, 3)
	if _, err := io.ReadFull(bs, buf); err != nil {
		t.Fatalf("Read fehlgeschlagen: %v", err)
	}

	// Der Puffer haelt bereits mehr als drei Bytes, SeekCurrent muss
	// trotzdem die logische Position liefern
	pos, err := bs.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("Seek fehlgeschlagen: %v", err)
	}
	if pos != 3 {
		t.Errorf("Position = %d, erwartet 3", pos)
	}

	if _, err := io.ReadFull(bs, buf); err != nil {
		t.Fatalf("Read fehlgeschlagen: %v", err)
	}
	if string(buf) != "345" {
		t.Errorf("gelesen %q, erwartet %q", buf, "345")
	}
}

func TestBufferedSeekerSeekStart(t *testing.T) {
	bs := NewBufferedSeeker(strings.NewReader("0123456789"), 32)

	buf := make([]byte, 4)
	if _, err := io.ReadFull(bs, buf); err != nil {
		t.Fatalf("Read fehlgeschlagen: %v", err)
	}

	if _, err := bs.Seek(8, io.SeekStart); err != nil {
		t.Fatalf("Seek fehlgeschlagen: %v", err)
	}
	buf = buf[:2]
	if _, err := io.ReadFull(bs, buf); err != nil {
		t.Fatalf("Read fehlgeschlagen: %v", err)
	}
	if string(buf) != "89" {
		t.Errorf("gelesen %q, erwartet %q", buf, "89")
	}
}
