package transport

import (
	"errors"
	"testing"
)

type fakeSerialPort struct {
	readData  []byte
	readErr   error
	writeErr  error
	closeErr  error
	closed    bool
	written   []byte
}

func (f *fakeSerialPort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(p, f.readData)
	return n, nil
}

func (f *fakeSerialPort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeSerialPort) Close() error {
	f.closed = true
	return f.closeErr
}

func withFakeSerial(t *testing.T, fake *fakeSerialPort) {
	t.Helper()
	prev := openSerial
	openSerial = func(string) (serialPort, error) { return fake, nil }
	t.Cleanup(func() { openSerial = prev })
}

func TestSerialDriverOpenIdempotent(t *testing.T) {
	fake := &fakeSerialPort{}
	withFakeSerial(t, fake)

	d := NewSerialDriver("/dev/ttyUSB0")
	if err := d.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.Open(); err != nil {
		t.Fatalf("second open: %v", err)
	}
}

func TestSerialDriverReadWriteBeforeOpen(t *testing.T) {
	d := NewSerialDriver("/dev/ttyUSB0")
	if _, err := d.Read(make([]byte, 4)); err == nil {
		t.Fatal("expected error reading before open")
	}
	if _, err := d.Write([]byte{1}); err == nil {
		t.Fatal("expected error writing before open")
	}
}

func TestSerialDriverZeroLengthWrite(t *testing.T) {
	fake := &fakeSerialPort{}
	withFakeSerial(t, fake)

	d := NewSerialDriver("/dev/ttyUSB0")
	if err := d.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := d.Write(nil); err == nil {
		t.Fatal("expected error on zero-length write")
	}
}

func TestSerialDriverRoundTrip(t *testing.T) {
	fake := &fakeSerialPort{readData: []byte{0xA4, 0x01, 0x4A, 0x00, 0xEF}}
	withFakeSerial(t, fake)

	d := NewSerialDriver("/dev/ttyUSB0")
	if err := d.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]byte, 16)
	n, err := d.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 5 {
		t.Fatalf("read %d bytes, want 5", n)
	}

	if _, err := d.Write([]byte{0xA4, 0x01, 0x4A, 0x00, 0xEF}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(fake.written) != 5 {
		t.Fatalf("wrote %d bytes, want 5", len(fake.written))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !fake.closed {
		t.Fatal("underlying port was not closed")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type fakeLogger struct {
	opens, closes int
	reads, writes [][]byte
}

func (f *fakeLogger) LogOpen()         { f.opens++ }
func (f *fakeLogger) LogClose()        { f.closes++ }
func (f *fakeLogger) LogRead(p []byte) { f.reads = append(f.reads, append([]byte(nil), p...)) }
func (f *fakeLogger) LogWrite(p []byte) {
	f.writes = append(f.writes, append([]byte(nil), p...))
}

func TestSerialDriverLoggerHooks(t *testing.T) {
	fake := &fakeSerialPort{readData: []byte{0xA4, 0x01, 0x4A, 0x00, 0xEF}}
	withFakeSerial(t, fake)
	log := &fakeLogger{}

	d := NewSerialDriver("/dev/ttyUSB0")
	d.SetLogger(log)

	if err := d.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if log.opens != 1 {
		t.Fatalf("opens = %d, want 1", log.opens)
	}

	buf := make([]byte, 16)
	if _, err := d.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(log.reads) != 1 || len(log.reads[0]) != 5 {
		t.Fatalf("reads = %v, want one 5-byte entry", log.reads)
	}

	if _, err := d.Write([]byte{0xA4, 0x01, 0x4A, 0x00, 0xEF}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(log.writes) != 1 || len(log.writes[0]) != 5 {
		t.Fatalf("writes = %v, want one 5-byte entry", log.writes)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if log.closes != 1 {
		t.Fatalf("closes = %d, want 1", log.closes)
	}

	// Detaching (nil) stops further hook calls without affecting I/O.
	d.SetLogger(nil)
	if err := d.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if log.opens != 1 {
		t.Fatalf("opens after detach = %d, want still 1", log.opens)
	}
}

func TestSerialDriverOpenFailure(t *testing.T) {
	prev := openSerial
	openSerial = func(string) (serialPort, error) { return nil, errors.New("no such device") }
	defer func() { openSerial = prev }()

	d := NewSerialDriver("/dev/ttyUSB0")
	if err := d.Open(); err == nil {
		t.Fatal("expected open to fail")
	}
}
