package ssl

import (
	"bytes"
	"fmt"
	"testing"
)

func assert(t *testing.T, test bool, msg string) {
	t.Helper()
	if !test {
		t.Fatalf("%s", msg)
	}
}

func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	assert(t, err != nil, msg)
}

func assertNotError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		msg += ": " + err.Error()
	}
	assert(t, err == nil, msg)
}

func assertEquals(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		assert(t, false, fmt.Sprintf("%+v != %+v", a, b))
	}
}

func assertByteEquals(t *testing.T, a []byte, b []byte) {
	t.Helper()
	if !bytes.Equal(a, b) {
		assert(t, false, fmt.Sprintf("%x != %x", a, b))
	}
}

func assertStatus(t *testing.T, out Outcome, want Status) {
	t.Helper()
	if out.Status != want {
		assert(t, false, fmt.Sprintf("outcome %s, want %s", out, want))
	}
}

// memSink records everything for inspection.
type memSink struct {
	sevs []Severity
	msgs []string
}

func (m *memSink) Record(sev Severity, msg string) {
	m.sevs = append(m.sevs, sev)
	m.msgs = append(m.msgs, msg)
}

// step is one scripted engine attempt.  For reads, data is copied into the
// destination buffer before att is returned.
type step struct {
	att  Attempt
	data []byte
}

func dataStep(b []byte) step {
	return step{att: Attempt{N: len(b), Code: AttemptData}, data: b}
}

func codeStep(code AttemptCode) step {
	return step{att: Attempt{Code: code}}
}

// fakeEngine plays back scripted attempts and records how it was called,
// including buffer identity, so tests can check the reuse and
// identical-arguments contracts.  Running past the script pauses.
type fakeEngine struct {
	reads  []step
	writes []step

	readBufs  [][]byte // the exact destination buffers passed in
	writeArgs [][]byte // copies of each write argument
	writeIDs  []*byte  // identity of each write argument's first byte

	shutdowns  int
	frees      int
	doubleFree bool
}

func (f *fakeEngine) ReadAttempt(p []byte) Attempt {
	f.readBufs = append(f.readBufs, p)
	if len(f.reads) == 0 {
		return Attempt{Code: AttemptWantRead}
	}
	s := f.reads[0]
	f.reads = f.reads[1:]
	copy(p, s.data)
	return s.att
}

func (f *fakeEngine) WriteAttempt(p []byte) Attempt {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writeArgs = append(f.writeArgs, cp)
	if len(p) > 0 {
		f.writeIDs = append(f.writeIDs, &p[0])
	} else {
		f.writeIDs = append(f.writeIDs, nil)
	}
	if len(f.writes) == 0 {
		return Attempt{Code: AttemptWantWrite}
	}
	s := f.writes[0]
	f.writes = f.writes[1:]
	return s.att
}

func (f *fakeEngine) Shutdown() {
	f.shutdowns++
}

func (f *fakeEngine) Free() {
	if f.frees > 0 {
		f.doubleFree = true
	}
	f.frees++
}

func repeated(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}
