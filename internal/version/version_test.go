package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	v, c, d := Info()
	if v == "" || c == "" || d == "" {
		t.Fatalf("неполная информация о сборке: v=%q c=%q d=%q", v, c, d)
	}

	// Акцессоры и Info смотрят на одни и те же переменные.
	if v != GetVersion() || c != GetCommit() || d != GetDate() {
		t.Fatal("Info и Get* разошлись")
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, part) {
			t.Fatalf("String() = %q, нет %s", s, part)
		}
	}
}
