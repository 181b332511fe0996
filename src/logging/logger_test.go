package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLogLevel("info")

	msg := "refresh applied city=Austin type= top_skills=10 (100.0% of fetched) took=12ms"
	Infof(msg)

	out := buf.String()
	if !strings.Contains(out, "(100.0% of fetched)") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!o(MISSING)") || strings.Contains(out, "%!f(MISSING)") {
		t.Fatalf("log output still shows fmt artifact: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLogLevel("info")

	if !SetLogLevel("WARN") {
		t.Fatalf("WARN should be a valid level")
	}
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Fatalf("warn line missing: %s", out)
	}
	if SetLogLevel("verbose") {
		t.Fatalf("unknown level accepted")
	}
	if GetLogLevel() != LevelWarn {
		t.Fatalf("unknown level changed the current level")
	}
}

func TestComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLogLevel("info")
	SetLogLevel("debug")

	log := For("refresh")
	log.Infof("#%d applied city=%q", 3, "Austin")
	log.Warnf("no args 50%")
	log.Debugf("draw took 3ms")
	SetLogLevel("error")
	log.Warnf("hidden")

	out := buf.String()
	if !strings.Contains(out, `[INFO] [refresh] #3 applied city="Austin"`) {
		t.Fatalf("component prefix missing: %s", out)
	}
	if !strings.Contains(out, "[WARN] [refresh] no args 50%") {
		t.Fatalf("literal message mangled: %s", out)
	}
	if !strings.Contains(out, "[DEBUG] [refresh] draw took 3ms") {
		t.Fatalf("debug line missing: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("component logger ignored the level: %s", out)
	}
}
