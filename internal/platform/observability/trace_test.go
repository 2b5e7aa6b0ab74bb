package observability

import (
	"net/http"
	"testing"
)

func TestParseCloudTrace(t *testing.T) {
	sc, ok := parseCloudTrace("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if got := sc.TraceID().String(); got != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", got)
	}
	if got := sc.SpanID().String(); got != "0000000000000001" {
		t.Fatalf("unexpected span id %s", got)
	}
	if !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("expected sampled remote span context")
	}
}

func TestParseCloudTraceRejectsGarbage(t *testing.T) {
	for _, header := range []string{"", "abc", "105445aa7843bc8bf206b12000100000/", "105445aa7843bc8bf206b12000100000/xyz", "short/1"} {
		if _, ok := parseCloudTrace(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}
}

func TestRemoteSpanContextPrefersTraceparent(t *testing.T) {
	h := http.Header{}
	h.Set(traceparentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")

	sc, ok := remoteSpanContext(h)
	if !ok {
		t.Fatalf("expected span context")
	}
	if got := sc.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id %s", got)
	}
}
