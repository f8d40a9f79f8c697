// pkg/invest/endpoint_test.go
package invest

import (
	"regexp"
	"testing"
)

func TestEndpointSelector_Shape(t *testing.T) {
	re := regexp.MustCompile(`^wss://stream2\d{2}\.forexpros\.com/echo/[0-9a-f]{3}/[0-9a-f]{8}/websocket$`)
	sel := NewEndpointSelector("")

	for i := 0; i < 10000; i++ {
		url := sel.Next()
		if !re.MatchString(url) {
			t.Fatalf("generated URL %q does not match expected shape", url)
		}
	}
}

func TestEndpointSelector_CustomHost(t *testing.T) {
	re := regexp.MustCompile(`^wss://stream2\d{2}\.example\.org/echo/[0-9a-f]{3}/[0-9a-f]{8}/websocket$`)
	sel := NewEndpointSelector("example.org")
	if url := sel.Next(); !re.MatchString(url) {
		t.Errorf("generated URL %q does not match expected shape", url)
	}
}

func TestEndpointSelector_HostDiscriminatorRange(t *testing.T) {
	re := regexp.MustCompile(`^wss://stream2(\d{2})\.`)
	sel := NewEndpointSelector("")
	for i := 0; i < 1000; i++ {
		m := re.FindStringSubmatch(sel.Next())
		if m == nil {
			t.Fatal("no host discriminator found")
		}
		// две цифры гарантируют диапазон 00-99
		if len(m[1]) != 2 {
			t.Fatalf("discriminator %q is not two digits", m[1])
		}
	}
}
