// pkg/invest/decode_test.go
package invest

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// wireEnvelope собирает сырой кадр в точном проводном виде: внешняя обёртка
// и внутренний JSON, экранированный на один уровень глубже (каждая кавычка
// внутреннего объекта превращается в литеральную тройку слэшей + кавычку).
func wireEnvelope(pid, innerJSON string) string {
	escaped := strings.ReplaceAll(innerJSON, `"`, `\\\"`)
	return `a["{\"message\":\"pid-` + pid + `::` + escaped + `\"}"]`
}

func decodeKind(t *testing.T, err error) DecodeErrorKind {
	t.Helper()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	return de.Kind
}

func TestDecode_RoundTrip(t *testing.T) {
	dir := "redBg"
	want := Snapshot{
		PID:             "945629",
		LastDir:         &dir,
		LastNumeric:     18951.2,
		Last:            "18,951.2",
		Bid:             "18,954.0",
		Ask:             "18,956.0",
		High:            "19,956.0",
		Low:             "18,279.0",
		LastClose:       "19,188.0",
		PC:              "-236.8",
		PCP:             "-1.23%",
		PCCol:           "redFont",
		Turnover:        "21.50K",
		TurnoverNumeric: 21503,
		Time:            "19:21:50",
		Timestamp:       1606850510,
	}

	inner, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := wireEnvelope(want.PID, string(inner))

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", *got, want)
	}
}

func TestDecode_TurnoverVariants(t *testing.T) {
	base := `{"pid":"945629","last_dir":"redBg","last_numeric":18951.2,"last":"18,951.2",` +
		`"bid":"18,954.0","ask":"18,956.0","high":"19,956.0","low":"18,279.0",` +
		`"last_close":"19,188.0","pc":"-236.8","pcp":"-1.23%","pc_col":"redFont",` +
		`"turnover":"21.50K"%s,"time":"19:21:50","timestamp":1606850510}`

	cases := []struct {
		name     string
		turnover string // вставка после "turnover"
		want     TurnoverNumeric
		wantKind DecodeErrorKind
		wantErr  bool
	}{
		{name: "integer", turnover: `,"turnover_numeric":21503`, want: 21503},
		{name: "digitString", turnover: `,"turnover_numeric":"21503"`, want: 21503},
		{name: "emptyString", turnover: `,"turnover_numeric":""`, want: 0},
		{name: "absent", turnover: ``, want: 0},
		{name: "garbageString", turnover: `,"turnover_numeric":"olia"`, wantErr: true, wantKind: KindInvalidNumber},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			inner := strings.Replace(base, "%s", c.turnover, 1)
			snap, err := Decode(wireEnvelope("945629", inner))
			if c.wantErr {
				if err == nil {
					t.Fatal("expected decode error, got nil")
				}
				if kind := decodeKind(t, err); kind != c.wantKind {
					t.Errorf("kind = %v; want %v", kind, c.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if snap.TurnoverNumeric != c.want {
				t.Errorf("TurnoverNumeric = %d; want %d", snap.TurnoverNumeric, c.want)
			}
		})
	}
}

func TestDecode_AbsentKeysDefaultToEmpty(t *testing.T) {
	// нет last_close и turnover — дефолт ""
	inner := `{"pid":"8984","last_dir":"greenBg","last_numeric":24871.5,"last":"24,871.5",` +
		`"bid":"24,866.0","ask":"24,877.0","high":"24,979.0","low":"24,533.0",` +
		`"pc":"+364.0","pcp":"+1.49%","pc_col":"greenFont","time":"3:20:58","timestamp":1597116058}`

	snap, err := Decode(wireEnvelope("8984", inner))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.LastClose != "" {
		t.Errorf("LastClose = %q; want empty", snap.LastClose)
	}
	if snap.Turnover != "" {
		t.Errorf("Turnover = %q; want empty", snap.Turnover)
	}
	if snap.TurnoverNumeric != 0 {
		t.Errorf("TurnoverNumeric = %d; want 0", snap.TurnoverNumeric)
	}
}

func TestDecode_OptionalDirectionAbsent(t *testing.T) {
	inner := `{"pid":"8984","last_numeric":24871.5,"last":"24,871.5","bid":"24,866.0",` +
		`"ask":"24,877.0","high":"24,979.0","low":"24,533.0","pc":"+364.0","pcp":"+1.49%",` +
		`"pc_col":"greenFont","time":"3:20:58","timestamp":1597116058}`

	snap, err := Decode(wireEnvelope("8984", inner))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.LastDir != nil {
		t.Errorf("LastDir = %v; want nil", *snap.LastDir)
	}
}

func TestDecode_MalformedEnvelope(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"noDelimiter", `a["{\"message\":\"pid-8984:\"}"]`},
		{"noClosingBrace", `a["{\"message\":\"pid-8984::{\\\"pid\\\":\\\"8984\\\"`},
		{"empty", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(c.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if kind := decodeKind(t, err); kind != KindMalformedEnvelope {
				t.Errorf("kind = %v; want %v", kind, KindMalformedEnvelope)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode(wireEnvelope("8984", `{"pid":broken}`))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if kind := decodeKind(t, err); kind != KindInvalidJSON {
		t.Errorf("kind = %v; want %v", kind, KindInvalidJSON)
	}
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		inner string
	}{
		{"noPid", `{"last":"1.0","timestamp":1606850510}`},
		{"noTimestamp", `{"pid":"8984","last":"1.0"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(wireEnvelope("8984", c.inner))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if kind := decodeKind(t, err); kind != KindInvalidJSON {
				t.Errorf("kind = %v; want %v", kind, KindInvalidJSON)
			}
		})
	}
}
