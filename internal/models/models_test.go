package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOption(t *testing.T) {
	some := Some(42)
	if v, ok := some.Get(); !ok || v != 42 {
		t.Errorf("Some(42).Get() = %d, %v", v, ok)
	}
	none := None[int]()
	if none.IsSome() {
		t.Error("None should be absent")
	}
	if got := none.OrElse(7); got != 7 {
		t.Errorf("OrElse = %d, want 7", got)
	}
	var zero Option[string]
	if zero.IsSome() {
		t.Error("zero Option should be absent")
	}
}

func TestOptionJSON(t *testing.T) {
	b := Battery{
		Status:        BatteryDischarging,
		Percentage:    Some[uint8](80),
		TimeRemaining: None[time.Duration](),
	}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"status":"discharging","percentage":80,"time_remaining":null}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var iface NetworkInterface
	if err := json.Unmarshal([]byte(`{"name":"eth0","ipv4_address":"10.0.0.2","ipv6_address":null}`), &iface); err != nil {
		t.Fatal(err)
	}
	if v, ok := iface.IPv4Address.Get(); !ok || v != "10.0.0.2" {
		t.Errorf("ipv4 = %q, %v", v, ok)
	}
	if iface.IPv6Address.IsSome() || iface.MACAddress.IsSome() {
		t.Error("null and missing addresses should decode as absent")
	}
}

func TestEnumNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{BatteryCharging.String(), "charging"},
		{BatteryNotPresent.String(), "not_present"},
		{BatteryStatus(99).String(), "unknown"},
		{DriveRemovable.String(), "removable"},
		{DriveType(42).String(), "unknown"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
