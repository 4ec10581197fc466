package abi

import (
	"errors"
	"testing"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

func TestCodes(t *testing.T) {
	if CodeOf(nil) != Success || Success.Err() != nil {
		t.Fatal("nil must round-trip through Success")
	}
	if Code(errs.ApiUnavailable) == Success {
		t.Fatal("Success collides with the first error kind")
	}
	for k := errs.Kind(0); int(k) < errs.KindCount; k++ {
		c := CodeOf(errs.New(k, "test", "x"))
		if c != Code(k) {
			t.Errorf("CodeOf(%v) = %d", k, c)
		}
		if !errors.Is(c.Err(), k) {
			t.Errorf("Code(%d).Err() = %v, want kind %v", c, c.Err(), k)
		}
		if c == Success {
			t.Errorf("kind %v encodes as Success", k)
		}
	}
	if !errors.Is(Code(200).Err(), errs.Other) {
		t.Error("unknown code should decode to Other")
	}
	if CodeOf(errors.New("plain")) != Code(errs.Other) {
		t.Error("untyped error should encode as Other")
	}
	if Success.String() != "success" || Code(errs.NotFound).String() != "not found" {
		t.Errorf("String() = %q, %q", Success.String(), Code(errs.NotFound).String())
	}
}

func TestBatterySentinels(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawBattery
		pct     models.Option[uint8]
		remains models.Option[time.Duration]
	}{
		{"all absent", RawBattery{Status: 2, Percentage: 255, SecondsRemaining: -1}, models.None[uint8](), models.None[time.Duration]()},
		{"zero present", RawBattery{Status: 2, Percentage: 0, SecondsRemaining: 0}, models.Some[uint8](0), models.Some(time.Duration(0))},
		{"upper bound", RawBattery{Status: 1, Percentage: 254, SecondsRemaining: 3600}, models.Some[uint8](254), models.Some(time.Hour)},
		{"very negative", RawBattery{Status: 3, Percentage: 100, SecondsRemaining: -9000}, models.Some[uint8](100), models.None[time.Duration]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := decodeBattery(tt.raw)
			if b.Percentage != tt.pct {
				t.Errorf("Percentage = %v, want %v", b.Percentage, tt.pct)
			}
			if b.TimeRemaining != tt.remains {
				t.Errorf("TimeRemaining = %v, want %v", b.TimeRemaining, tt.remains)
			}
		})
	}

	if decodeBattery(RawBattery{Status: 99, Percentage: 255, SecondsRemaining: -1}).Status != models.BatteryUnknown {
		t.Error("out of range status should decode as unknown")
	}
}

func TestBatteryRoundTrip(t *testing.T) {
	in := models.Battery{
		Status:        models.BatteryDischarging,
		Percentage:    models.Some[uint8](42),
		TimeRemaining: models.Some(90 * time.Minute),
	}
	raw := EncodeBattery(in)
	if raw.Percentage != 42 || raw.SecondsRemaining != 5400 || raw.Status != 2 {
		t.Errorf("EncodeBattery() = %+v", raw)
	}
	if out := decodeBattery(raw); out != in {
		t.Errorf("decodeBattery() = %+v, want %+v", out, in)
	}

	empty := EncodeBattery(models.Battery{})
	if empty.Percentage != PercentageAbsent || empty.SecondsRemaining >= 0 {
		t.Errorf("absent fields not encoded as sentinels: %+v", empty)
	}
}

func TestInterfaceRoundTrip(t *testing.T) {
	in := models.NetworkInterface{
		Name:        "eth0",
		IPv4Address: models.Some("10.0.0.2"),
		MACAddress:  models.Some("aa:bb:cc:dd:ee:ff"),
		IsUp:        true,
	}
	raw := EncodeInterface(in)
	if raw.IPv6Address != nil || raw.IPv4Address == nil || *raw.IPv4Address != "10.0.0.2" {
		t.Errorf("EncodeInterface() = %+v", raw)
	}
	if out := decodeInterface(raw); out != in {
		t.Errorf("decodeInterface() = %+v, want %+v", out, in)
	}
}

func TestLedgerReleaseOnce(t *testing.T) {
	l := NewLedger()
	h := l.Track(64)
	if l.Outstanding() != 1 || l.Bytes() != 64 {
		t.Fatalf("after Track: %d live, %d bytes", l.Outstanding(), l.Bytes())
	}
	if err := l.Release(h); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(h); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("double release error = %v", err)
	}
	if err := l.Release(0); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("zero handle release error = %v", err)
	}
	if l.Outstanding() != 0 || l.Bytes() != 0 {
		t.Errorf("leak: %d live, %d bytes", l.Outstanding(), l.Bytes())
	}
}

func TestListCycles(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 100; i++ {
		disks := make([]models.DiskInfo, i%7)
		ifaces := make([]RawNetworkInterface, i%3)

		dl := NewList(l, disks)
		il := NewList(l, ifaces)
		if dl.Count != len(disks) || il.Count != len(ifaces) {
			t.Fatalf("count mismatch at cycle %d", i)
		}
		before := l.Bytes()
		if before != int64(dl.Size+il.Size) {
			t.Fatalf("ledger holds %d bytes, lists report %d", before, dl.Size+il.Size)
		}

		if err := ReleaseList(l, dl); err != nil {
			t.Fatal(err)
		}
		if l.Bytes() != before-int64(il.Size) {
			t.Fatalf("release freed the wrong amount at cycle %d", i)
		}
		if err := ReleaseList(l, il); err != nil {
			t.Fatal(err)
		}
		if err := ReleaseList(l, dl); !errors.Is(err, errs.InvalidArgument) {
			t.Fatalf("double ReleaseList error = %v", err)
		}
	}
	if l.Outstanding() != 0 || l.Bytes() != 0 {
		t.Errorf("leak after cycles: %d live, %d bytes", l.Outstanding(), l.Bytes())
	}
	if err := ReleaseList[int](l, nil); err != nil {
		t.Errorf("ReleaseList(nil) error = %v", err)
	}
}

// decodeBattery turns sentinels back into absent options.
func decodeBattery(raw RawBattery) models.Battery {
	b := models.Battery{Status: models.BatteryStatus(raw.Status)}
	if raw.Status > uint8(models.BatteryNotPresent) {
		b.Status = models.BatteryUnknown
	}
	if raw.Percentage != PercentageAbsent {
		b.Percentage = models.Some(raw.Percentage)
	}
	if raw.SecondsRemaining >= 0 {
		b.TimeRemaining = models.Some(time.Duration(raw.SecondsRemaining) * time.Second)
	}
	return b
}

// decodeInterface converts nil pointers to absent options.
func decodeInterface(raw RawNetworkInterface) models.NetworkInterface {
	return models.NetworkInterface{
		Name:        raw.Name,
		IPv4Address: opt(raw.IPv4Address),
		IPv6Address: opt(raw.IPv6Address),
		MACAddress:  opt(raw.MACAddress),
		IsUp:        raw.IsUp,
		IsLoopback:  raw.IsLoopback,
	}
}

func opt(p *string) models.Option[string] {
	if p == nil {
		return models.None[string]()
	}
	return models.Some(*p)
}
