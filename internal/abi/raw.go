package abi

import (
	"time"

	"github.com/Guliveer/hostsnap/internal/models"
)

// Sentinels used by raw structs.
const (
	PercentageAbsent uint8 = 255
	SecondsAbsent    int64 = -1
)

// RawBattery is the boundary form of models.Battery.
type RawBattery struct {
	Status           uint8
	Percentage       uint8 // PercentageAbsent when unknown
	SecondsRemaining int64 // negative when unknown
}

// EncodeBattery writes absent fields as sentinels.
func EncodeBattery(b models.Battery) RawBattery {
	raw := RawBattery{
		Status:           uint8(b.Status),
		Percentage:       PercentageAbsent,
		SecondsRemaining: SecondsAbsent,
	}
	if p, ok := b.Percentage.Get(); ok {
		raw.Percentage = min(p, 100)
	}
	if d, ok := b.TimeRemaining.Get(); ok && d >= 0 {
		raw.SecondsRemaining = int64(d / time.Second)
	}
	return raw
}

// RawNetworkInterface is the boundary form of models.NetworkInterface.
// A nil pointer is an absent field.
type RawNetworkInterface struct {
	Name        string
	IPv4Address *string
	IPv6Address *string
	MACAddress  *string
	IsUp        bool
	IsLoopback  bool
}

// EncodeInterface converts absent addresses to nil pointers.
func EncodeInterface(n models.NetworkInterface) RawNetworkInterface {
	return RawNetworkInterface{
		Name:        n.Name,
		IPv4Address: ptr(n.IPv4Address),
		IPv6Address: ptr(n.IPv6Address),
		MACAddress:  ptr(n.MACAddress),
		IsUp:        n.IsUp,
		IsLoopback:  n.IsLoopback,
	}
}

func ptr(o models.Option[string]) *string {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}
