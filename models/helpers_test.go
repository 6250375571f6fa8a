package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidMAC(t *testing.T) {
	assert.True(t, ValidMAC("aa:bb:cc:dd:ee:ff"))
	assert.True(t, ValidMAC("AA-BB-CC-DD-EE-FF"))
	assert.True(t, ValidMAC("A0:b1:C2:d3:E4:f5"))

	assert.False(t, ValidMAC(""))
	assert.False(t, ValidMAC("aa:bb:cc:dd:ee"))
	assert.False(t, ValidMAC("aa:bb:cc:dd:ee:ff:00"))
	assert.False(t, ValidMAC("aa:bb:cc:dd:ee:fg"))
	assert.False(t, ValidMAC("aabbccddeeff"))
	assert.False(t, ValidMAC(" aa:bb:cc:dd:ee:ff"))
}

func TestNewMAC(t *testing.T) {
	assert.Equal(t, MAC("aa:bb:cc:dd:ee:ff"), NewMAC("AA-BB-CC-DD-EE-FF"))
	assert.Equal(t, MAC("aa:bb:cc:dd:ee:ff"), NewMAC("aa:bb:cc:dd:ee:ff"))
	assert.Equal(t, MAC("a0:b1:c2:d3:e4:f5"), NewMAC("A0:B1:C2-D3-E4-F5"))
}

func TestParseClockDuration(t *testing.T) {
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, ParseClockDuration("1:02:03"))
	assert.Equal(t, 26*time.Hour, ParseClockDuration("26:00:00"))
	assert.Equal(t, time.Duration(0), ParseClockDuration(""))
	assert.Equal(t, time.Duration(0), ParseClockDuration("1:02"))
	assert.Equal(t, time.Duration(0), ParseClockDuration("x:02:03"))
	assert.Equal(t, 5*time.Second, ParseClockDuration(" 0:00:05 "))
}

func TestConnectionKindFromCode(t *testing.T) {
	assert.Equal(t, KindWired, ConnectionKindFromCode(0))
	assert.Equal(t, KindWifi24_5, ConnectionKindFromCode(1))
	assert.Equal(t, KindWifi6, ConnectionKindFromCode(2))
	assert.Equal(t, KindGuestWifi, ConnectionKindFromCode(3))
	assert.Equal(t, KindUnknown, ConnectionKindFromCode(4))
	assert.Equal(t, KindUnknown, ConnectionKindFromCode(-1))
}

func TestConnectionKindIsWireless(t *testing.T) {
	assert.False(t, KindWired.IsWireless())
	assert.False(t, KindUnknown.IsWireless())
	assert.True(t, KindWifi24_5.IsWireless())
	assert.True(t, KindWifi6.IsWireless())
	assert.True(t, KindGuestWifi.IsWireless())
}
