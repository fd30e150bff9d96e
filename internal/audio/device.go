// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device represents an audio device
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
}

func newDevice(id int, info *portaudio.DeviceInfo) Device {
	return Device{
		ID:                id,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		MaxOutputChannels: info.MaxOutputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		LowInputLatency:   info.DefaultLowInputLatency,
		HighInputLatency:  info.DefaultHighInputLatency,
	}
}

// Kind describes the device direction for listings.
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// PortInfo names one capture channel of a device.
type PortInfo struct {
	DeviceID int
	Channel  int // 1-based
	Name     string
}

// CapturePorts returns one port per input channel.
func (d Device) CapturePorts() []PortInfo {
	ports := make([]PortInfo, d.MaxInputChannels)
	for i := range ports {
		ports[i] = PortInfo{
			DeviceID: d.ID,
			Channel:  i + 1,
			Name:     PortName(d.Name, i+1),
		}
	}
	return ports
}

// CapturePorts flattens the capture ports of every device.
func CapturePorts(devices []Device) []PortInfo {
	var ports []PortInfo
	for _, d := range devices {
		ports = append(ports, d.CapturePorts()...)
	}
	return ports
}

// PortName builds a "client:port" name for a capture channel. Colons in the
// device name are replaced so the name splits unambiguously.
func PortName(device string, channel int) string {
	client := strings.ReplaceAll(strings.TrimSpace(device), ":", "_")
	if client == "" {
		client = "system"
	}
	return fmt.Sprintf("%s:capture_%d", client, channel)
}
