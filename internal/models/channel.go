package models

// Channel is one semantic sensor type tracked by the monitor.
// The string value is the wire name used in JSON payloads and snapshots.
type Channel string

const (
	ChannelCO2             Channel = "MQ135_CO2"
	ChannelSmoke           Channel = "MQ2_Smoke"
	ChannelCO              Channel = "MQ7_CO"
	ChannelFlammable       Channel = "MQ9_Flammable"
	ChannelTemperature     Channel = "Temperature"
	ChannelHumidity        Channel = "Humidity"
	ChannelWindSpeed       Channel = "Wind_Speed"
	ChannelFireProbability Channel = "Fire_Probability"
)

// Channels lists every known channel in display order.
var Channels = []Channel{
	ChannelCO2,
	ChannelSmoke,
	ChannelCO,
	ChannelFlammable,
	ChannelTemperature,
	ChannelHumidity,
	ChannelWindSpeed,
	ChannelFireProbability,
}

// GaugeChannels are all channels except FireProbability.
var GaugeChannels = Channels[:len(Channels)-1]

// Valid reports whether c belongs to the closed channel set.
func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

func (c Channel) String() string { return string(c) }

// SensorBinding maps an opaque external sensor identifier to a channel.
type SensorBinding struct {
	ID      string  `json:"id" mapstructure:"id"`
	Channel Channel `json:"channel" mapstructure:"channel"`
}
