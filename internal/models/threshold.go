package models

// ThresholdKind selects which side of the limit is a breach.
type ThresholdKind string

const (
	ThresholdUpper ThresholdKind = "high" // breach when value > limit
	ThresholdLower ThresholdKind = "low"  // breach when value < limit
)

// ThresholdRule is the alerting rule for one channel.
type ThresholdRule struct {
	Channel Channel       `json:"channel" mapstructure:"channel"`
	Kind    ThresholdKind `json:"kind" mapstructure:"kind"`
	Limit   float64       `json:"limit" mapstructure:"limit"`
	Unit    string        `json:"unit" mapstructure:"unit"`
}

// DefaultThresholds is the single threshold table used by the evaluator and the views.
var DefaultThresholds = []ThresholdRule{
	{Channel: ChannelTemperature, Kind: ThresholdUpper, Limit: 28, Unit: "°C"},
	{Channel: ChannelHumidity, Kind: ThresholdLower, Limit: 20, Unit: "%"},
	{Channel: ChannelWindSpeed, Kind: ThresholdUpper, Limit: 1, Unit: "km/h"},
	{Channel: ChannelCO2, Kind: ThresholdUpper, Limit: 800, Unit: "ppm"},
	{Channel: ChannelSmoke, Kind: ThresholdUpper, Limit: 40, Unit: "ppm"},
	{Channel: ChannelCO, Kind: ThresholdUpper, Limit: 4, Unit: "ppm"},
	{Channel: ChannelFlammable, Kind: ThresholdUpper, Limit: 0.8, Unit: "ppm"},
}
