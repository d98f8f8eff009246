package models

// RiskLevel is the operator-facing classification of the fire probability.
// Levels are ordered; a higher value means more risk.
type RiskLevel int

const (
	RiskUnknown RiskLevel = iota
	RiskSafe
	RiskLow
	RiskMedium
	RiskHigh
)

var riskNames = map[RiskLevel]string{
	RiskUnknown: "Unknown",
	RiskSafe:    "Safe",
	RiskLow:     "Low Risk",
	RiskMedium:  "Medium Risk",
	RiskHigh:    "High Risk",
}

func (r RiskLevel) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return riskNames[RiskUnknown]
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// AtLeast reports whether r is as severe as other or more.
func (r RiskLevel) AtLeast(other RiskLevel) bool { return r >= other }

// RiskStatus is the current fire risk as shown to operators.
type RiskStatus struct {
	Level           RiskLevel       `json:"level"`
	Probability     FireProbability `json:"fire_probability"`
	CameraConnected bool            `json:"camera_connected"`
	Warnings        []Warning       `json:"warnings"`
	WarningCount    int             `json:"warning_count"`
}

// Warning is one channel currently breaching its threshold.
type Warning struct {
	Channel Channel `json:"channel"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}
