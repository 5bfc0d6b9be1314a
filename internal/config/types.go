package config

// #region file
// File is the on-disk session configuration. Durations are Go duration
// strings ("1.5s", "250ms").
type File struct {
	Session   SessionConfig   `yaml:"session" toml:"session" json:"session"`
	Decision  DecisionConfig  `yaml:"decision" toml:"decision" json:"decision"`
	Transport TransportConfig `yaml:"transport" toml:"transport" json:"transport"`
	Log       LogConfig       `yaml:"log" toml:"log" json:"log"`
	HTTP      HTTPConfig      `yaml:"http" toml:"http" json:"http"`
	Stimuli   []StimulusEntry `yaml:"stimuli" toml:"stimuli" json:"stimuli"`
}

// SessionConfig holds frame rate and state machine settings.
type SessionConfig struct {
	FPS      int    `yaml:"fps" toml:"fps" json:"fps"`
	Default  string `yaml:"default" toml:"default" json:"default"`
	Debounce int    `yaml:"debounce" toml:"debounce" json:"debounce"`
	Profile  bool   `yaml:"profile" toml:"profile" json:"profile"`
}

// #endregion file

// #region decision
// DecisionConfig selects exactly one decision policy.
type DecisionConfig struct {
	Table     map[string]string `yaml:"table,omitempty" toml:"table,omitempty" json:"table,omitempty"`
	Threshold *ThresholdConfig  `yaml:"threshold,omitempty" toml:"threshold,omitempty" json:"threshold,omitempty"`
}

// ThresholdConfig thresholds one numeric signal field.
type ThresholdConfig struct {
	Index int          `yaml:"index" toml:"index" json:"index"`
	Bands []BandConfig `yaml:"bands" toml:"bands" json:"bands"`
}

// BandConfig maps values below Below to Stimulus. A nil Below on the last
// band means no upper bound.
type BandConfig struct {
	Below    *float64 `yaml:"below,omitempty" toml:"below,omitempty" json:"below,omitempty"`
	Stimulus string   `yaml:"stimulus" toml:"stimulus" json:"stimulus"`
}

// #endregion decision

// #region transport
// Transport kinds.
const (
	TransportNone  = "none"
	TransportRedis = "redis"
	TransportGRPC  = "grpc"
)

// TransportConfig selects and configures the signal transport.
type TransportConfig struct {
	Kind  string      `yaml:"kind" toml:"kind" json:"kind"`
	Redis RedisConfig `yaml:"redis" toml:"redis" json:"redis"`
	GRPC  GRPCConfig  `yaml:"grpc" toml:"grpc" json:"grpc"`
}

// RedisConfig configures the pub/sub subscriber.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr" json:"addr"`
	Password string `yaml:"password" toml:"password" json:"-"`
	DB       int    `yaml:"db" toml:"db" json:"db"`
	Channel  string `yaml:"channel" toml:"channel" json:"channel"`
}

// GRPCConfig configures the streaming subscriber.
type GRPCConfig struct {
	Addr  string `yaml:"addr" toml:"addr" json:"addr"`
	Retry string `yaml:"retry" toml:"retry" json:"retry"` // reconnect delay
}

// #endregion transport

// #region outputs
// LogConfig names the session log outputs. Empty paths disable them.
type LogConfig struct {
	TSV    string `yaml:"tsv" toml:"tsv" json:"tsv"`
	DB     string `yaml:"db" toml:"db" json:"db"`
	Buffer int    `yaml:"buffer" toml:"buffer" json:"buffer"`
}

// HTTPConfig configures the status API. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

// #endregion outputs

// #region stimulus-entry
// StimulusEntry is one catalog entry.
type StimulusEntry struct {
	ID       string        `yaml:"id" toml:"id" json:"id"`
	Texture  TextureEntry  `yaml:"texture" toml:"texture" json:"texture"`
	Motion   MotionEntry   `yaml:"motion" toml:"motion" json:"motion"`
	Duration DurationEntry `yaml:"duration" toml:"duration" json:"duration"`
}

// TextureEntry mirrors texture.Spec.
type TextureEntry struct {
	Kind      string     `yaml:"kind" toml:"kind" json:"kind"`
	Size      int        `yaml:"size" toml:"size" json:"size"`
	Frequency float32    `yaml:"frequency" toml:"frequency" json:"frequency"`
	Contrast  *float32   `yaml:"contrast,omitempty" toml:"contrast,omitempty" json:"contrast,omitempty"`
	Center    [2]float32 `yaml:"center" toml:"center" json:"center"`
	Value     uint8      `yaml:"value" toml:"value" json:"value"`
	Name      string     `yaml:"name" toml:"name" json:"name"`
}

// MotionEntry mirrors stimulus.Motion.
type MotionEntry struct {
	Angle          float64  `yaml:"angle" toml:"angle" json:"angle"`
	Velocity       float64  `yaml:"velocity" toml:"velocity" json:"velocity"`
	Frequency      float64  `yaml:"frequency" toml:"frequency" json:"frequency"`
	Contrast       *float64 `yaml:"contrast,omitempty" toml:"contrast,omitempty" json:"contrast,omitempty"` // nil means 1
	StationaryTime string   `yaml:"stationary_time" toml:"stationary_time" json:"stationary_time"`
}

// DurationEntry mirrors stimulus.Duration.
type DurationEntry struct {
	Policy string `yaml:"policy" toml:"policy" json:"policy"`
	Length string `yaml:"length" toml:"length" json:"length"`
	Then   string `yaml:"then" toml:"then" json:"then"`
}

// #endregion stimulus-entry
