package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/stimloop/internal/controller"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
	"github.com/danielpatrickdp/stimloop/internal/texture"
)

// #region defaults
// Defaults returns a file with every optional field filled in.
func Defaults() File {
	return File{
		Session: SessionConfig{FPS: 60, Debounce: 1},
		Transport: TransportConfig{
			Kind:  TransportNone,
			Redis: RedisConfig{Addr: "localhost:6379", Channel: "stimulus"},
			GRPC:  GRPCConfig{Addr: "localhost:50061", Retry: "1s"},
		},
		Log: LogConfig{Buffer: 256},
	}
}

// #endregion defaults

// #region load
// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over Defaults and
// applies environment overrides.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := f.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the format named by ext. Unknown keys are errors.
func Parse(data []byte, ext string) (*File, error) {
	f := Defaults()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &f, nil
}

// #endregion load

// #region env
// ApplyEnv overrides fields from environment variables read through getenv.
func (f *File) ApplyEnv(getenv func(string) string) error {
	envOr := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	envOr("STIMLOOP_TRANSPORT", &f.Transport.Kind)
	envOr("REDIS_ADDR", &f.Transport.Redis.Addr)
	envOr("REDIS_PASSWORD", &f.Transport.Redis.Password)
	envOr("REDIS_CHANNEL", &f.Transport.Redis.Channel)
	envOr("SIGNAL_ADDR", &f.Transport.GRPC.Addr)
	envOr("STIMLOOP_DB", &f.Log.DB)
	envOr("STIMLOOP_TSV", &f.Log.TSV)
	envOr("STIMLOOP_HTTP", &f.HTTP.Addr)

	if v := getenv("STIMLOOP_DEBOUNCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STIMLOOP_DEBOUNCE value: %w", err)
		}
		f.Session.Debounce = n
	}
	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		f.Transport.Redis.DB = n
	}
	return nil
}

// #endregion env

// #region validate
// Validate checks the file without building anything. Catalog consistency
// is checked by BuildCatalog and the controller.
func (f *File) Validate() error {
	if f.Session.FPS <= 0 {
		return fmt.Errorf("session.fps must be positive, got %d", f.Session.FPS)
	}
	if f.Session.Debounce < 1 {
		return fmt.Errorf("session.debounce must be at least 1, got %d", f.Session.Debounce)
	}
	if f.Session.Default == "" {
		return fmt.Errorf("session.default is required")
	}
	if len(f.Stimuli) == 0 {
		return fmt.Errorf("at least one stimulus is required")
	}
	hasTable := len(f.Decision.Table) > 0
	hasThreshold := f.Decision.Threshold != nil
	if hasTable == hasThreshold {
		return fmt.Errorf("decision needs exactly one of table or threshold")
	}
	switch f.Transport.Kind {
	case TransportNone:
	case TransportRedis:
		if f.Transport.Redis.Channel == "" {
			return fmt.Errorf("transport.redis.channel is required")
		}
	case TransportGRPC:
		if f.Transport.GRPC.Addr == "" {
			return fmt.Errorf("transport.grpc.addr is required")
		}
	default:
		return fmt.Errorf("unknown transport kind %q", f.Transport.Kind)
	}
	return nil
}

// #endregion validate

// #region build
// BuildCatalog registers every stimulus and checks cross references.
func (f *File) BuildCatalog() (*stimulus.Catalog, error) {
	c := stimulus.NewCatalog()
	for i, e := range f.Stimuli {
		spec, err := e.toSpec()
		if err != nil {
			return nil, fmt.Errorf("stimuli[%d]: %w", i, err)
		}
		if err := c.Register(spec); err != nil {
			return nil, fmt.Errorf("stimuli[%d]: %w", i, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildDecider returns the configured decision policy.
func (f *File) BuildDecider() (controller.Decider, error) {
	if len(f.Decision.Table) > 0 {
		t := make(controller.TableDecider, len(f.Decision.Table))
		for label, id := range f.Decision.Table {
			t[label] = stimulus.ID(id)
		}
		return t, nil
	}
	th := f.Decision.Threshold
	bands := make([]controller.Band, len(th.Bands))
	for i, b := range th.Bands {
		below := math.Inf(1)
		switch {
		case b.Below != nil:
			below = *b.Below
		case i != len(th.Bands)-1:
			return nil, fmt.Errorf("decision.threshold.bands[%d]: only the last band may omit below", i)
		}
		bands[i] = controller.Band{Below: below, Stimulus: stimulus.ID(b.Stimulus)}
	}
	d, err := controller.NewThresholdDecider(th.Index, bands)
	if err != nil {
		return nil, fmt.Errorf("decision.threshold: %w", err)
	}
	return d, nil
}

// ControllerConfig returns the state machine settings.
func (f *File) ControllerConfig() controller.Config {
	return controller.Config{
		Default:               stimulus.ID(f.Session.Default),
		RequiredDebounceCount: f.Session.Debounce,
	}
}

// RetryDelay parses the gRPC reconnect delay.
func (f *File) RetryDelay() (time.Duration, error) {
	return parseDuration(f.Transport.GRPC.Retry)
}

func (e StimulusEntry) toSpec() (stimulus.Spec, error) {
	stationary, err := parseDuration(e.Motion.StationaryTime)
	if err != nil {
		return stimulus.Spec{}, fmt.Errorf("stationary_time: %w", err)
	}
	length, err := parseDuration(e.Duration.Length)
	if err != nil {
		return stimulus.Spec{}, fmt.Errorf("duration.length: %w", err)
	}

	tex := texture.Spec{
		Kind:      texture.Kind(e.Texture.Kind),
		Size:      e.Texture.Size,
		Frequency: e.Texture.Frequency,
		Contrast:  1,
		Center:    e.Texture.Center,
		Value:     e.Texture.Value,
		Name:      e.Texture.Name,
	}
	if tex.Kind == "" {
		tex.Kind = texture.KindGrating
	}
	if tex.Size == 0 {
		tex.Size = texture.DefaultSpec().Size
	}
	if e.Texture.Contrast != nil {
		tex.Contrast = *e.Texture.Contrast
	}

	contrast := 1.0
	if e.Motion.Contrast != nil {
		contrast = *e.Motion.Contrast
	}

	policy := stimulus.DurationPolicy(e.Duration.Policy)
	if policy == "" {
		policy = stimulus.Indefinite
	}
	return stimulus.Spec{
		ID:      stimulus.ID(e.ID),
		Texture: tex,
		Motion: stimulus.Motion{
			Angle:          e.Motion.Angle,
			Velocity:       e.Motion.Velocity,
			Frequency:      e.Motion.Frequency,
			Contrast:       contrast,
			StationaryTime: stationary,
		},
		Duration: stimulus.Duration{
			Policy: policy,
			Length: length,
			Then:   stimulus.ID(e.Duration.Then),
		},
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// #endregion build
