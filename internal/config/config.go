package config

// Configuration identity.
const (
	APIVersion = "pathhint.io/v1"
	Kind       = "Server"
)

// Defaults.
const (
	DefaultListenAddress  = "127.0.0.1:7878"
	DefaultMetricsAddress = "127.0.0.1:9090"
	DefaultServiceName    = "pathhint"
)

// Handler types.
const (
	HandlerTypeStatic   = "static"
	HandlerTypeFile     = "file"
	HandlerTypeRedirect = "redirect"
	HandlerTypeJSON     = "json"
)

// ServerConfig is the root configuration document.
type ServerConfig struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       Spec     `yaml:"spec" json:"spec"`
}

// Metadata contains configuration metadata.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Spec contains the listener specification.
type Spec struct {
	Listener      Listener             `yaml:"listener" json:"listener"`
	Routes        []Route              `yaml:"routes" json:"routes"`
	Admission     *AdmissionConfig     `yaml:"admission,omitempty" json:"admission,omitempty"`
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// Listener configures the listening socket.
type Listener struct {
	// Address is a "host:port" pair.
	Address string `yaml:"address" json:"address"`
}

// Route binds a path to a handler. Order matters: on equal edit
// distance the earlier route is suggested.
type Route struct {
	Path    string        `yaml:"path" json:"path"`
	Handler HandlerConfig `yaml:"handler" json:"handler"`
}

// HandlerConfig describes the response body producer for a route.
type HandlerConfig struct {
	// Type is one of static, file, redirect, json.
	Type string `yaml:"type" json:"type"`

	// Status overrides the default status (200, or 302 for redirects).
	Status int `yaml:"status,omitempty" json:"status,omitempty"`

	// ContentType overrides the default content type.
	ContentType string `yaml:"contentType,omitempty" json:"contentType,omitempty"`

	// Body is the inline body of a static handler.
	Body string `yaml:"body,omitempty" json:"body,omitempty"`

	// File is read on every request by a file handler.
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Location is the redirect target.
	Location string `yaml:"location,omitempty" json:"location,omitempty"`

	// Data is serialized by a json handler.
	Data map[string]interface{} `yaml:"data,omitempty" json:"data,omitempty"`
}

// AdmissionConfig configures optional admission control in front of the
// acceptor. Zero values disable each limit.
type AdmissionConfig struct {
	MaxConnections int     `yaml:"maxConnections,omitempty" json:"maxConnections,omitempty"`
	AcceptRate     float64 `yaml:"acceptRate,omitempty" json:"acceptRate,omitempty"`
	AcceptBurst    int     `yaml:"acceptBurst,omitempty" json:"acceptBurst,omitempty"`
}

// Enabled reports whether any limit is configured.
func (a *AdmissionConfig) Enabled() bool {
	return a != nil && (a.MaxConnections > 0 || a.AcceptRate > 0)
}

// ObservabilityConfig contains metrics and tracing configuration.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// MetricsConfig configures the admin endpoint serving /metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// DefaultConfig returns the built-in configuration: the reference route
// list served with static pages on the loopback address.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		APIVersion: APIVersion,
		Kind:       Kind,
		Metadata:   Metadata{Name: "pathhint"},
		Spec: Spec{
			Listener: Listener{Address: DefaultListenAddress},
			Routes: []Route{
				staticRoute("/", "<h1>Home</h1>"),
				staticRoute("/about", "<h1>About Us</h1>"),
				staticRoute("/contact", "<h1>Contact Us</h1>"),
				staticRoute("/blog", "<h1>Blog</h1>"),
				staticRoute("/blog/posts", "<h1>Blog Posts</h1>"),
				staticRoute("/announcements", "<h1>Announcements</h1>"),
			},
		},
	}
}

func staticRoute(path, body string) Route {
	return Route{
		Path:    path,
		Handler: HandlerConfig{Type: HandlerTypeStatic, Body: body},
	}
}

// MetricsEnabled reports whether the admin endpoint should run.
func (c *ServerConfig) MetricsEnabled() bool {
	return c.Spec.Observability != nil &&
		c.Spec.Observability.Metrics != nil &&
		c.Spec.Observability.Metrics.Enabled
}

// MetricsAddress returns the admin endpoint address.
func (c *ServerConfig) MetricsAddress() string {
	if c.MetricsEnabled() && c.Spec.Observability.Metrics.Address != "" {
		return c.Spec.Observability.Metrics.Address
	}
	return DefaultMetricsAddress
}

// RoutePaths returns the configured paths in order.
func (c *ServerConfig) RoutePaths() []string {
	paths := make([]string, 0, len(c.Spec.Routes))
	for _, r := range c.Spec.Routes {
		paths = append(paths, r.Path)
	}
	return paths
}
