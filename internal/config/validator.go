package config

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is makes errors.Is(err, util.ErrConfigInvalid) hold for validation failures.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates listener configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a configuration.
func ValidateConfig(config *ServerConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *ServerConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(config)
	v.validateSpec(&config.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateRoot validates root-level fields.
func (v *Validator) validateRoot(config *ServerConfig) {
	if config.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(config.APIVersion, "pathhint.io/") {
		v.addError("apiVersion", "apiVersion must start with 'pathhint.io/'")
	}

	if config.Kind == "" {
		v.addError("kind", "kind is required")
	} else if config.Kind != Kind {
		v.addError("kind", fmt.Sprintf("kind must be '%s'", Kind))
	}
}

// validateSpec validates the spec.
func (v *Validator) validateSpec(spec *Spec) {
	if err := util.ValidateHostPort(spec.Listener.Address); err != nil {
		v.addError("spec.listener.address", err.Error())
	}

	v.validateRoutes(spec.Routes)

	if spec.Admission != nil {
		v.validateAdmission(spec.Admission)
	}

	if spec.Observability != nil {
		v.validateObservability(spec.Observability)
	}
}

// validateRoutes validates the route list.
func (v *Validator) validateRoutes(routes []Route) {
	if len(routes) == 0 {
		v.addError("spec.routes", "at least one route is required")
		return
	}

	seen := make(map[router.RoutePath]int, len(routes))
	for i, route := range routes {
		path := fmt.Sprintf("spec.routes[%d]", i)

		if strings.TrimSpace(route.Path) == "" {
			v.addError(path+".path", "path is required")
		} else {
			normalized := router.NormalizePath(route.Path)
			if first, exists := seen[normalized]; exists {
				v.addError(path+".path",
					fmt.Sprintf("duplicate path %s (also spec.routes[%d])", normalized, first))
			} else {
				seen[normalized] = i
			}
		}

		v.validateHandler(&route.Handler, path+".handler")
	}
}

// validateHandler validates a handler configuration.
func (v *Validator) validateHandler(h *HandlerConfig, path string) {
	switch h.Type {
	case HandlerTypeStatic:
		v.validateStatus(h.Status, path)
	case HandlerTypeFile:
		if h.File == "" {
			v.addError(path+".file", "file is required for file handlers")
		}
		v.validateStatus(h.Status, path)
	case HandlerTypeRedirect:
		if err := util.ValidateRedirectLocation(h.Location); err != nil {
			v.addError(path+".location", err.Error())
		}
		if h.Status != 0 && !isRedirectStatus(h.Status) {
			v.addError(path+".status", fmt.Sprintf("redirect status must be 301, 302, 303, 307 or 308, got %d", h.Status))
		}
	case HandlerTypeJSON:
		v.validateStatus(h.Status, path)
	case "":
		v.addError(path+".type", "handler type is required")
	default:
		v.addError(path+".type", fmt.Sprintf("unknown handler type %q", h.Type))
	}
}

// validateStatus validates an optional status override.
func (v *Validator) validateStatus(status int, path string) {
	if status == 0 {
		return
	}
	if status < 200 || status > 599 || http.StatusText(status) == "" {
		v.addError(path+".status", fmt.Sprintf("invalid status %d", status))
	}
}

func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// validateAdmission validates admission control limits.
func (v *Validator) validateAdmission(a *AdmissionConfig) {
	if a.MaxConnections < 0 {
		v.addError("spec.admission.maxConnections", "must be >= 0")
	}
	if a.AcceptRate < 0 {
		v.addError("spec.admission.acceptRate", "must be >= 0")
	}
	if a.AcceptBurst < 0 {
		v.addError("spec.admission.acceptBurst", "must be >= 0")
	}
}

// validateObservability validates metrics and tracing configuration.
func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	if obs.Metrics != nil && obs.Metrics.Enabled {
		if err := util.ValidateHostPort(obs.Metrics.Address); err != nil {
			v.addError("spec.observability.metrics.address", err.Error())
		}
	}

	if obs.Tracing != nil {
		if obs.Tracing.SamplingRate < 0 || obs.Tracing.SamplingRate > 1 {
			v.addError("spec.observability.tracing.samplingRate", "must be between 0 and 1")
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{
		Path:    path,
		Message: message,
	})
}
