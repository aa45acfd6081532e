package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/noteid"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrImmutableSetting is returned when settings --set names a key that
// cannot change after the repository is created.
var ErrImmutableSetting = errors.New("setting cannot be changed")

// Config is the content of a repository's marker file.
type Config struct {
	NotesPath       string            `yaml:"notes_path"`
	HTMLPath        string            `yaml:"html_path"`
	PDFPath         string            `yaml:"pdf_path"`
	AttachmentsPath string            `yaml:"attachments_path"`
	Index           string            `yaml:"index"`
	DefaultNewType  string            `yaml:"default_new_type"`
	DefaultViewType string            `yaml:"default_view_type"`
	NoteTypes       []string          `yaml:"note_types"`
	TikzFormat      string            `yaml:"tikz_format"`
	IDPolicy        string            `yaml:"id_policy"`
	Order           string            `yaml:"order"`
	StrictLinks     bool              `yaml:"strict_links"`
	App             ApplicationConfig `yaml:"app"`
	Auth            AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.NotesPath, validation.Required, validation.By(relativePath)),
		validation.Field(&c.HTMLPath, validation.Required, validation.By(relativePath)),
		validation.Field(&c.PDFPath, validation.Required, validation.By(relativePath)),
		validation.Field(&c.AttachmentsPath, validation.Required, validation.By(relativePath)),
		validation.Field(&c.NoteTypes, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.DefaultNewType, validation.Required, validation.In(toAny(c.NoteTypes)...)),
		validation.Field(&c.DefaultViewType, validation.In(toAny(c.NoteTypes)...)),
		validation.Field(&c.TikzFormat, validation.In("png", "svg", "pdf")),
		validation.Field(&c.IDPolicy, validation.In(noteid.PolicySequential, noteid.PolicyTimestamp)),
		validation.Field(&c.Order, validation.In(string(models.OrderID), string(models.OrderUpdated))),
	)
	if err != nil {
		return err
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// Types returns the note type enumeration.
func (c *Config) Types() models.TypeSet { return models.TypeSet(c.NoteTypes) }

func relativePath(v any) error {
	p, _ := v.(string)
	if filepath.IsAbs(p) {
		return errors.New("must be relative to the repository root")
	}
	if p == ".." || strings.HasPrefix(filepath.Clean(p), ".."+string(filepath.Separator)) {
		return errors.New("must stay inside the repository")
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns the settings a new repository starts with.
func NewDefaultConfig() *Config {
	return &Config{
		NotesPath:       "notes",
		HTMLPath:        "html",
		PDFPath:         "pdf",
		AttachmentsPath: "attachments",
		Index:           "index",
		DefaultNewType:  "Inbox",
		DefaultViewType: "Archive",
		NoteTypes:       slices.Clone(models.DefaultNoteTypes),
		TikzFormat:      "png",
		IDPolicy:        noteid.PolicySequential,
		Order:           string(models.OrderID),
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

// Paths returns every directory the repository keeps, relative to its root.
func (c *Config) Paths() []string {
	return []string{c.NotesPath, c.HTMLPath, c.PDFPath, c.AttachmentsPath}
}

// Setting is one key/value pair as shown by the settings command.
type Setting struct {
	Key   string
	Value string
}

// Settings lists the repository settings in a fixed order.
func (c *Config) Settings() []Setting {
	return []Setting{
		{"notes_path", c.NotesPath},
		{"html_path", c.HTMLPath},
		{"pdf_path", c.PDFPath},
		{"attachments_path", c.AttachmentsPath},
		{"index", c.Index},
		{"default_new_type", c.DefaultNewType},
		{"default_view_type", c.DefaultViewType},
		{"note_types", strings.Join(c.NoteTypes, ", ")},
		{"tikz_format", c.TikzFormat},
		{"id_policy", c.IDPolicy},
		{"order", c.Order},
		{"strict_links", strconv.FormatBool(c.StrictLinks)},
		{"app.log_level", c.App.LogLevel.String()},
		{"app.log_format", c.App.LogFormat},
		{"app.http.port", strconv.Itoa(c.App.HTTP.Port)},
		{"auth.mode", c.Auth.Mode},
	}
}

// Set changes one setting and revalidates. note_types is fixed once the
// repository exists; existing notes are validated against it.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "notes_path":
		c.NotesPath = value
	case "html_path":
		c.HTMLPath = value
	case "pdf_path":
		c.PDFPath = value
	case "attachments_path":
		c.AttachmentsPath = value
	case "index":
		c.Index = value
	case "default_new_type":
		c.DefaultNewType = value
	case "default_view_type":
		c.DefaultViewType = value
	case "note_types":
		return fmt.Errorf("%w: %s", ErrImmutableSetting, key)
	case "tikz_format":
		c.TikzFormat = value
	case "id_policy":
		c.IDPolicy = value
	case "order":
		c.Order = value
	case "strict_links":
		c.StrictLinks, err = strconv.ParseBool(value)
	case "app.log_level":
		err = c.App.LogLevel.UnmarshalText([]byte(value))
	case "app.log_format":
		c.App.LogFormat = value
	case "app.http.port":
		c.App.HTTP.Port, err = strconv.Atoi(value)
	case "auth.mode":
		c.Auth.Mode = value
	case "auth.token":
		c.Auth.Token = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}
