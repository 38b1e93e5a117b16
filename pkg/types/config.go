package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each request, including the PDF download.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries caps retries on HTTP 429 and 503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// CachePath is an optional SQLite file that stores GET responses.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`
}

// ExtractionConfig governs every filter decision of one repository or
// folder walk. It is read-only during a run and may be shared.
type ExtractionConfig struct {
	// IncludeDirs narrows the walk to paths under matching directories.
	IncludeDirs []string `json:"include_dirs,omitempty" yaml:"include_dirs,omitempty" mapstructure:"include_dirs"`

	// ExcludeDirs removes paths under matching directories.
	ExcludeDirs []string `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty" mapstructure:"exclude_dirs"`

	// IncludeExtensions narrows the walk to files with these extensions.
	IncludeExtensions []string `json:"include_extensions,omitempty" yaml:"include_extensions,omitempty" mapstructure:"include_extensions"`

	// ExcludeExtensions removes files with these extensions.
	ExcludeExtensions []string `json:"exclude_extensions,omitempty" yaml:"exclude_extensions,omitempty" mapstructure:"exclude_extensions"`

	// MaxFileSizeBytes skips larger files. Zero disables the limit.
	MaxFileSizeBytes int64 `json:"max_file_size_bytes" yaml:"max_file_size_bytes" mapstructure:"max_file_size_bytes"`
}

// RenderMode selects how web pages are turned into HTML.
type RenderMode string

const (
	// RenderStatic fetches the page over HTTP without running scripts.
	RenderStatic RenderMode = "static"
	// RenderChrome loads the page in headless Chrome and reads the final DOM.
	RenderChrome RenderMode = "chrome"
)

// RenderConfig holds settings for the web page renderer.
type RenderConfig struct {
	Mode RenderMode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// WaitNetworkIdle waits for Chrome's networkIdle lifecycle event
	// before reading the DOM.
	WaitNetworkIdle bool `json:"wait_network_idle" yaml:"wait_network_idle" mapstructure:"wait_network_idle"`

	// SettleDelay is an extra pause after load for late client-side rendering.
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay" mapstructure:"settle_delay"`

	// Timeout bounds one page render.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ClassifyConfig holds settings for source classification.
type ClassifyConfig struct {
	// ProbeContentType issues a HEAD request to detect PDFs served from
	// URLs without a .pdf suffix.
	ProbeContentType bool `json:"probe_content_type" yaml:"probe_content_type" mapstructure:"probe_content_type"`
}

// OutputConfig holds settings for writing artifacts.
type OutputConfig struct {
	// Dir is the parent directory of per-run output folders (default "output").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// WriteContext also writes <name>_context.json next to the Markdown.
	WriteContext bool `json:"write_context" yaml:"write_context" mapstructure:"write_context"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Render     RenderConfig     `json:"render" yaml:"render" mapstructure:"render"`
	Classify   ClassifyConfig   `json:"classify" yaml:"classify" mapstructure:"classify"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`

	// GitHubToken authenticates GitHub API calls. Loaded from secrets.
	GitHubToken string `json:"-" yaml:"-" mapstructure:"github_token"`
}

// DefaultPipelineConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		HTTP: HTTPConfig{
			Timeout:    60 * time.Second,
			UserAgent:  "web2llm/0.1 (+https://github.com/pdiddy/web2llm)",
			MaxRetries: 3,
		},
		Extraction: ExtractionConfig{
			MaxFileSizeBytes: 1 << 20,
		},
		Render: RenderConfig{
			Mode:    RenderStatic,
			Timeout: 45 * time.Second,
		},
		Classify: ClassifyConfig{ProbeContentType: true},
		Output: OutputConfig{
			Dir:          "output",
			WriteContext: true,
		},
	}
}
