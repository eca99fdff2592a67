package tagteam

import (
	"net/http"
	"time"

	"github.com/MARSWALLET/tagteam/inference"
	"github.com/MARSWALLET/tagteam/internal/hf"
)

// Model identifiers are fixed at build time. The vision model converts image
// bytes into text, the logic model answers a prompt built from that text.
const (
	VisionModelID = "microsoft/Florence-2-large"
	LogicModelID  = "Qwen/Qwen2.5-3B-Instruct"
)

const defaultStageTimeout = 60 * time.Second

type InitOptions struct {
	// APIKey authenticates against the inference provider. It may be empty,
	// the pipeline cannot run without it but the process can still serve.
	APIKey string

	InferenceURL string // base URL of the image-to-text API, "" for the default
	RouterURL    string // base URL of the chat completion API, "" for the default

	// Per-stage call deadlines. Zero means defaultStageTimeout, a negative
	// value disables the stage deadline.
	VisionTimeout time.Duration
	LogicTimeout  time.Duration

	HttpClient *http.Client // if nil uses http.DefaultClient
}

// Tagteam holds the process-wide inference client handle. It is constructed
// once at startup, never mutated afterwards, and shared by all requests.
type Tagteam struct {
	inference.Client

	visionTimeout time.Duration
	logicTimeout  time.Duration
}

func Init(tio InitOptions) *Tagteam {
	httpClient := tio.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	t := &Tagteam{
		Client:        hf.Init(tio.APIKey, tio.InferenceURL, tio.RouterURL, httpClient),
		visionTimeout: tio.VisionTimeout,
		logicTimeout:  tio.LogicTimeout,
	}
	if t.visionTimeout == 0 {
		t.visionTimeout = defaultStageTimeout
	}
	if t.logicTimeout == 0 {
		t.logicTimeout = defaultStageTimeout
	}

	return t
}
