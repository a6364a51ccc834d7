package config

import "time"

// Backend constants
const (
	// DefaultBackendURL is the HR assistant backend used when nothing else is configured
	DefaultBackendURL = "http://localhost:8000"

	// DefaultChatPath is the text exchange endpoint
	DefaultChatPath = "/chat"

	// DefaultSpeechPath is the transcription endpoint
	DefaultSpeechPath = "/speech-to-text"

	// DefaultHTTPTimeout of zero leaves timeouts to the transport
	DefaultHTTPTimeout time.Duration = 0
)

// Voice capture constants
const (
	// DefaultCaptureSampleRate is the rate requested from the input device
	DefaultCaptureSampleRate = 16000

	// DefaultCaptureChannels is the channel count requested from the input device
	DefaultCaptureChannels = 1

	// DefaultFrameLength is the number of frames per device callback
	DefaultFrameLength = 1024

	// DefaultMaxRecording is the ceiling after which capture stops on its own
	DefaultMaxRecording = 5 * time.Second
)

// Logging constants
const (
	DefaultLogLevel  = "INFO"
	DefaultLogFormat = "text"

	// DefaultTUILogFile receives log output while the alternate screen is active
	DefaultTUILogFile = "hrchat.log"
)

// Dev server constants
const (
	DefaultDevServerAddr = ":8000"

	// DefaultAllowedOrigin matches the browser widget's dev origin
	DefaultAllowedOrigin = "http://localhost:3000"
)

// DefaultConfigFile is looked up in the working directory
const DefaultConfigFile = "hrchat.yaml"
