package export

import "fmt"

// TransportError wraps a failure reaching the chat history source.
// The pipeline never retries it; the current chat's export is aborted
// and nothing partial is written.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports invalid user-supplied filter, date or template
// input. It is surfaced at configuration time, before any network
// access.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// FilesystemError wraps a failure writing the export file or a media
// file. For the primary output file it is fatal for that chat; for a
// single media file it is only counted.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem: %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
